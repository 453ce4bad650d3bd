package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stone-age-io/hostfacts/internal/app"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	format     string
)

var rootCmd = &cobra.Command{
	Use:     "hostfacts",
	Short:   "Print a snapshot of host facts",
	Long:    "hostfacts collects OS, kernel, architecture, identity, memory, load and drive facts once and prints them.",
	Version: version,
	Args:    cobra.NoArgs,
	// Fact failures are part of the report; errors here are config or output errors
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(configPath, format, version)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Run(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default is the platform config path)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "output format: text or prometheus (overrides output.format)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
