package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stone-age-io/hostfacts/internal/config"
	"github.com/stone-age-io/hostfacts/internal/facts"
	"github.com/stone-age-io/hostfacts/internal/report"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// App runs one facts collection and writes the report
type App struct {
	config    *config.Config
	logger    *zap.Logger
	collector facts.Collector
	version   string
}

// New creates an app from a config file. format overrides output.format
// when not empty.
func New(configPath, format, version string) (*App, error) {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if format != "" {
		format = strings.ToLower(format)
		if format != "text" && format != "prometheus" {
			return nil, fmt.Errorf("unknown output format: %s", format)
		}
		cfg.Output.Format = format
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewWithConfig(cfg, logger, version)
}

// NewWithConfig creates an app from an already loaded configuration
func NewWithConfig(cfg *config.Config, logger *zap.Logger, version string) (*App, error) {
	opts := facts.Options{
		ProcPath:           cfg.Paths.Proc,
		EtcPath:            cfg.Paths.Etc,
		AllowedFilesystems: cfg.Drives.AllowedFilesystems,
		ExporterURL:        cfg.Collector.ExporterURL,
	}

	collector, err := facts.NewCollector(cfg.Collector.Source, opts, logger, facts.NewHTTPClient(cfg.Collector.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}

	logger.Debug("Starting hostfacts",
		zap.String("version", version),
		zap.String("collector", collector.Name()),
		zap.String("format", cfg.Output.Format))

	return &App{
		config:    cfg,
		logger:    logger,
		collector: collector,
		version:   version,
	}, nil
}

// Run collects once and writes the report to w. Fact failures are part of
// the report; only a failure to write it is returned.
func (a *App) Run(ctx context.Context, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.Collector.Timeout)
	defer cancel()

	snapshot := a.collector.Collect(ctx)

	if err := snapshot.Err(); err != nil {
		a.logger.Info("Collection finished with failures",
			zap.Int("failed_families", len(snapshot.Failures)),
			zap.Error(err))
	}

	switch a.config.Output.Format {
	case "prometheus":
		return report.WritePrometheus(w, snapshot)
	default:
		return report.WriteText(w, snapshot)
	}
}

// Close flushes the logger
func (a *App) Close() {
	_ = a.logger.Sync()
}

// initLogger creates the logger: console output on stderr, plus a rotated
// JSON file when logging.file is set
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	// Parse log level
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	// Create encoder config
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Console goes to stderr so stdout carries only the report
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), level),
	}

	if cfg.File != "" {
		// Setup log rotation with lumberjack
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     28, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(fileWriter), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger, nil
}
