package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/stone-age-io/hostfacts/internal/facts"
	"github.com/stone-age-io/hostfacts/internal/utils"
)

// WriteText writes the snapshot as one "Label: value" line per fact,
// followed by an aligned drive table.
//
// Facts with a default (OS, kernel, architecture, processors, identity)
// always print their value. Facts without one print "unavailable (<reason>)"
// when their family failed and are omitted when the platform has no source.
func WriteText(w io.Writer, f *facts.HostFacts) error {
	bw := bufio.NewWriter(w)

	line := func(label, value string) {
		fmt.Fprintf(bw, "%s: %s\n", label, value)
	}
	unavailable := func(label string, family facts.Family) bool {
		err := f.Failure(family)
		if err == nil {
			return false
		}
		line(label, fmt.Sprintf("unavailable (%v)", err))
		return true
	}

	line("OS", f.OSName)
	line("Kernel", f.Kernel)
	line("Architecture", string(f.Architecture))
	line("Hostname", f.Hostname)
	line("User", f.Username)

	// Memory family
	if !unavailable("RAM", facts.FamilyMemory) && f.Memory != nil {
		line("RAM", fmt.Sprintf("%dMB free / %dMB total", f.Memory.AvailableMB, f.Memory.TotalMB))
		if f.MemoryLoadPercent != nil {
			line("Memory load", fmt.Sprintf("%d%%", *f.MemoryLoadPercent))
		}
		if f.Swap != nil {
			line("Swap", fmt.Sprintf("%dMB total / %dMB free", f.Swap.TotalMB, f.Swap.FreeMB))
		}
	}
	if f.VirtualMemoryMB != nil {
		line("Virtual memory", fmt.Sprintf("%d MB", *f.VirtualMemoryMB))
	}

	// Pagefile family
	if !unavailable("Pagefile", facts.FamilyVirtualMemory) && f.CommitUsedMB != nil && f.VirtualMemoryMB != nil {
		line("Pagefile", fmt.Sprintf("%dMB / %dMB", *f.CommitUsedMB, *f.VirtualMemoryMB))
	}

	line("Processors", strconv.Itoa(f.ProcessorCount))

	if !unavailable("Load average", facts.FamilyLoad) && f.LoadAverage != nil {
		loads := make([]string, len(f.LoadAverage))
		for i, v := range f.LoadAverage {
			loads[i] = strconv.FormatFloat(v, 'f', 2, 64)
		}
		line("Load average", strings.Join(loads, ", "))
	}

	if !unavailable("Drives", facts.FamilyDrives) {
		fmt.Fprintln(bw, "Drives:")
		if err := writeDrives(bw, f.Drives); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeDrives writes one aligned row per drive
func writeDrives(w io.Writer, drives []facts.DriveInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, d := range drives {
		if d.Err != nil {
			fmt.Fprintf(tw, "  %s\t%s\terror (%v)\n", d.Mount, d.Filesystem, d.Err)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%sGB free / %sGB total (%s%% free)\n",
			d.Mount,
			d.Filesystem,
			gb(d.FreeGB),
			gb(d.TotalGB),
			strconv.FormatFloat(utils.Percent(d.FreeGB, d.TotalGB), 'f', -1, 64))
	}
	return tw.Flush()
}

func gb(v float64) string {
	return strconv.FormatFloat(utils.Round(v), 'f', -1, 64)
}
