package facts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Collector defines the interface for collecting a host facts snapshot
type Collector interface {
	// Collect queries every fact source once and returns the snapshot.
	// It never fails: unavailable facts are recorded in HostFacts.Failures.
	Collect(ctx context.Context) *HostFacts

	// Name returns the collector name for logging
	Name() string
}

// Sources is one backend's set of fact readers, one method per fact family.
// Returned errors should be *FactError; anything else is treated as
// ErrSourceUnavailable.
type Sources interface {
	OSName(ctx context.Context) (string, error)
	Kernel(ctx context.Context) (string, error)
	Architecture(ctx context.Context) (Architecture, error)
	ProcessorCount(ctx context.Context) (int, error)
	Memory(ctx context.Context) (MemoryReading, error)
	VirtualMemory(ctx context.Context) (VirtualMemory, error)
	LoadAverage(ctx context.Context) ([]float64, error)
	Drives(ctx context.Context) ([]DriveInfo, error)

	// Hostname and Username are the primary identity lookups; the
	// collector falls back to generic lookups when they fail
	Hostname() (string, error)
	Username() (string, error)
}

// Options configures where the backends read from
type Options struct {
	ProcPath           string   // root of the proc filesystem, "/proc" unless containerised
	EtcPath            string   // root of /etc
	AllowedFilesystems []string // mount table allow-list
	ExporterURL        string   // only used by the exporter source
}

// NewCollector creates the appropriate collector based on configuration
func NewCollector(source string, opts Options, logger *zap.Logger, httpClient *http.Client) (Collector, error) {
	source = strings.ToLower(source)
	if source == "" {
		source = "native" // Default
	}

	switch source {
	case "native":
		logger.Debug("Using native facts collector", zap.String("platform", runtime.GOOS))
		return NewSourceCollector("native ("+runtime.GOOS+")", newNativeSources(opts, logger), logger), nil
	case "gopsutil":
		logger.Debug("Using gopsutil facts collector")
		return NewSourceCollector("gopsutil", newGopsutilSources(opts, logger), logger), nil
	case "exporter":
		if opts.ExporterURL == "" {
			return nil, fmt.Errorf("exporter_url required for exporter source")
		}
		logger.Debug("Using exporter facts collector", zap.String("url", opts.ExporterURL))
		return NewExporterCollector(opts.ExporterURL, opts.AllowedFilesystems, logger, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown facts source: %s", source)
	}
}

// SourceCollector assembles a snapshot from a fixed Sources backend
type SourceCollector struct {
	name    string
	sources Sources
	logger  *zap.Logger
}

// NewSourceCollector creates a collector over the given sources
func NewSourceCollector(name string, sources Sources, logger *zap.Logger) *SourceCollector {
	return &SourceCollector{
		name:    name,
		sources: sources,
		logger:  logger,
	}
}

func (c *SourceCollector) Name() string {
	return c.name
}

func (c *SourceCollector) Collect(ctx context.Context) *HostFacts {
	return assemble(ctx, c.sources, c.logger)
}

// assemble runs one linear pass over all sources. No family depends on
// another, and each failure is contained to its own family.
func assemble(ctx context.Context, src Sources, logger *zap.Logger) *HostFacts {
	f := &HostFacts{
		Failures:    make(map[Family]error),
		CollectedAt: time.Now().UTC(),
	}

	// failed records err against family and reports whether the family is absent
	failed := func(family Family, err error) bool {
		if err == nil {
			return false
		}
		if errors.Is(err, ErrNotSupported) {
			logger.Debug("Fact family not supported", zap.String("family", string(family)))
			return true
		}
		var factErr *FactError
		if !errors.As(err, &factErr) {
			err = unavailable(family, err)
		}
		logger.Warn("Failed to collect facts",
			zap.String("family", string(family)),
			zap.Error(err))
		f.Failures[family] = err
		return true
	}

	// Collect OS identity
	f.OSName = "Unknown"
	if name, err := src.OSName(ctx); !failed(FamilyOS, err) {
		f.OSName = OSLabel(name, "")
	}

	f.Kernel = "Unknown"
	if kernel, err := src.Kernel(ctx); !failed(FamilyKernel, err) && kernel != "" {
		f.Kernel = kernel
	}

	f.Architecture = ArchUnknown
	if arch, err := src.Architecture(ctx); !failed(FamilyArchitecture, err) && arch != "" {
		f.Architecture = arch
	}

	f.Hostname = Resolve(src.Hostname, genericHostname)
	f.Username = Resolve(src.Username, genericUsername, envUsername)

	// Collect processor count, the runtime's view is the fallback
	f.ProcessorCount = runtime.NumCPU()
	if count, err := src.ProcessorCount(ctx); !failed(FamilyProcessors, err) && count > 0 {
		f.ProcessorCount = count
	}
	if f.ProcessorCount < 1 {
		f.ProcessorCount = 1
	}

	// Collect memory information
	if reading, err := src.Memory(ctx); !failed(FamilyMemory, err) {
		mem := clampMemory(reading.Memory)
		f.Memory = &mem
		f.Swap = reading.Swap
		f.VirtualMemoryMB = reading.VirtualMemoryMB
		f.MemoryLoadPercent = reading.LoadPercent
	}

	// Collect pagefile / commit information
	if vm, err := src.VirtualMemory(ctx); !failed(FamilyVirtualMemory, err) {
		total, used := vm.TotalMB, vm.UsedMB
		f.VirtualMemoryMB = &total
		f.CommitUsedMB = &used
	}

	// Collect load average
	if loads, err := src.LoadAverage(ctx); !failed(FamilyLoad, err) {
		if len(loads) > 3 {
			loads = loads[:3]
		}
		f.LoadAverage = loads
	}

	// Collect drive information
	if drives, err := src.Drives(ctx); !failed(FamilyDrives, err) {
		f.Drives = dedupDrives(drives)
	}

	return f
}
