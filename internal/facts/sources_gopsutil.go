package facts

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// gopsutilSources reads facts through gopsutil. It is the native backend on
// platforms without a dedicated one and can be selected anywhere.
type gopsutilSources struct {
	allowed []string
	logger  *zap.Logger
}

func newGopsutilSources(opts Options, logger *zap.Logger) Sources {
	return &gopsutilSources{
		allowed: opts.AllowedFilesystems,
		logger:  logger,
	}
}

func (s *gopsutilSources) OSName(ctx context.Context) (string, error) {
	platform, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		return "", unavailable(FamilyOS, err)
	}
	return OSLabel(platform, version), nil
}

func (s *gopsutilSources) Kernel(ctx context.Context) (string, error) {
	version, err := host.KernelVersionWithContext(ctx)
	if err != nil {
		return "", unavailable(FamilyKernel, err)
	}
	return strings.TrimSpace(osFamilyName() + " " + version), nil
}

func osFamilyName() string {
	switch runtime.GOOS {
	case "darwin":
		return "Darwin"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	default:
		return runtime.GOOS
	}
}

func (s *gopsutilSources) Architecture(ctx context.Context) (Architecture, error) {
	machine, err := host.KernelArch()
	if err != nil || machine == "" {
		// The build target is the best remaining guess
		return ArchitectureFromMachine(runtime.GOARCH), nil
	}
	return ArchitectureFromMachine(machine), nil
}

func (s *gopsutilSources) ProcessorCount(ctx context.Context) (int, error) {
	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, unavailable(FamilyProcessors, err)
	}
	return count, nil
}

func (s *gopsutilSources) Memory(ctx context.Context) (MemoryReading, error) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryReading{}, unavailable(FamilyMemory, err)
	}

	reading := MemoryReading{
		Memory: clampMemory(Memory{
			TotalMB:     BytesToMB(vmem.Total),
			AvailableMB: BytesToMB(vmem.Available),
		}),
	}
	if vmem.VmallocTotal > 0 {
		vmalloc := BytesToMB(vmem.VmallocTotal)
		reading.VirtualMemoryMB = &vmalloc
	}

	// Swap is optional within the family
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		free := swap.Free
		if free > swap.Total {
			free = swap.Total
		}
		reading.Swap = &Swap{
			TotalMB: BytesToMB(swap.Total),
			FreeMB:  BytesToMB(free),
		}
	} else {
		s.logger.Debug("Could not get swap memory", zap.Error(err))
	}

	return reading, nil
}

func (s *gopsutilSources) VirtualMemory(ctx context.Context) (VirtualMemory, error) {
	return VirtualMemory{}, notSupported(FamilyVirtualMemory)
}

func (s *gopsutilSources) LoadAverage(ctx context.Context) ([]float64, error) {
	// gopsutil only emulates load on Windows after a warm-up period
	if runtime.GOOS == "windows" {
		return nil, notSupported(FamilyLoad)
	}

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, unavailable(FamilyLoad, err)
	}
	return []float64{avg.Load1, avg.Load5, avg.Load15}, nil
}

// Drives lists physical partitions; the filesystem allow-list applies on
// Linux only, where gopsutil would otherwise report bind and pseudo mounts
func (s *gopsutilSources) Drives(ctx context.Context) ([]DriveInfo, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false) // false = physical only
	if err != nil {
		return nil, unavailable(FamilyDrives, err)
	}

	allowed := make(map[string]bool, len(s.allowed))
	for _, fstype := range s.allowed {
		allowed[fstype] = true
	}

	var mounts []Mount
	seen := make(map[string]bool)
	for _, p := range partitions {
		if runtime.GOOS == "linux" && !allowed[p.Fstype] {
			continue
		}
		mountpoint := normalizeDriveName(p.Mountpoint)
		if seen[mountpoint] {
			continue
		}
		seen[mountpoint] = true
		mounts = append(mounts, Mount{Device: p.Device, MountPoint: p.Mountpoint, Filesystem: p.Fstype})
	}

	capacity := func(path string) (uint64, uint64, error) {
		usage, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			return 0, 0, err
		}
		return usage.Free, usage.Total, nil
	}

	drives := mountDrives(mounts, capacity, s.logger)
	for i := range drives {
		drives[i].Mount = normalizeDriveName(drives[i].Mount)
	}
	return drives, nil
}

func (s *gopsutilSources) Hostname() (string, error) {
	info, err := host.Info()
	if err != nil {
		return "", err
	}
	return info.Hostname, nil
}

// Username has no gopsutil source; the generic lookups take over
func (s *gopsutilSources) Username() (string, error) {
	return "", ErrNotSupported
}
