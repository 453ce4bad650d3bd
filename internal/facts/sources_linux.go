//go:build linux

package facts

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// linuxSources reads facts from procfs, os-release, uname and statfs
type linuxSources struct {
	procPath string
	etcPath  string
	allowed  []string
	logger   *zap.Logger
}

func newNativeSources(opts Options, logger *zap.Logger) Sources {
	procPath := opts.ProcPath
	if procPath == "" {
		procPath = "/proc"
	}
	etcPath := opts.EtcPath
	if etcPath == "" {
		etcPath = "/etc"
	}

	return &linuxSources{
		procPath: procPath,
		etcPath:  etcPath,
		allowed:  opts.AllowedFilesystems,
		logger:   logger,
	}
}

// OSName reads NAME and VERSION from os-release
func (s *linuxSources) OSName(ctx context.Context) (string, error) {
	path := filepath.Join(s.etcPath, "os-release")
	file, err := os.Open(path)
	if err != nil {
		return "", unavailable(FamilyOS, err)
	}
	defer file.Close()

	info, err := ParseOSRelease(file)
	if err != nil {
		return "", err
	}

	return OSLabel(info["NAME"], info["VERSION"]), nil
}

// Kernel returns "<sysname> <release>" from uname
func (s *linuxSources) Kernel(ctx context.Context) (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", unavailable(FamilyKernel, err)
	}

	sysname := unix.ByteSliceToString(uts.Sysname[:])
	release := unix.ByteSliceToString(uts.Release[:])
	return strings.TrimSpace(sysname + " " + release), nil
}

func (s *linuxSources) Architecture(ctx context.Context) (Architecture, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ArchUnknown, unavailable(FamilyArchitecture, err)
	}
	return ArchitectureFromMachine(unix.ByteSliceToString(uts.Machine[:])), nil
}

// ProcessorCount counts the host's logical CPUs from stat, falling back to
// the CPUs this process may run on
func (s *linuxSources) ProcessorCount(ctx context.Context) (int, error) {
	if file, err := os.Open(filepath.Join(s.procPath, "stat")); err == nil {
		count, err := ParseStatCPUs(file)
		file.Close()
		if err == nil {
			return count, nil
		}
		s.logger.Debug("Failed to count CPUs from stat", zap.Error(err))
	}

	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, unavailable(FamilyProcessors, err)
	}
	return set.Count(), nil
}

// Memory retrieves memory information from meminfo
func (s *linuxSources) Memory(ctx context.Context) (MemoryReading, error) {
	file, err := os.Open(filepath.Join(s.procPath, "meminfo"))
	if err != nil {
		return MemoryReading{}, unavailable(FamilyMemory, err)
	}
	defer file.Close()

	values, err := ParseMeminfo(file)
	if err != nil {
		return MemoryReading{}, err
	}

	return MemoryFromMeminfo(values)
}

// VirtualMemory has no separate source on Linux; vmalloc comes with meminfo
func (s *linuxSources) VirtualMemory(ctx context.Context) (VirtualMemory, error) {
	return VirtualMemory{}, notSupported(FamilyVirtualMemory)
}

func (s *linuxSources) LoadAverage(ctx context.Context) ([]float64, error) {
	file, err := os.Open(filepath.Join(s.procPath, "loadavg"))
	if err != nil {
		return nil, unavailable(FamilyLoad, err)
	}
	defer file.Close()

	return ParseLoadavg(file)
}

// Drives retrieves capacity for mounted filesystems in the allow-list
func (s *linuxSources) Drives(ctx context.Context) ([]DriveInfo, error) {
	file, err := os.Open(filepath.Join(s.procPath, "mounts"))
	if err != nil {
		return nil, unavailable(FamilyDrives, err)
	}
	defer file.Close()

	mounts, err := ParseMounts(file, s.allowed)
	if err != nil {
		return nil, err
	}

	return mountDrives(mounts, statfsCapacity, s.logger), nil
}

// statfsCapacity returns free and total bytes: blocks times fragment size,
// free counting only blocks available to unprivileged users
func statfsCapacity(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}

	frsize := uint64(stat.Frsize)
	if frsize == 0 {
		frsize = uint64(stat.Bsize)
	}
	return stat.Bavail * frsize, stat.Blocks * frsize, nil
}

// Hostname reads the kernel hostname from procfs
func (s *linuxSources) Hostname() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.procPath, "sys/kernel/hostname"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Username looks up the real uid in the user database
func (s *linuxSources) Username() (string, error) {
	u, err := user.LookupId(strconv.Itoa(os.Getuid()))
	if err != nil {
		return "", err
	}
	return u.Username, nil
}
