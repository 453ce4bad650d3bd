package facts

import (
	"sort"
	"time"

	"go.uber.org/multierr"
)

// HostFacts represents a complete host facts snapshot
// This structure is shared across all platforms and is never modified after Collect returns
type HostFacts struct {
	OSName       string       // "Ubuntu 22.04.3 LTS", "Windows 10 or Greater", "Unknown"
	Kernel       string       // "Linux 6.8.0-45-generic", "Windows 10.0.22631"
	Architecture Architecture // x86, x64, arm64 or unknown
	Hostname     string
	Username     string

	Memory            *Memory   // nil when the memory family failed
	Swap              *Swap     // nil on platforms without swap
	VirtualMemoryMB   *uint64   // Linux: vmalloc address space. Windows: commit limit
	CommitUsedMB      *uint64   // Windows only: current commit charge
	MemoryLoadPercent *uint32   // Windows only: reported directly by the OS
	ProcessorCount    int       // Logical processors, always >= 1
	LoadAverage       []float64 // 1/5/15 minute averages, nil where the concept is absent

	Drives []DriveInfo

	// Failures holds one error per fact family that could not be collected.
	// Families the platform does not support are absent without a failure.
	Failures map[Family]error

	CollectedAt time.Time
}

// Memory contains physical memory in MB
type Memory struct {
	TotalMB     uint64
	AvailableMB uint64
}

// Swap contains swap space in MB
type Swap struct {
	TotalMB uint64
	FreeMB  uint64
}

// VirtualMemory is the result of the pagefile family
type VirtualMemory struct {
	TotalMB uint64
	UsedMB  uint64
}

// DriveInfo contains information about a single mounted drive or volume
type DriveInfo struct {
	Mount      string  // Mount point (Unix: "/", "/home") or drive letter (Windows: "C:")
	Filesystem string  // "ext4", "NTFS", ...
	FreeGB     float64 // Space available to unprivileged users in GB
	TotalGB    float64 // Total capacity in GB
	Err        error   // Set when this volume could not be queried
}

// MemoryReading is the result of the memory family before it is spread over HostFacts
type MemoryReading struct {
	Memory          Memory
	Swap            *Swap
	VirtualMemoryMB *uint64
	LoadPercent     *uint32
}

// Architecture is the CPU architecture of the host
type Architecture string

const (
	ArchX86     Architecture = "x86"
	ArchX64     Architecture = "x64"
	ArchARM64   Architecture = "arm64"
	ArchUnknown Architecture = "unknown"
)

// Family identifies a group of facts read from one source
type Family string

const (
	FamilyOS            Family = "os"
	FamilyKernel        Family = "kernel"
	FamilyArchitecture  Family = "architecture"
	FamilyProcessors    Family = "processors"
	FamilyMemory        Family = "memory"
	FamilyVirtualMemory Family = "virtual_memory"
	FamilyLoad          Family = "load"
	FamilyDrives        Family = "drives"
)

// Families lists every fact family in reporting order
func Families() []Family {
	return []Family{
		FamilyOS,
		FamilyKernel,
		FamilyArchitecture,
		FamilyProcessors,
		FamilyMemory,
		FamilyVirtualMemory,
		FamilyLoad,
		FamilyDrives,
	}
}

// Failure returns the error recorded for a family, or nil
func (f *HostFacts) Failure(family Family) error {
	return f.Failures[family]
}

// Err combines all recorded failures in family order
func (f *HostFacts) Err() error {
	families := make([]string, 0, len(f.Failures))
	for family := range f.Failures {
		families = append(families, string(family))
	}
	sort.Strings(families)

	var err error
	for _, family := range families {
		err = multierr.Append(err, f.Failures[Family(family)])
	}
	return err
}

// Platform-specific sources:
// - Linux:   internal/facts/sources_linux.go
// - Windows: internal/facts/sources_windows.go
// - Other:   internal/facts/sources_other.go (gopsutil)
