package facts

import (
	"fmt"
	"strings"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// KBToMB converts kilobytes to megabytes by integer division
func KBToMB(kb uint64) uint64 {
	return kb / 1024
}

// BytesToMB converts bytes to megabytes by integer division
func BytesToMB(b uint64) uint64 {
	return b / bytesPerMB
}

// BytesToGB converts bytes to gigabytes as a float
func BytesToGB(b uint64) float64 {
	return float64(b) / bytesPerGB
}

// PagesToMB converts a page count to megabytes
func PagesToMB(pages, pageSize uint64) uint64 {
	return pages * pageSize / bytesPerMB
}

// OSLabel joins a distribution name and version, "Unknown" when both are empty
func OSLabel(name, version string) string {
	label := strings.TrimSpace(name + " " + version)
	if label == "" {
		return "Unknown"
	}
	return label
}

// MemoryFromMeminfo converts parsed /proc/meminfo values (kB) into the memory family.
// MemAvailable falls back to MemFree on kernels older than 3.14.
func MemoryFromMeminfo(values map[string]uint64) (MemoryReading, error) {
	total, ok := values["MemTotal"]
	if !ok {
		return MemoryReading{}, anomaly(FamilyMemory, "MemTotal not found")
	}

	available, ok := values["MemAvailable"]
	if !ok {
		available, ok = values["MemFree"]
		if !ok {
			return MemoryReading{}, anomaly(FamilyMemory, "neither MemAvailable nor MemFree found")
		}
	}

	reading := MemoryReading{
		Memory: clampMemory(Memory{
			TotalMB:     KBToMB(total),
			AvailableMB: KBToMB(available),
		}),
	}

	if swapTotal, ok := values["SwapTotal"]; ok {
		swapFree := values["SwapFree"]
		if swapFree > swapTotal {
			swapFree = swapTotal
		}
		reading.Swap = &Swap{
			TotalMB: KBToMB(swapTotal),
			FreeMB:  KBToMB(swapFree),
		}
	}

	if vmalloc, ok := values["VmallocTotal"]; ok {
		mb := KBToMB(vmalloc)
		reading.VirtualMemoryMB = &mb
	}

	return reading, nil
}

// memoryFromStatus converts a filled MEMORYSTATUSEX record into the memory family
func memoryFromStatus(rec memoryStatusEx) MemoryReading {
	load := rec.MemoryLoad
	pagefile := BytesToMB(rec.TotalPageFile)

	return MemoryReading{
		Memory: clampMemory(Memory{
			TotalMB:     BytesToMB(rec.TotalPhys),
			AvailableMB: BytesToMB(rec.AvailPhys),
		}),
		VirtualMemoryMB: &pagefile,
		LoadPercent:     &load,
	}
}

// virtualMemoryFromPerformance converts a filled PERFORMANCE_INFORMATION
// record. Commit values are in pages.
func virtualMemoryFromPerformance(rec performanceInformation) VirtualMemory {
	pageSize := uint64(rec.PageSize)
	return VirtualMemory{
		TotalMB: PagesToMB(uint64(rec.CommitLimit), pageSize),
		UsedMB:  PagesToMB(uint64(rec.CommitTotal), pageSize),
	}
}

// Native processor architecture codes (wProcessorArchitecture)
const (
	processorArchitectureIntel = 0
	processorArchitectureAMD64 = 9
	processorArchitectureARM64 = 12
)

// ArchitectureFromCode maps a native system-info architecture code
func ArchitectureFromCode(code uint16) Architecture {
	switch code {
	case processorArchitectureAMD64:
		return ArchX64
	case processorArchitectureIntel:
		return ArchX86
	case processorArchitectureARM64:
		return ArchARM64
	default:
		return ArchUnknown
	}
}

// ArchitectureFromMachine maps a uname machine string or GOARCH value
func ArchitectureFromMachine(machine string) Architecture {
	switch strings.ToLower(strings.TrimSpace(machine)) {
	case "x86_64", "amd64", "x64":
		return ArchX64
	case "i386", "i486", "i586", "i686", "x86", "386":
		return ArchX86
	case "aarch64", "arm64", "aarch64_be", "armv8b", "armv8l":
		return ArchARM64
	default:
		return ArchUnknown
	}
}

// WindowsRelease turns RtlGetVersion numbers into the short release name
// ("11", "10", "8.1", "8", "7") or "major.minor" for anything else
func WindowsRelease(major, minor, build uint32) string {
	switch {
	case major == 10 && build >= 22000:
		return "11"
	case major == 10:
		return "10"
	case major == 6 && minor == 3:
		return "8.1"
	case major == 6 && minor == 2:
		return "8"
	case major == 6 && minor == 1:
		return "7"
	default:
		return fmt.Sprintf("%d.%d", major, minor)
	}
}

// WindowsVersionBand maps a release string onto a named version band
func WindowsVersionBand(release string) string {
	switch {
	case strings.Contains(release, "10") || strings.Contains(release, "11"):
		return "Windows 10 or Greater"
	case release == "8.1":
		return "Windows 8.1"
	case release == "8":
		return "Windows 8"
	case release == "7":
		return "Windows 7"
	default:
		return fmt.Sprintf("Older than Windows 7 (%s)", release)
	}
}

func clampMemory(m Memory) Memory {
	if m.AvailableMB > m.TotalMB {
		m.AvailableMB = m.TotalMB
	}
	return m
}

// newDrive builds a DriveInfo from byte counts
func newDrive(mount, filesystem string, freeBytes, totalBytes uint64) DriveInfo {
	if freeBytes > totalBytes {
		freeBytes = totalBytes
	}
	return DriveInfo{
		Mount:      mount,
		Filesystem: filesystem,
		FreeGB:     BytesToGB(freeBytes),
		TotalGB:    BytesToGB(totalBytes),
	}
}

// dedupDrives drops entries whose mount identity was already seen, keeping the first
func dedupDrives(drives []DriveInfo) []DriveInfo {
	seen := make(map[string]bool, len(drives))
	out := drives[:0:0]
	for _, d := range drives {
		if seen[d.Mount] {
			continue
		}
		seen[d.Mount] = true
		if d.FreeGB > d.TotalGB {
			d.FreeGB = d.TotalGB
		}
		out = append(out, d)
	}
	return out
}

// normalizeDriveName returns consistent drive names across platforms.
// Windows roots "C:\" become "C:", mount points are kept as-is.
func normalizeDriveName(mount string) string {
	if len(mount) >= 2 && mount[1] == ':' && len(mount) <= 3 {
		return mount[:2]
	}
	return mount
}
