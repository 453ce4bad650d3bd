package facts

import (
	"unicode/utf16"
	"unsafe"
)

// Fixed-layout records filled by the Windows system calls. Field order and
// widths follow the Win32 definitions; SIZE_T and pointer fields are uintptr.
// They live outside the windows build so the conversions can be tested anywhere.

// memoryStatusEx is MEMORYSTATUSEX, filled by GlobalMemoryStatusEx
type memoryStatusEx struct {
	Length               uint32 // must hold the record size before the call
	MemoryLoad           uint32 // percent of physical memory in use
	TotalPhys            uint64
	AvailPhys            uint64
	TotalPageFile        uint64
	AvailPageFile        uint64
	TotalVirtual         uint64
	AvailVirtual         uint64
	AvailExtendedVirtual uint64
}

// performanceInformation is PERFORMANCE_INFORMATION, filled by GetPerformanceInfo.
// Commit and physical values are page counts.
type performanceInformation struct {
	Cb                uint32 // must hold the record size before the call
	CommitTotal       uintptr
	CommitLimit       uintptr
	CommitPeak        uintptr
	PhysicalTotal     uintptr
	PhysicalAvailable uintptr
	SystemCache       uintptr
	KernelTotal       uintptr
	KernelPaged       uintptr
	KernelNonpaged    uintptr
	PageSize          uintptr
	HandleCount       uint32
	ProcessCount      uint32
	ThreadCount       uint32
}

// systemInfo is SYSTEM_INFO, filled by GetNativeSystemInfo
type systemInfo struct {
	ProcessorArchitecture     uint16
	Reserved                  uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	ActiveProcessorMask       uintptr
	NumberOfProcessors        uint32
	ProcessorType             uint32
	AllocationGranularity     uint32
	ProcessorLevel            uint16
	ProcessorRevision         uint16
}

// newMemoryStatusEx returns a record ready to pass to GlobalMemoryStatusEx.
// The API rejects the call unless Length is set first.
func newMemoryStatusEx() memoryStatusEx {
	var rec memoryStatusEx
	rec.Length = uint32(unsafe.Sizeof(rec))
	return rec
}

// newPerformanceInformation returns a record ready to pass to GetPerformanceInfo.
// Cb must be set first and is also passed as the size argument.
func newPerformanceInformation() performanceInformation {
	var rec performanceInformation
	rec.Cb = uint32(unsafe.Sizeof(rec))
	return rec
}

// splitDriveStrings splits the NUL separated, double NUL terminated buffer
// returned by GetLogicalDriveStrings into root paths ("C:\", "D:\")
func splitDriveStrings(buf []uint16) []string {
	var roots []string
	start := 0
	for i, c := range buf {
		if c != 0 {
			continue
		}
		if i == start {
			break
		}
		roots = append(roots, string(utf16.Decode(buf[start:i])))
		start = i + 1
	}
	return roots
}

// filledDriveStrings returns the filled part of buf once GetLogicalDriveStrings
// reported n characters written. A drive mounted between the sizing call and
// the fill call makes n the larger size now required; ok is false then.
func filledDriveStrings(buf []uint16, n uint32) ([]uint16, bool) {
	if uint64(n) >= uint64(len(buf)) {
		return nil, false
	}
	return buf[:n+1], true
}
