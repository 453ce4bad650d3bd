//go:build windows

package facts

import (
	"context"
	"fmt"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")
	modpsapi    = windows.NewLazySystemDLL("psapi.dll")
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	procGlobalMemoryStatusEx = modkernel32.NewProc("GlobalMemoryStatusEx")
	procGetNativeSystemInfo  = modkernel32.NewProc("GetNativeSystemInfo")
	procGetPerformanceInfo   = modpsapi.NewProc("GetPerformanceInfo")
	procGetUserNameW         = modadvapi32.NewProc("GetUserNameW")
)

// windowsSources reads facts through the Win32 API
type windowsSources struct {
	logger *zap.Logger
}

func newNativeSources(opts Options, logger *zap.Logger) Sources {
	return &windowsSources{logger: logger}
}

// OSName maps the OS release onto a named version band
func (s *windowsSources) OSName(ctx context.Context) (string, error) {
	v := windows.RtlGetVersion()
	if v == nil || v.MajorVersion == 0 {
		return "", unavailable(FamilyOS, fmt.Errorf("RtlGetVersion returned no version"))
	}
	return WindowsVersionBand(WindowsRelease(v.MajorVersion, v.MinorVersion, v.BuildNumber)), nil
}

func (s *windowsSources) Kernel(ctx context.Context) (string, error) {
	v := windows.RtlGetVersion()
	if v == nil || v.MajorVersion == 0 {
		return "", unavailable(FamilyKernel, fmt.Errorf("RtlGetVersion returned no version"))
	}
	return fmt.Sprintf("Windows %d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber), nil
}

// nativeSystemInfo calls GetNativeSystemInfo, which reports the real
// architecture even to a 32-bit process under WOW64
func nativeSystemInfo() (systemInfo, error) {
	var si systemInfo
	if err := procGetNativeSystemInfo.Find(); err != nil {
		return si, err
	}
	procGetNativeSystemInfo.Call(uintptr(unsafe.Pointer(&si)))
	return si, nil
}

func (s *windowsSources) Architecture(ctx context.Context) (Architecture, error) {
	si, err := nativeSystemInfo()
	if err != nil {
		return ArchUnknown, unavailable(FamilyArchitecture, err)
	}
	return ArchitectureFromCode(si.ProcessorArchitecture), nil
}

func (s *windowsSources) ProcessorCount(ctx context.Context) (int, error) {
	si, err := nativeSystemInfo()
	if err != nil {
		return 0, unavailable(FamilyProcessors, err)
	}
	return int(si.NumberOfProcessors), nil
}

// Memory calls GlobalMemoryStatusEx
func (s *windowsSources) Memory(ctx context.Context) (MemoryReading, error) {
	if err := procGlobalMemoryStatusEx.Find(); err != nil {
		return MemoryReading{}, unavailable(FamilyMemory, err)
	}

	rec := newMemoryStatusEx()
	r, _, callErr := procGlobalMemoryStatusEx.Call(uintptr(unsafe.Pointer(&rec)))
	if r == 0 {
		return MemoryReading{}, unavailable(FamilyMemory, fmt.Errorf("GlobalMemoryStatusEx: %w", callErr))
	}

	return memoryFromStatus(rec), nil
}

// VirtualMemory calls GetPerformanceInfo for the commit limit and charge
func (s *windowsSources) VirtualMemory(ctx context.Context) (VirtualMemory, error) {
	if err := procGetPerformanceInfo.Find(); err != nil {
		return VirtualMemory{}, unavailable(FamilyVirtualMemory, err)
	}

	rec := newPerformanceInformation()
	r, _, callErr := procGetPerformanceInfo.Call(uintptr(unsafe.Pointer(&rec)), uintptr(rec.Cb))
	if r == 0 {
		return VirtualMemory{}, unavailable(FamilyVirtualMemory, fmt.Errorf("GetPerformanceInfo: %w", callErr))
	}

	return virtualMemoryFromPerformance(rec), nil
}

// LoadAverage has no Windows equivalent
func (s *windowsSources) LoadAverage(ctx context.Context) ([]float64, error) {
	return nil, notSupported(FamilyLoad)
}

// Drives enumerates logical drives and queries each one
func (s *windowsSources) Drives(ctx context.Context) ([]DriveInfo, error) {
	n, err := windows.GetLogicalDriveStrings(0, nil)
	if err != nil {
		return nil, unavailable(FamilyDrives, fmt.Errorf("GetLogicalDriveStrings: %w", err))
	}
	if n == 0 {
		return nil, nil
	}

	for attempt := 0; attempt < maxDriveStringsAttempts; attempt++ {
		buf := make([]uint16, n+1)
		n, err = windows.GetLogicalDriveStrings(uint32(len(buf)), &buf[0])
		if err != nil {
			return nil, unavailable(FamilyDrives, fmt.Errorf("GetLogicalDriveStrings: %w", err))
		}
		if filled, ok := filledDriveStrings(buf, n); ok {
			roots := splitDriveStrings(filled)
			return volumeDrives(roots, diskFreeSpace, volumeFilesystem), nil
		}
	}
	return nil, unavailable(FamilyDrives, fmt.Errorf("GetLogicalDriveStrings: drive list changed during %d attempts", maxDriveStringsAttempts))
}

const maxDriveStringsAttempts = 3

// diskFreeSpace returns bytes available to the caller and total bytes
func diskFreeSpace(root string) (uint64, uint64, error) {
	path, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return 0, 0, err
	}

	var freeToCaller, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(path, &freeToCaller, &total, &totalFree); err != nil {
		return 0, 0, err
	}
	return freeToCaller, total, nil
}

// volumeFilesystem returns the filesystem name ("NTFS", "FAT32") or "" when
// the volume has no media
func volumeFilesystem(root string) string {
	path, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return ""
	}

	var fsName [windows.MAX_PATH + 1]uint16
	if err := windows.GetVolumeInformation(path, nil, 0, nil, nil, nil, &fsName[0], uint32(len(fsName))); err != nil {
		return ""
	}
	return windows.UTF16ToString(fsName[:])
}

// Hostname calls GetComputerNameW
func (s *windowsSources) Hostname() (string, error) {
	buf := make([]uint16, 256)
	n := uint32(len(buf))
	if err := windows.GetComputerName(&buf[0], &n); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// Username calls GetUserNameW
func (s *windowsSources) Username() (string, error) {
	if err := procGetUserNameW.Find(); err != nil {
		return "", err
	}

	buf := make([]uint16, 257) // UNLEN + 1
	n := uint32(len(buf))
	r, _, err := procGetUserNameW.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&n)))
	if r == 0 {
		return "", fmt.Errorf("GetUserNameW: %w", err)
	}
	return windows.UTF16ToString(buf), nil
}
