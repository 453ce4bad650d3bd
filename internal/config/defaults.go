package config

import (
	"runtime"
)

// PlatformDefaults returns platform-specific default values
type PlatformDefaults struct {
	ConfigPath         string
	ExporterURL        string
	ProcPath           string
	EtcPath            string
	AllowedFilesystems []string
}

// linuxFilesystems are the disk-backed filesystems reported by default.
// Pseudo, network and overlay filesystems are left out.
var linuxFilesystems = []string{
	"ext2", "ext3", "ext4",
	"xfs", "btrfs", "zfs", "f2fs",
	"vfat", "exfat", "ntfs", "ntfs3", "fuseblk",
}

// GetPlatformDefaults returns platform-specific defaults based on runtime.GOOS
func GetPlatformDefaults() PlatformDefaults {
	switch runtime.GOOS {
	case "windows":
		return PlatformDefaults{
			ConfigPath:  `C:\ProgramData\hostfacts\config.yaml`,
			ExporterURL: "http://localhost:9182/metrics", // windows_exporter
			// Volumes are enumerated by drive letter, the list only filters exporter output
			AllowedFilesystems: []string{"NTFS", "ReFS", "FAT32", "exFAT"},
		}
	case "linux":
		return PlatformDefaults{
			ConfigPath:         "/etc/hostfacts/config.yaml",
			ExporterURL:        "http://localhost:9100/metrics", // node_exporter
			ProcPath:           "/proc",
			EtcPath:            "/etc",
			AllowedFilesystems: linuxFilesystems,
		}
	case "freebsd":
		return PlatformDefaults{
			ConfigPath:         "/usr/local/etc/hostfacts/config.yaml",
			ExporterURL:        "http://localhost:9100/metrics", // node_exporter
			AllowedFilesystems: []string{"ufs", "zfs", "msdosfs"},
		}
	default:
		// Fallback to Linux-like defaults for unknown platforms
		return PlatformDefaults{
			ConfigPath:         "/etc/hostfacts/config.yaml",
			ExporterURL:        "http://localhost:9100/metrics",
			AllowedFilesystems: linuxFilesystems,
		}
	}
}

// GetDefaultConfigPath returns the platform-specific default config path
func GetDefaultConfigPath() string {
	return GetPlatformDefaults().ConfigPath
}

// UpdateConfigDefaults updates viper defaults with platform-specific values
// This is called from setDefaults() in config.go
func UpdateConfigDefaults(v interface{}) {
	type viper interface {
		SetDefault(key string, value interface{})
	}

	if viperInstance, ok := v.(viper); ok {
		defaults := GetPlatformDefaults()

		// Update platform-specific defaults
		viperInstance.SetDefault("collector.exporter_url", defaults.ExporterURL)
		viperInstance.SetDefault("paths.proc", defaults.ProcPath)
		viperInstance.SetDefault("paths.etc", defaults.EtcPath)
		viperInstance.SetDefault("drives.allowed_filesystems", defaults.AllowedFilesystems)
	}
}
