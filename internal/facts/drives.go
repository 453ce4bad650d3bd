package facts

import (
	"go.uber.org/zap"
)

// capacityFunc returns free and total bytes for a mount point or volume root
type capacityFunc func(path string) (freeBytes, totalBytes uint64, err error)

// mountDrives queries capacity for each surviving mount. A mount whose
// capacity cannot be read is skipped and the rest are still queried.
func mountDrives(mounts []Mount, capacity capacityFunc, logger *zap.Logger) []DriveInfo {
	drives := make([]DriveInfo, 0, len(mounts))
	for _, m := range mounts {
		free, total, err := capacity(m.MountPoint)
		if err != nil {
			logger.Debug("Could not get filesystem capacity",
				zap.String("mountpoint", m.MountPoint),
				zap.Error(err))
			continue
		}
		drives = append(drives, newDrive(m.MountPoint, m.Filesystem, free, total))
	}
	return drives
}

// volumeDrives queries capacity for each volume root. A volume whose query
// fails is kept as an entry carrying the error.
func volumeDrives(roots []string, capacity capacityFunc, filesystem func(root string) string) []DriveInfo {
	drives := make([]DriveInfo, 0, len(roots))
	for _, root := range roots {
		name := normalizeDriveName(root)

		free, total, err := capacity(root)
		if err != nil {
			drives = append(drives, DriveInfo{
				Mount: name,
				Err:   unavailable(FamilyDrives, err),
			})
			continue
		}

		drives = append(drives, newDrive(name, filesystem(root), free, total))
	}
	return drives
}
