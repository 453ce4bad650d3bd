package facts

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

var errPermission = errors.New("permission denied")

// TestMountDrives_SkipsFailedMount tests that one unreadable mount does not stop the rest
func TestMountDrives_SkipsFailedMount(t *testing.T) {
	logger := zap.NewNop()

	mounts := []Mount{
		{Device: "/dev/sda1", MountPoint: "/", Filesystem: "ext4"},
		{Device: "/dev/sdb1", MountPoint: "/secret", Filesystem: "xfs"},
		{Device: "/dev/sdc1", MountPoint: "/data", Filesystem: "btrfs"},
	}

	capacity := func(path string) (uint64, uint64, error) {
		if path == "/secret" {
			return 0, 0, errPermission
		}
		return 100 << 30, 500 << 30, nil
	}

	drives := mountDrives(mounts, capacity, logger)

	if len(drives) != 2 {
		t.Fatalf("Expected 2 drives, got %d: %+v", len(drives), drives)
	}
	if drives[0].Mount != "/" || drives[1].Mount != "/data" {
		t.Errorf("Unexpected mounts: %s, %s", drives[0].Mount, drives[1].Mount)
	}
	if drives[1].Filesystem != "btrfs" {
		t.Errorf("Filesystem = %s, expected btrfs", drives[1].Filesystem)
	}
	if drives[0].FreeGB != 100 || drives[0].TotalGB != 500 {
		t.Errorf("Capacity = %.2f/%.2f, expected 100/500", drives[0].FreeGB, drives[0].TotalGB)
	}
	for _, d := range drives {
		if d.Err != nil {
			t.Errorf("Drive %s should have no error, got %v", d.Mount, d.Err)
		}
	}
}

// TestVolumeDrives_KeepsFailedVolume tests that a failed volume query stays as an error entry
func TestVolumeDrives_KeepsFailedVolume(t *testing.T) {
	roots := []string{`C:\`, `D:\`, `E:\`}

	capacity := func(root string) (uint64, uint64, error) {
		if root == `D:\` {
			return 0, 0, errors.New("the device is not ready")
		}
		return 50 << 30, 200 << 30, nil
	}
	filesystem := func(root string) string { return "NTFS" }

	drives := volumeDrives(roots, capacity, filesystem)

	if len(drives) != 3 {
		t.Fatalf("Expected 3 drives, got %d", len(drives))
	}

	failed := drives[1]
	if failed.Mount != "D:" {
		t.Errorf("Mount = %s, expected D:", failed.Mount)
	}
	if !errors.Is(failed.Err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", failed.Err)
	}
	if failed.TotalGB != 0 || failed.FreeGB != 0 {
		t.Errorf("Failed volume should carry no capacity, got %+v", failed)
	}

	for _, i := range []int{0, 2} {
		d := drives[i]
		if d.Err != nil {
			t.Errorf("Drive %s: unexpected error %v", d.Mount, d.Err)
		}
		if d.FreeGB != 50 || d.TotalGB != 200 || d.Filesystem != "NTFS" {
			t.Errorf("Drive %s = %+v, expected NTFS 50/200", d.Mount, d)
		}
	}
}

// TestNewDrive_ClampsFree tests that free never exceeds total
func TestNewDrive_ClampsFree(t *testing.T) {
	d := newDrive("/", "ext4", 10<<30, 5<<30)
	if d.FreeGB != d.TotalGB {
		t.Errorf("FreeGB = %.2f, expected clamped to %.2f", d.FreeGB, d.TotalGB)
	}
}
