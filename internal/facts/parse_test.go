package facts

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// TestParseOSRelease tests os-release key/value parsing
func TestParseOSRelease(t *testing.T) {
	input := `# comment
NAME="Ubuntu"
VERSION="22.04.3 LTS (Jammy Jellyfish)"
ID=ubuntu

PRETTY_NAME='Ubuntu 22.04.3 LTS'
NAME="Debian"
garbage line
`
	info, err := ParseOSRelease(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseOSRelease failed: %v", err)
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"NAME", "Ubuntu"}, // first occurrence wins
		{"VERSION", "22.04.3 LTS (Jammy Jellyfish)"},
		{"ID", "ubuntu"},
		{"PRETTY_NAME", "Ubuntu 22.04.3 LTS"},
	}

	for _, tt := range tests {
		if got := info[tt.key]; got != tt.expected {
			t.Errorf("info[%s] = %q, expected %q", tt.key, got, tt.expected)
		}
	}

	if _, ok := info["garbage line"]; ok {
		t.Error("Line without '=' should be skipped")
	}
}

// TestParseOSRelease_MissingName tests the label when NAME and VERSION are absent
func TestParseOSRelease_MissingName(t *testing.T) {
	info, err := ParseOSRelease(strings.NewReader("ID=alpine\n"))
	if err != nil {
		t.Fatalf("ParseOSRelease failed: %v", err)
	}

	if got := OSLabel(info["NAME"], info["VERSION"]); got != "Unknown" {
		t.Errorf("OSLabel = %q, expected Unknown", got)
	}
}

// TestParseMeminfo tests meminfo parsing and the memory conversion
func TestParseMeminfo(t *testing.T) {
	input := `MemTotal:       16384256 kB
MemFree:         1234567 kB
MemAvailable:    8000000 kB
Buffers:          123456 kB
SwapTotal:       2097148 kB
SwapFree:        2097148 kB
VmallocTotal:   34359738367 kB
HugePages_Total:       0
`
	values, err := ParseMeminfo(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseMeminfo failed: %v", err)
	}

	if _, ok := values["Buffers"]; ok {
		t.Error("Unrecognised label Buffers should be ignored")
	}

	reading, err := MemoryFromMeminfo(values)
	if err != nil {
		t.Fatalf("MemoryFromMeminfo failed: %v", err)
	}

	if reading.Memory.TotalMB != 16000 {
		t.Errorf("TotalMB = %d, expected 16000", reading.Memory.TotalMB)
	}
	if reading.Memory.AvailableMB != 7812 {
		t.Errorf("AvailableMB = %d, expected 7812", reading.Memory.AvailableMB)
	}

	if reading.Swap == nil {
		t.Fatal("Swap should be present")
	}
	if reading.Swap.TotalMB != 2047 || reading.Swap.FreeMB != 2047 {
		t.Errorf("Swap = %+v, expected 2047/2047", *reading.Swap)
	}

	if reading.VirtualMemoryMB == nil || *reading.VirtualMemoryMB != 33554431 {
		t.Errorf("VirtualMemoryMB = %v, expected 33554431", reading.VirtualMemoryMB)
	}

	if reading.LoadPercent != nil {
		t.Error("LoadPercent should be absent on Linux")
	}
}

// TestMemoryFromMeminfo_Fallbacks tests missing meminfo labels
func TestMemoryFromMeminfo_Fallbacks(t *testing.T) {
	tests := []struct {
		name          string
		values        map[string]uint64
		expectError   bool
		expectAvail   uint64
		expectSwap    bool
		expectVmalloc bool
	}{
		{
			name:        "MemFree used without MemAvailable",
			values:      map[string]uint64{"MemTotal": 2048000, "MemFree": 1024000},
			expectAvail: 1000,
		},
		{
			name:        "available clamped to total",
			values:      map[string]uint64{"MemTotal": 1024, "MemAvailable": 4096},
			expectAvail: 1,
		},
		{
			name:        "swap present when SwapTotal is",
			values:      map[string]uint64{"MemTotal": 1024, "MemAvailable": 1024, "SwapTotal": 0},
			expectAvail: 1,
			expectSwap:  true,
		},
		{
			name:        "missing MemTotal",
			values:      map[string]uint64{"MemFree": 1024},
			expectError: true,
		},
		{
			name:        "missing both available labels",
			values:      map[string]uint64{"MemTotal": 1024},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := MemoryFromMeminfo(tt.values)

			if tt.expectError {
				if !errors.Is(err, ErrParseAnomaly) {
					t.Errorf("Expected ErrParseAnomaly, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if reading.Memory.AvailableMB != tt.expectAvail {
				t.Errorf("AvailableMB = %d, expected %d", reading.Memory.AvailableMB, tt.expectAvail)
			}
			if (reading.Swap != nil) != tt.expectSwap {
				t.Errorf("Swap present = %v, expected %v", reading.Swap != nil, tt.expectSwap)
			}
			if (reading.VirtualMemoryMB != nil) != tt.expectVmalloc {
				t.Errorf("VirtualMemoryMB present = %v, expected %v", reading.VirtualMemoryMB != nil, tt.expectVmalloc)
			}
		})
	}
}

// TestParseMeminfo_BadValue tests that a malformed value is a parse anomaly
func TestParseMeminfo_BadValue(t *testing.T) {
	_, err := ParseMeminfo(strings.NewReader("MemTotal: lots kB\n"))
	if !errors.Is(err, ErrParseAnomaly) {
		t.Fatalf("Expected ErrParseAnomaly, got %v", err)
	}

	var factErr *FactError
	if !errors.As(err, &factErr) || factErr.Family != FamilyMemory {
		t.Errorf("Expected memory FactError, got %v", err)
	}
}

// TestParseLoadavg tests loadavg parsing
func TestParseLoadavg(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    []float64
		expectError bool
	}{
		{
			name:     "standard format",
			input:    "0.52 0.58 0.59 1/977 12345\n",
			expected: []float64{0.52, 0.58, 0.59},
		},
		{
			name:     "fewer than three values",
			input:    "1.50 2.25",
			expected: []float64{1.50, 2.25},
		},
		{
			name:     "stops at first non-number",
			input:    "0.10 busy 0.30",
			expected: []float64{0.10},
		},
		{
			name:        "empty",
			input:       "",
			expectError: true,
		},
		{
			name:        "no leading number",
			input:       "n/a",
			expectError: true,
		},
		{
			name:        "NaN value",
			input:       "0.10 NaN 0.30",
			expectError: true,
		},
		{
			name:        "infinite value",
			input:       "+Inf 0.20 0.30",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loads, err := ParseLoadavg(strings.NewReader(tt.input))

			if tt.expectError {
				if !errors.Is(err, ErrParseAnomaly) {
					t.Errorf("Expected ErrParseAnomaly, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(loads, tt.expected) {
				t.Errorf("ParseLoadavg = %v, expected %v", loads, tt.expected)
			}
		})
	}
}

// TestParseStatCPUs tests counting logical CPUs from stat
func TestParseStatCPUs(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int
		expectError bool
	}{
		{
			name:     "four cpus",
			input:    "cpu  100 0 50 1000 0 0 0 0 0 0\ncpu0 25 0 12 250 0 0 0 0 0 0\ncpu1 25 0 12 250 0 0 0 0 0 0\ncpu2 25 0 13 250 0 0 0 0 0 0\ncpu3 25 0 13 250 0 0 0 0 0 0\nintr 12345\nctxt 6789\n",
			expected: 4,
		},
		{
			name:     "offline cpus are not listed",
			input:    "cpu  1 2 3\ncpu0 1 2 3\ncpu7 1 2 3\n",
			expected: 2,
		},
		{
			name:        "aggregate line only",
			input:       "cpu  1 2 3\nbtime 1700000000\n",
			expectError: true,
		},
		{
			name:        "empty",
			input:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := ParseStatCPUs(strings.NewReader(tt.input))

			if tt.expectError {
				if !errors.Is(err, ErrParseAnomaly) {
					t.Errorf("Expected ErrParseAnomaly, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if count != tt.expected {
				t.Errorf("ParseStatCPUs = %d, expected %d", count, tt.expected)
			}
		})
	}
}

// TestParseMounts tests filtering and deduplication of mount table lines
func TestParseMounts(t *testing.T) {
	input := `sysfs /sys sysfs rw,nosuid,nodev,noexec,relatime 0 0
proc /proc proc rw,nosuid,nodev,noexec,relatime 0 0
/dev/sda1 / ext4 rw,relatime 0 0
tmpfs /run tmpfs rw,nosuid,nodev 0 0
/dev/sdb1 /data xfs rw,relatime 0 0
/dev/sdc1 /data ext4 rw,relatime 0 0
/dev/sdd1 /mnt/my\040disk vfat rw 0 0
short line
`
	mounts, err := ParseMounts(strings.NewReader(input), []string{"ext4", "xfs", "vfat"})
	if err != nil {
		t.Fatalf("ParseMounts failed: %v", err)
	}

	expected := []Mount{
		{Device: "/dev/sda1", MountPoint: "/", Filesystem: "ext4"},
		{Device: "/dev/sdb1", MountPoint: "/data", Filesystem: "xfs"},
		{Device: "/dev/sdd1", MountPoint: "/mnt/my disk", Filesystem: "vfat"},
	}

	if !reflect.DeepEqual(mounts, expected) {
		t.Errorf("ParseMounts = %+v, expected %+v", mounts, expected)
	}
}

// TestParseMounts_EmptyAllowList tests that an empty allow-list keeps nothing
func TestParseMounts_EmptyAllowList(t *testing.T) {
	mounts, err := ParseMounts(strings.NewReader("/dev/sda1 / ext4 rw 0 0\n"), nil)
	if err != nil {
		t.Fatalf("ParseMounts failed: %v", err)
	}
	if len(mounts) != 0 {
		t.Errorf("Expected no mounts, got %+v", mounts)
	}
}
