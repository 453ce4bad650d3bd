package facts

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// meminfoLabels are the /proc/meminfo labels the normalizer uses.
// Everything else in the file is ignored.
var meminfoLabels = map[string]bool{
	"MemTotal":     true,
	"MemFree":      true,
	"MemAvailable": true,
	"SwapTotal":    true,
	"SwapFree":     true,
	"VmallocTotal": true,
}

// ParseOSRelease parses KEY="VALUE" lines from an os-release stream.
// Quotes around values are stripped and the first occurrence of a key wins.
func ParseOSRelease(r io.Reader) (map[string]string, error) {
	info := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		if _, seen := info[key]; seen {
			continue
		}
		info[key] = trimQuotes(strings.TrimSpace(parts[1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, unavailable(FamilyOS, err)
	}

	return info, nil
}

func trimQuotes(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return strings.Trim(value, `"`)
}

// ParseMeminfo parses "Label: <integer> kB" lines and returns the
// recognised labels in kB
func ParseMeminfo(r io.Reader) (map[string]uint64, error) {
	values := make(map[string]uint64)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		label, rest, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}

		label = strings.TrimSpace(label)
		if !meminfoLabels[label] {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil, anomaly(FamilyMemory, "%s has no value", label)
		}

		value, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, anomaly(FamilyMemory, "failed to parse %s: %v", label, err)
		}

		if _, seen := values[label]; !seen {
			values[label] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, unavailable(FamilyMemory, err)
	}

	return values, nil
}

// ParseLoadavg reads up to three leading decimal tokens from the first line.
// Format: 0.00 0.01 0.05 1/234 5678
func ParseLoadavg(r io.Reader) ([]float64, error) {
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, unavailable(FamilyLoad, err)
	}

	fields := strings.Fields(line)
	loads := make([]float64, 0, 3)
	for _, field := range fields {
		if len(loads) == 3 {
			break
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil || value < 0 {
			break
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, anomaly(FamilyLoad, "non-finite load value: %q", field)
		}
		loads = append(loads, value)
	}

	if len(loads) == 0 {
		return nil, anomaly(FamilyLoad, "unexpected loadavg format: %q", strings.TrimSpace(line))
	}

	return loads, nil
}

// Mount is one surviving line of a mount table
type Mount struct {
	Device     string
	MountPoint string
	Filesystem string
}

var mountEscapes = strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)

// ParseMounts parses "device mount_point fstype ..." lines, keeps only
// filesystem kinds in allowed and drops repeated mount points, keeping the
// first occurrence
func ParseMounts(r io.Reader, allowed []string) ([]Mount, error) {
	allowedSet := make(map[string]bool, len(allowed))
	for _, fstype := range allowed {
		allowedSet[fstype] = true
	}

	var mounts []Mount
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}

		mount := Mount{
			Device:     mountEscapes.Replace(fields[0]),
			MountPoint: mountEscapes.Replace(fields[1]),
			Filesystem: fields[2],
		}

		if !allowedSet[mount.Filesystem] || seen[mount.MountPoint] {
			continue
		}
		seen[mount.MountPoint] = true

		mounts = append(mounts, mount)
	}
	if err := scanner.Err(); err != nil {
		return nil, unavailable(FamilyDrives, err)
	}

	return mounts, nil
}

// ParseStatCPUs counts the per-CPU "cpuN" lines of /proc/stat, which lists
// every online logical CPU of the host
func ParseStatCPUs(r io.Reader) (int, error) {
	count := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		field, _, _ := strings.Cut(scanner.Text(), " ")
		suffix, ok := strings.CutPrefix(field, "cpu")
		if !ok || suffix == "" {
			continue
		}
		if _, err := strconv.Atoi(suffix); err == nil {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, unavailable(FamilyProcessors, err)
	}
	if count == 0 {
		return 0, anomaly(FamilyProcessors, "no cpu lines in stat")
	}
	return count, nil
}
