package facts

// MetricNames defines exporter-specific Prometheus metric names
type MetricNames struct {
	Exporter string

	OSInfo         string // Info gauge carrying the OS labels
	OSNameLabel    string
	OSVersionLabel string

	KernelInfo    string // Info gauge carrying the kernel labels
	KernelPrefix  string // Prepended to the release label ("Windows ")
	SysnameLabel  string // "" when the exporter has no sysname label
	ReleaseLabel  string
	MachineLabel  string // "" when the exporter has no architecture label
	HostnameInfo  string
	HostnameLabel string

	MemoryTotal     string // Gauge: physical memory bytes
	MemoryAvailable string // Gauge: available memory bytes
	MemoryFree      string // Gauge: fallback when MemoryAvailable is missing
	SwapTotal       string
	SwapFree        string
	VmallocTotal    string
	CommitLimit     string
	CommitUsed      string

	Load []string // Gauges: 1, 5 and 15 minute load

	LogicalProcessors string // Gauge: processor count
	CPUSeconds        string // Counter per cpu label, used when LogicalProcessors is empty
	CPULabel          string

	DiskFreeBytes string // Gauge: bytes available per volume
	DiskSizeBytes string // Gauge: total bytes per volume
	VolumeLabel   string // Label name for disk identifier
	FstypeLabel   string
}

// NodeExporterNames returns metric names for node_exporter (Linux, FreeBSD)
func NodeExporterNames() MetricNames {
	return MetricNames{
		Exporter:        "node_exporter",
		OSInfo:          "node_os_info",
		OSNameLabel:     "name",
		OSVersionLabel:  "version",
		KernelInfo:      "node_uname_info",
		SysnameLabel:    "sysname",
		ReleaseLabel:    "release",
		MachineLabel:    "machine",
		HostnameInfo:    "node_uname_info",
		HostnameLabel:   "nodename",
		MemoryTotal:     "node_memory_MemTotal_bytes",
		MemoryAvailable: "node_memory_MemAvailable_bytes",
		MemoryFree:      "node_memory_MemFree_bytes",
		SwapTotal:       "node_memory_SwapTotal_bytes",
		SwapFree:        "node_memory_SwapFree_bytes",
		VmallocTotal:    "node_memory_VmallocTotal_bytes",
		Load:            []string{"node_load1", "node_load5", "node_load15"},
		CPUSeconds:      "node_cpu_seconds_total",
		CPULabel:        "cpu",
		DiskFreeBytes:   "node_filesystem_avail_bytes",
		DiskSizeBytes:   "node_filesystem_size_bytes",
		VolumeLabel:     "mountpoint", // "/", "/home", etc.
		FstypeLabel:     "fstype",
	}
}

// WindowsExporterNames returns metric names for windows_exporter
func WindowsExporterNames() MetricNames {
	return MetricNames{
		Exporter:          "windows_exporter",
		OSInfo:            "windows_os_info",
		OSNameLabel:       "product",
		KernelInfo:        "windows_os_info",
		KernelPrefix:      "Windows ",
		ReleaseLabel:      "version",
		HostnameInfo:      "windows_cs_hostname",
		HostnameLabel:     "hostname",
		MemoryTotal:       "windows_cs_physical_memory_bytes",
		MemoryAvailable:   "windows_memory_available_bytes",
		MemoryFree:        "windows_os_physical_memory_free_bytes",
		CommitLimit:       "windows_memory_commit_limit",
		CommitUsed:        "windows_memory_committed_bytes",
		LogicalProcessors: "windows_cs_logical_processors",
		DiskFreeBytes:     "windows_logical_disk_free_bytes",
		DiskSizeBytes:     "windows_logical_disk_size_bytes",
		VolumeLabel:       "volume", // "C:", "D:", etc.
	}
}

// DetectMetricNames picks the naming scheme from the families a scrape returned
func DetectMetricNames(has func(name string) bool) MetricNames {
	if has("windows_os_info") || has("windows_cs_physical_memory_bytes") {
		return WindowsExporterNames()
	}
	return NodeExporterNames()
}
