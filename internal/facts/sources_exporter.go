package facts

import (
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// NewHTTPClient creates an HTTP client with appropriate timeouts for scraping
// a local exporter
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		// Overall request timeout (connection + headers + body read)
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          2,
			IdleConnTimeout:       30 * time.Second,
		},
	}
}

// ExporterCollector builds a snapshot by scraping a local Prometheus exporter
type ExporterCollector struct {
	exporterURL string
	allowed     []string
	logger      *zap.Logger
	httpClient  *http.Client
}

// NewExporterCollector creates a collector that scrapes node_exporter or windows_exporter
// allowed filters node_exporter filesystems the same way the mount table is filtered.
func NewExporterCollector(url string, allowed []string, logger *zap.Logger, httpClient *http.Client) *ExporterCollector {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &ExporterCollector{
		exporterURL: url,
		allowed:     allowed,
		logger:      logger,
		httpClient:  httpClient,
	}
}

func (c *ExporterCollector) Name() string {
	return fmt.Sprintf("exporter (%s)", c.exporterURL)
}

// Collect scrapes once and reads every family from that one scrape
func (c *ExporterCollector) Collect(ctx context.Context) *HostFacts {
	families, err := c.scrape(ctx)
	if err != nil {
		c.logger.Warn("Exporter scrape failed", zap.String("url", c.exporterURL), zap.Error(err))
	}
	return assemble(ctx, newExporterSources(families, err, c.allowed), c.logger)
}

func (c *ExporterCollector) scrape(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.exporterURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set User-Agent for identification
	req.Header.Set("User-Agent", "hostfacts/1.0")

	c.logger.Debug("Executing HTTP request", zap.String("url", c.exporterURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("scrape timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Read response body with size limit to prevent memory issues
	return decodeMetricFamilies(io.LimitReader(resp.Body, 10*1024*1024))
}

// decodeMetricFamilies parses Prometheus text format into families keyed by name
func decodeMetricFamilies(reader io.Reader) (map[string]*dto.MetricFamily, error) {
	decoder := expfmt.NewDecoder(reader, expfmt.FmtText)

	families := make(map[string]*dto.MetricFamily)
	for {
		mf := &dto.MetricFamily{}
		err := decoder.Decode(mf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode metric family: %w", err)
		}
		families[mf.GetName()] = mf
	}

	return families, nil
}

// exporterSources reads fact families out of one scrape
type exporterSources struct {
	families  map[string]*dto.MetricFamily
	names     MetricNames
	allowed   map[string]bool
	scrapeErr error
}

func newExporterSources(families map[string]*dto.MetricFamily, scrapeErr error, allowed []string) *exporterSources {
	s := &exporterSources{
		families:  families,
		allowed:   make(map[string]bool, len(allowed)),
		scrapeErr: scrapeErr,
	}
	for _, fstype := range allowed {
		s.allowed[fstype] = true
	}
	s.names = DetectMetricNames(func(name string) bool {
		_, ok := families[name]
		return ok
	})
	return s
}

// metricValue returns the sample value whatever type the exporter declared.
// NaN and infinite samples count as missing.
func metricValue(m *dto.Metric) (float64, bool) {
	var v float64
	switch {
	case m.Gauge != nil:
		v = m.Gauge.GetValue()
	case m.Untyped != nil:
		v = m.Untyped.GetValue()
	case m.Counter != nil:
		v = m.Counter.GetValue()
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func getLabelValue(labels []*dto.LabelPair, name string) string {
	for _, label := range labels {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}

// first returns the first sample of a family
func (s *exporterSources) first(name string) (*dto.Metric, bool) {
	if name == "" {
		return nil, false
	}
	family, ok := s.families[name]
	if !ok || len(family.Metric) == 0 {
		return nil, false
	}
	return family.Metric[0], true
}

func (s *exporterSources) value(name string) (float64, bool) {
	m, ok := s.first(name)
	if !ok {
		return 0, false
	}
	v, ok := metricValue(m)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

func (s *exporterSources) label(name, label string) (string, bool) {
	if label == "" {
		return "", false
	}
	m, ok := s.first(name)
	if !ok {
		return "", false
	}
	v := getLabelValue(m.Label, label)
	return v, v != ""
}

func (s *exporterSources) OSName(ctx context.Context) (string, error) {
	if s.scrapeErr != nil {
		return "", unavailable(FamilyOS, s.scrapeErr)
	}
	name, ok := s.label(s.names.OSInfo, s.names.OSNameLabel)
	if !ok {
		return "", anomaly(FamilyOS, "%s not found", s.names.OSInfo)
	}
	version, _ := s.label(s.names.OSInfo, s.names.OSVersionLabel)
	return OSLabel(name, version), nil
}

func (s *exporterSources) Kernel(ctx context.Context) (string, error) {
	if s.scrapeErr != nil {
		return "", unavailable(FamilyKernel, s.scrapeErr)
	}
	release, ok := s.label(s.names.KernelInfo, s.names.ReleaseLabel)
	if !ok {
		return "", anomaly(FamilyKernel, "%s not found", s.names.KernelInfo)
	}
	sysname, _ := s.label(s.names.KernelInfo, s.names.SysnameLabel)
	return strings.Join(strings.Fields(s.names.KernelPrefix+sysname+" "+release), " "), nil
}

func (s *exporterSources) Architecture(ctx context.Context) (Architecture, error) {
	if s.scrapeErr != nil {
		return ArchUnknown, unavailable(FamilyArchitecture, s.scrapeErr)
	}
	if s.names.MachineLabel == "" {
		return ArchUnknown, notSupported(FamilyArchitecture)
	}
	machine, ok := s.label(s.names.KernelInfo, s.names.MachineLabel)
	if !ok {
		return ArchUnknown, anomaly(FamilyArchitecture, "%s has no %s label", s.names.KernelInfo, s.names.MachineLabel)
	}
	return ArchitectureFromMachine(machine), nil
}

// ProcessorCount uses the processor gauge, or counts distinct cpu labels
func (s *exporterSources) ProcessorCount(ctx context.Context) (int, error) {
	if s.scrapeErr != nil {
		return 0, unavailable(FamilyProcessors, s.scrapeErr)
	}
	if v, ok := s.value(s.names.LogicalProcessors); ok && v >= 1 {
		return int(v), nil
	}

	family, ok := s.families[s.names.CPUSeconds]
	if !ok {
		return 0, anomaly(FamilyProcessors, "no processor metric found")
	}
	cpus := make(map[string]bool)
	for _, m := range family.Metric {
		if cpu := getLabelValue(m.Label, s.names.CPULabel); cpu != "" {
			cpus[cpu] = true
		}
	}
	if len(cpus) == 0 {
		return 0, anomaly(FamilyProcessors, "%s has no %s labels", s.names.CPUSeconds, s.names.CPULabel)
	}
	return len(cpus), nil
}

func (s *exporterSources) Memory(ctx context.Context) (MemoryReading, error) {
	if s.scrapeErr != nil {
		return MemoryReading{}, unavailable(FamilyMemory, s.scrapeErr)
	}

	total, ok := s.value(s.names.MemoryTotal)
	if !ok {
		return MemoryReading{}, anomaly(FamilyMemory, "%s missing or invalid", s.names.MemoryTotal)
	}
	available, ok := s.value(s.names.MemoryAvailable)
	if !ok {
		// Fallback to MemFree
		if available, ok = s.value(s.names.MemoryFree); !ok {
			return MemoryReading{}, anomaly(FamilyMemory, "%s not found", s.names.MemoryAvailable)
		}
	}

	reading := MemoryReading{
		Memory: clampMemory(Memory{
			TotalMB:     BytesToMB(uint64(total)),
			AvailableMB: BytesToMB(uint64(available)),
		}),
	}

	if swapTotal, ok := s.value(s.names.SwapTotal); ok {
		swapFree, _ := s.value(s.names.SwapFree)
		if swapFree > swapTotal {
			swapFree = swapTotal
		}
		reading.Swap = &Swap{
			TotalMB: BytesToMB(uint64(swapTotal)),
			FreeMB:  BytesToMB(uint64(swapFree)),
		}
	}

	if vmalloc, ok := s.value(s.names.VmallocTotal); ok {
		mb := BytesToMB(uint64(vmalloc))
		reading.VirtualMemoryMB = &mb
	}

	return reading, nil
}

func (s *exporterSources) VirtualMemory(ctx context.Context) (VirtualMemory, error) {
	if s.names.CommitLimit == "" {
		return VirtualMemory{}, notSupported(FamilyVirtualMemory)
	}
	if s.scrapeErr != nil {
		return VirtualMemory{}, unavailable(FamilyVirtualMemory, s.scrapeErr)
	}

	limit, ok := s.value(s.names.CommitLimit)
	if !ok {
		return VirtualMemory{}, anomaly(FamilyVirtualMemory, "%s not found", s.names.CommitLimit)
	}
	used, _ := s.value(s.names.CommitUsed)
	return VirtualMemory{
		TotalMB: BytesToMB(uint64(limit)),
		UsedMB:  BytesToMB(uint64(used)),
	}, nil
}

func (s *exporterSources) LoadAverage(ctx context.Context) ([]float64, error) {
	if len(s.names.Load) == 0 {
		return nil, notSupported(FamilyLoad)
	}
	if s.scrapeErr != nil {
		return nil, unavailable(FamilyLoad, s.scrapeErr)
	}

	var loads []float64
	for _, name := range s.names.Load {
		v, ok := s.value(name)
		if !ok {
			break
		}
		loads = append(loads, v)
	}
	if len(loads) == 0 {
		return nil, anomaly(FamilyLoad, "%s not found", s.names.Load[0])
	}
	return loads, nil
}

// Drives pairs free and size samples by volume label, keeping the first
// sample seen for each volume
func (s *exporterSources) Drives(ctx context.Context) ([]DriveInfo, error) {
	if s.scrapeErr != nil {
		return nil, unavailable(FamilyDrives, s.scrapeErr)
	}

	sizes, ok := s.families[s.names.DiskSizeBytes]
	if !ok {
		return nil, anomaly(FamilyDrives, "%s not found", s.names.DiskSizeBytes)
	}

	free := make(map[string]float64)
	if family, ok := s.families[s.names.DiskFreeBytes]; ok {
		for _, m := range family.Metric {
			volume := getLabelValue(m.Label, s.names.VolumeLabel)
			if _, seen := free[volume]; volume == "" || seen {
				continue
			}
			if v, ok := metricValue(m); ok {
				free[volume] = v
			}
		}
	}

	var drives []DriveInfo
	seen := make(map[string]bool)
	for _, m := range sizes.Metric {
		volume := getLabelValue(m.Label, s.names.VolumeLabel)
		if volume == "" || seen[volume] || strings.HasPrefix(volume, "HarddiskVolume") {
			continue
		}
		fstype := getLabelValue(m.Label, s.names.FstypeLabel)
		if s.names.FstypeLabel != "" && len(s.allowed) > 0 && !s.allowed[fstype] {
			continue
		}
		seen[volume] = true

		total, ok := metricValue(m)
		if !ok || total < 0 {
			drives = append(drives, DriveInfo{
				Mount: volume,
				Err:   anomaly(FamilyDrives, "invalid %s sample for %s", s.names.DiskSizeBytes, volume),
			})
			continue
		}
		freeBytes, ok := free[volume]
		if !ok {
			drives = append(drives, DriveInfo{
				Mount: volume,
				Err:   anomaly(FamilyDrives, "no %s sample for %s", s.names.DiskFreeBytes, volume),
			})
			continue
		}
		if freeBytes < 0 {
			freeBytes = 0
		}
		drives = append(drives, newDrive(volume, fstype, uint64(freeBytes), uint64(total)))
	}

	return drives, nil
}

func (s *exporterSources) Hostname() (string, error) {
	if s.scrapeErr != nil {
		return "", s.scrapeErr
	}
	hostname, ok := s.label(s.names.HostnameInfo, s.names.HostnameLabel)
	if !ok {
		return "", fmt.Errorf("%s not found", s.names.HostnameInfo)
	}
	return hostname, nil
}

// Username is not exported; the local lookups take over
func (s *exporterSources) Username() (string, error) {
	return "", ErrNotSupported
}
