package report

import (
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/stone-age-io/hostfacts/internal/facts"
)

const (
	namespace  = "hostfacts"
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// WritePrometheus writes the snapshot in the Prometheus text format, suitable
// for node_exporter's textfile collector. Absent facts produce no sample;
// every family gets a hostfacts_collection_failed sample.
func WritePrometheus(w io.Writer, f *facts.HostFacts) error {
	families := []*dto.MetricFamily{
		gaugeFamily("info", "Host identity labels, value is always 1",
			sample(1,
				"os", f.OSName,
				"kernel", f.Kernel,
				"architecture", string(f.Architecture),
				"hostname", f.Hostname,
				"user", f.Username)),
		gaugeFamily("processors", "Logical processors available to the host",
			sample(float64(f.ProcessorCount))),
	}

	if f.Memory != nil {
		families = append(families,
			gaugeFamily("memory_total_bytes", "Physical memory", sample(mb(f.Memory.TotalMB))),
			gaugeFamily("memory_available_bytes", "Physical memory available", sample(mb(f.Memory.AvailableMB))))
	}
	if f.MemoryLoadPercent != nil {
		families = append(families,
			gaugeFamily("memory_load_percent", "Physical memory in use as reported by the OS",
				sample(float64(*f.MemoryLoadPercent))))
	}
	if f.Swap != nil {
		families = append(families,
			gaugeFamily("swap_total_bytes", "Swap space", sample(mb(f.Swap.TotalMB))),
			gaugeFamily("swap_free_bytes", "Swap space free", sample(mb(f.Swap.FreeMB))))
	}
	if f.VirtualMemoryMB != nil {
		families = append(families,
			gaugeFamily("virtual_memory_bytes", "Virtual memory size (vmalloc on Linux, commit limit on Windows)",
				sample(mb(*f.VirtualMemoryMB))))
	}
	if f.CommitUsedMB != nil {
		families = append(families,
			gaugeFamily("commit_used_bytes", "Committed virtual memory", sample(mb(*f.CommitUsedMB))))
	}

	if len(f.LoadAverage) > 0 {
		windows := []string{"1m", "5m", "15m"}
		var loads []*dto.Metric
		for i, v := range f.LoadAverage {
			if i >= len(windows) {
				break
			}
			loads = append(loads, sample(v, "window", windows[i]))
		}
		families = append(families, gaugeFamily("load", "System load average", loads...))
	}

	if len(f.Drives) > 0 {
		var free, size, errs []*dto.Metric
		for _, d := range f.Drives {
			if d.Err != nil {
				errs = append(errs, sample(1, "mount", d.Mount))
				continue
			}
			free = append(free, sample(d.FreeGB*bytesPerGB, "mount", d.Mount, "fstype", d.Filesystem))
			size = append(size, sample(d.TotalGB*bytesPerGB, "mount", d.Mount, "fstype", d.Filesystem))
		}
		if len(free) > 0 {
			families = append(families,
				gaugeFamily("drive_free_bytes", "Drive space available to unprivileged users", free...),
				gaugeFamily("drive_size_bytes", "Drive capacity", size...))
		}
		if len(errs) > 0 {
			families = append(families, gaugeFamily("drive_error", "Drive could not be queried", errs...))
		}
	}

	var failed []*dto.Metric
	for _, family := range facts.Families() {
		v := 0.0
		if f.Failure(family) != nil {
			v = 1
		}
		failed = append(failed, sample(v, "family", string(family)))
	}
	families = append(families,
		gaugeFamily("collection_failed", "Whether the fact family failed during the last collection", failed...))

	if !f.CollectedAt.IsZero() {
		families = append(families,
			gaugeFamily("collected_timestamp_seconds", "Unix time of the last collection",
				sample(float64(f.CollectedAt.UnixNano())/1e9)))
	}

	encoder := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func gaugeFamily(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(namespace + "_" + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// sample builds a gauge sample from a value and label name/value pairs
func sample(value float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(value)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}

func mb(v uint64) float64 {
	return float64(v) * bytesPerMB
}
