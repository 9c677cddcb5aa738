// Package metrics collects pipeline counters and timings in a Prometheus
// registry that can be written to a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "diagen"

// Stages label run durations.
const (
	StageTransform = "transform"
	StageGenerate  = "generate"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	ClassesBuilt    prometheus.Counter
	FragmentsLoaded prometheus.Counter
	FilesWritten    *prometheus.CounterVec
	Warnings        *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ClassesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classes_built_total",
			Help:      "Classes built from diagrams.",
		}),
		FragmentsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fragments_loaded_total",
			Help:      "Fragment files loaded for merging.",
		}),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Files written, by language. Fragments use the language \"yaml\".",
		}, []string{"language"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Recoverable diagram problems, by kind.",
		}, []string{"kind"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration, by stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.ClassesBuilt,
		m.FragmentsLoaded,
		m.FilesWritten,
		m.Warnings,
		m.RunDuration,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records how long a stage took.
func (m *Metrics) ObserveRun(stage string, d time.Duration) {
	m.RunDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format. The
// file is written atomically so a concurrent scrape never sees a partial
// file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
