// Package metrics provides Prometheus metrics for pipeline runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names, without namespace.
const (
	MetricRunsTotal          = "runs_total"
	MetricRunDuration        = "run_duration_seconds"
	MetricRecords            = "records"
	MetricUsers              = "users"
	MetricVectorDimensions   = "vector_dimensions"
	MetricSkippedTotal       = "skipped_records_total"
	MetricArtifactBytes      = "artifact_bytes"
	MetricLastSuccessSeconds = "last_success_timestamp_seconds"
)

// Trigger constants for labeling.
const (
	TriggerManual   = "manual"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Status constants for run completion.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Skip kinds for labeling.
const (
	SkipUserID     = "user_id"
	SkipBadgeEntry = "badge_entry"
)

// Metrics contains Prometheus metrics for pipeline runs.
// All operations are thread-safe.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	records       prometheus.Gauge
	users         prometheus.Gauge
	dimensions    prometheus.Gauge
	skipped       *prometheus.CounterVec
	artifactBytes prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all collectors initialized under namespace.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricRunsTotal,
				Help:      "Total number of pipeline runs by trigger and status",
			},
			[]string{"trigger", "status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      MetricRunDuration,
				Help:      "Histogram of successful pipeline run duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      MetricRecords,
			Help:      "Number of (user, tag) records scored by the last successful run",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      MetricUsers,
			Help:      "Number of user vectors in the last built index",
		}),
		dimensions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      MetricVectorDimensions,
			Help:      "Length of the user vectors in the last built index",
		}),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      MetricSkippedTotal,
				Help:      "Total number of malformed input records skipped, by kind",
			},
			[]string{"kind"},
		),
		artifactBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      MetricArtifactBytes,
			Help:      "Total size of the committed artifacts in bytes",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      MetricLastSuccessSeconds,
			Help:      "Unix time of the last successful run",
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runDuration,
		m.records,
		m.users,
		m.dimensions,
		m.skipped,
		m.artifactBytes,
		m.lastSuccess,
	}
}

// IncRuns increments the run counter.
func (m *Metrics) IncRuns(trigger, status string) {
	m.runsTotal.WithLabelValues(trigger, status).Inc()
}

// ObserveSuccess records the outcome of a successful run that finished at finished.
func (m *Metrics) ObserveSuccess(d time.Duration, records, users, dimensions int, finished time.Time) {
	m.runDuration.Observe(d.Seconds())
	m.records.Set(float64(records))
	m.users.Set(float64(users))
	m.dimensions.Set(float64(dimensions))
	m.lastSuccess.Set(float64(finished.Unix()))
}

// AddSkipped adds n skipped records of the given kind. Non-positive n is ignored.
func (m *Metrics) AddSkipped(kind string, n int) {
	if n > 0 {
		m.skipped.WithLabelValues(kind).Add(float64(n))
	}
}

// SetArtifactBytes records the size of the committed artifacts.
func (m *Metrics) SetArtifactBytes(n int64) {
	m.artifactBytes.Set(float64(n))
}

// Registry bundles a private registry with the pipeline metrics registered on it.
type Registry struct {
	*prometheus.Registry
	Metrics *Metrics
}

// NewRegistry creates a private registry holding a fresh Metrics under namespace.
func NewRegistry(namespace string) (*Registry, error) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(namespace)
	if err := m.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &Registry{Registry: reg, Metrics: m}, nil
}

// WriteTextfile writes every gathered metric to path in the text exposition format, for the
// node_exporter textfile collector. An empty path is a no-op.
func (r *Registry) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
