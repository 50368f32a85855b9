package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusDryRun  = "dry_run"
)

// Recorder collects rotation metrics on a private registry. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	rotationsTotal     *prometheus.CounterVec
	rotationDuration   *prometheus.HistogramVec
	lastSuccess        *prometheus.GaugeVec
	passwordsGenerated prometheus.Counter
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		rotationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loginrotate_rotations_total",
				Help: "Total number of login password rotations attempted",
			},
			[]string{"dialect", "status"},
		),
		rotationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loginrotate_rotation_duration_seconds",
				Help:    "Duration of the password change round trip in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"dialect"},
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loginrotate_last_success_timestamp_seconds",
				Help: "Unix time of the last successful rotation",
			},
			[]string{"dialect"},
		),
		passwordsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "loginrotate_passwords_generated_total",
				Help: "Total number of random passwords generated",
			},
		),
	}
}

// RecordRotation records the outcome of one rotation.
func (r *Recorder) RecordRotation(dialect, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.rotationsTotal.WithLabelValues(dialect, status).Inc()
	if status == StatusDryRun {
		return
	}
	r.rotationDuration.WithLabelValues(dialect).Observe(duration.Seconds())
	if status == StatusSuccess {
		r.lastSuccess.WithLabelValues(dialect).SetToCurrentTime()
	}
}

// RecordGenerated counts a generated password.
func (r *Recorder) RecordGenerated() {
	if r == nil {
		return
	}
	r.passwordsGenerated.Inc()
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}
