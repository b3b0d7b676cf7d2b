package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records the blob-then-row upload pipeline. The compensation
// counter is the one to alarm on: it counts best-effort blob deletes that
// failed after a row insert fell over, i.e. orphans left for the sweeper.
type UploadMetrics struct {
	duration            *prometheus.HistogramVec
	success             *prometheus.CounterVec
	failure             *prometheus.CounterVec
	compensationFailure *prometheus.CounterVec
}

// NewUploadMetrics registers the upload metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_duration_seconds",
		Help:    "Duration of upload operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_success",
		Help: "Successful uploads.",
	}, []string{"kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_failure",
		Help: "Failed uploads.",
	}, []string{"kind"})
	compensationFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_compensation_failure",
		Help: "Compensating blob deletes that failed, leaving an orphan.",
	}, []string{"kind"})
	reg.MustRegister(duration, success, failure, compensationFailure)
	return &UploadMetrics{
		duration:            duration,
		success:             success,
		failure:             failure,
		compensationFailure: compensationFailure,
	}
}

// ObserveDuration records the duration for the named upload kind.
func (u *UploadMetrics) ObserveDuration(kind string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named upload kind.
func (u *UploadMetrics) IncSuccess(kind string) {
	if u == nil || u.success == nil {
		return
	}
	u.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailure increments the failure counter for the named upload kind.
func (u *UploadMetrics) IncFailure(kind string) {
	if u == nil || u.failure == nil {
		return
	}
	u.failure.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCompensationFailure increments the orphaned-blob counter.
func (u *UploadMetrics) IncCompensationFailure(kind string) {
	if u == nil || u.compensationFailure == nil {
		return
	}
	u.compensationFailure.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
