package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweeperMetrics records orphan-blob sweep runs.
type SweeperMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	swept    prometheus.Counter
	errored  prometheus.Counter
}

// NewSweeperMetrics registers the sweeper metrics on the provided registerer.
func NewSweeperMetrics(reg prometheus.Registerer) *SweeperMetrics {
	if reg == nil {
		return &SweeperMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of sweep runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"prefix"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_success",
		Help: "Successful sweep runs.",
	}, []string{"prefix"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_failure",
		Help: "Failed sweep runs.",
	}, []string{"prefix"})
	swept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweep_objects_removed",
		Help: "Orphaned objects removed by the sweeper.",
	})
	errored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweep_objects_errored",
		Help: "Orphaned objects the sweeper failed to remove.",
	})
	reg.MustRegister(duration, success, failure, swept, errored)
	return &SweeperMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		swept:    swept,
		errored:  errored,
	}
}

// ObserveDuration records the duration for a sweep of the named prefix.
func (s *SweeperMetrics) ObserveDuration(prefix string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(prefix)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named prefix.
func (s *SweeperMetrics) IncSuccess(prefix string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(prefix)).Inc()
}

// IncFailure increments the failure counter for the named prefix.
func (s *SweeperMetrics) IncFailure(prefix string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(prefix)).Inc()
}

// AddSwept adds to the removed-object counter.
func (s *SweeperMetrics) AddSwept(n int) {
	if s == nil || s.swept == nil || n <= 0 {
		return
	}
	s.swept.Add(float64(n))
}

// AddErrored adds to the failed-removal counter.
func (s *SweeperMetrics) AddErrored(n int) {
	if s == nil || s.errored == nil || n <= 0 {
		return
	}
	s.errored.Add(float64(n))
}
