package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics implements jsonstore.Observer.
type StorageMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_operation_duration_seconds",
		Help:    "Duration of whole-file collection reads and writes.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"collection", "op", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_failures_total",
		Help: "Collection reads or writes that failed.",
	}, []string{"collection", "op"})
	reg.MustRegister(duration, failures)
	return &StorageMetrics{duration: duration, failures: failures}
}

func (s *StorageMetrics) ObserveRead(collection string, d time.Duration, err error) {
	s.observe(collection, "read", d, err)
}

func (s *StorageMetrics) ObserveWrite(collection string, d time.Duration, err error) {
	s.observe(collection, "write", d, err)
}

func (s *StorageMetrics) observe(collection, op string, d time.Duration, err error) {
	if s == nil || s.duration == nil {
		return
	}
	collection = normalizeLabel(collection)
	s.duration.WithLabelValues(collection, op, outcome(err)).Observe(d.Seconds())
	if err != nil {
		s.failures.WithLabelValues(collection, op).Inc()
	}
}
