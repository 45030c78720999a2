// Package metrics records store operation outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder observes one completed store operation.
type Recorder interface {
	Observe(op string, start time.Time, err error)
}

// NopRecorder discards observations.
type NopRecorder struct{}

// Observe does nothing.
func (NopRecorder) Observe(string, time.Time, error) {}

// PrometheusRecorder exports an operation counter and a latency histogram.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusRecorder creates the collectors under namespace and registers them on reg.
func NewPrometheusRecorder(namespace string, reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if namespace == "" {
		namespace = "iso8583"
	}
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Mapper store operations by operation and result.",
		}, []string{"op", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Mapper store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		if err := reg.Register(r.operations); err != nil {
			return nil, err
		}
		if err := reg.Register(r.durations); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe counts the operation and records its duration.
func (r *PrometheusRecorder) Observe(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.operations.WithLabelValues(op, result).Inc()
	r.durations.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
