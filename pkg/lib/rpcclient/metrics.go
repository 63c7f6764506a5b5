package rpcclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts calls by method and outcome.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the call metrics and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "superaxecoin",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Number of RPC calls to the node",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "superaxecoin",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "RPC call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

func (m *Metrics) observe(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method, outcome(err)).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := err.(*Error); ok {
		return e.Kind.String()
	}
	return "error"
}
