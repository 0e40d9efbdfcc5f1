package api

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts upload requests by operation and outcome. A nil *Metrics
// records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics creates the request counter and registers it with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simpleupload",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Upload API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests)
	}
	return m
}

// Observe counts one request
func (m *Metrics) Observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}
