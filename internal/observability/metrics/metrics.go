package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the scheduling core.
type SchedulingMetrics struct {
	bookingTotal    *prometheus.CounterVec
	conflictTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "booking",
			Name:      "operations_total",
			Help:      "Scheduler operations by outcome",
		}, []string{"operation", "outcome"}),
		conflictTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "booking",
			Name:      "conflicts_total",
			Help:      "Detected conflicts by kind",
		}, []string{"kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingTotal, m.conflictTotal, m.requestDuration)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(operation, outcome string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictTotal.WithLabelValues(kind).Inc()
}

func (m *SchedulingMetrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
