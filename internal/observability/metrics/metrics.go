package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the support chat engine.
type ChatMetrics struct {
	exchangesTotal *prometheus.CounterVec
	attemptsTotal  *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connectcom",
			Subsystem: "support_chat",
			Name:      "exchanges_total",
			Help:      "Chat submissions by outcome",
		}, []string{"outcome"}),
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connectcom",
			Subsystem: "support_chat",
			Name:      "backend_attempts_total",
			Help:      "Calls to the conversational backend, retries included",
		}, []string{"backend", "result"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "connectcom",
			Subsystem: "support_chat",
			Name:      "backend_latency_seconds",
			Help:      "Latency of a single conversational backend call",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"backend"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "connectcom",
			Subsystem: "support_chat",
			Name:      "active_sessions",
			Help:      "Chat sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.exchangesTotal, m.attemptsTotal, m.backendLatency, m.activeSessions)
	return m
}

// ObserveExchange counts one submission outcome (replied, ended, auth_required, failed, rejected).
func (m *ChatMetrics) ObserveExchange(outcome string) {
	if m == nil {
		return
	}
	m.exchangesTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveAttempt(backend string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.attemptsTotal.WithLabelValues(backend, result).Inc()
	m.backendLatency.WithLabelValues(backend).Observe(seconds)
}

func (m *ChatMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
