package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveExchange("replied")
	m.ObserveExchange("replied")
	m.ObserveExchange("failed")
	m.ObserveAttempt("gemini", false, 0.2)
	m.ObserveAttempt("gemini", true, 0.4)
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.exchangesTotal.WithLabelValues("replied")); got != 2 {
		t.Fatalf("expected 2 replied exchanges, got %v", got)
	}
	if got := testutil.ToFloat64(m.attemptsTotal.WithLabelValues("gemini", "error")); got != 1 {
		t.Fatalf("expected 1 failed attempt, got %v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("expected 3 sessions, got %v", got)
	}
	if n := testutil.CollectAndCount(m.backendLatency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveExchange("replied")
	m.ObserveAttempt("gemini", true, 0.1)
	m.SetActiveSessions(1)
}
