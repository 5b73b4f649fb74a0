package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to read counter: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveMovement("deposit", "success", time.Millisecond)
	m.ObserveRetry("deposit")
	m.ObserveWebhook("processed")
	m.ObserveOutboxPoll(3)
	m.ObserveOutboxDelivery("notification.email", nil)
	m.ObserveOutboxPurge(2)
	if m.Registry() != nil {
		t.Error("Expected nil registry for nil metrics")
	}
}

func TestObserveMovement(t *testing.T) {
	m := New()
	m.ObserveMovement("withdrawal", "success", 10*time.Millisecond)
	m.ObserveMovement("withdrawal", "success", 10*time.Millisecond)
	m.ObserveMovement("withdrawal", "insufficient_funds", time.Millisecond)

	if got := counterValue(t, m.movementsTotal.WithLabelValues("withdrawal", "success")); got != 2 {
		t.Errorf("Expected 2 successful withdrawals, got %v", got)
	}
	if got := counterValue(t, m.movementsTotal.WithLabelValues("withdrawal", "insufficient_funds")); got != 1 {
		t.Errorf("Expected 1 rejected withdrawal, got %v", got)
	}
}

func TestObserveOutboxDelivery(t *testing.T) {
	m := New()
	m.ObserveOutboxDelivery("notification.email", nil)
	m.ObserveOutboxDelivery("notification.email", errors.New("smtp down"))
	m.ObserveOutboxPurge(4)
	m.ObserveOutboxPurge(0)

	if got := counterValue(t, m.outboxDeliveries.WithLabelValues("notification.email", "error")); got != 1 {
		t.Errorf("Expected 1 failed delivery, got %v", got)
	}
	if got := counterValue(t, m.outboxPurgedTotal); got != 4 {
		t.Errorf("Expected 4 purged events, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveWebhook("duplicate")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `wallet_ledger_webhook_events_total{outcome="duplicate"} 1`) {
		t.Errorf("Expected webhook counter in exposition, got:\n%s", rec.Body.String())
	}
}
