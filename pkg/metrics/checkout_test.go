package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncAuthorization("verify_then_pay")
	m.IncAuthorization("verify_then_pay")
	m.IncWebhookEvent("succeeded", "ok")
	m.IncWebhookEvent("", "error")
	m.IncOversell()
	m.ObserveWebhookDuration("succeeded", 120*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, family := range families {
		byName[family.GetName()] = family
	}

	auth := byName["checkout_authorizations_total"]
	if auth == nil || auth.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected 2 authorizations, got %+v", auth)
	}

	events := byName["payment_webhook_events_total"]
	if events == nil || len(events.GetMetric()) != 2 {
		t.Fatalf("expected 2 webhook event series, got %+v", events)
	}
	for _, metric := range events.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == "" {
				t.Fatalf("blank outcome label should normalize to unknown")
			}
		}
	}

	oversell := byName["inventory_oversell_total"]
	if oversell == nil || oversell.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected 1 oversell, got %+v", oversell)
	}

	latency := byName["payment_webhook_duration_seconds"]
	if latency == nil || latency.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected 1 latency sample, got %+v", latency)
	}
}

func TestCheckoutMetricsNilRegisterer(t *testing.T) {
	m := NewCheckoutMetrics(nil)
	m.IncAuthorization("verify_then_pay")
	m.IncWebhookEvent("succeeded", "ok")
	m.IncOversell()
	m.ObserveWebhookDuration("succeeded", time.Second)
}
