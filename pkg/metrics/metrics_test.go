package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestAutoReplyMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAutoReplyMetrics(reg)

	m.IncOutcome("sent")
	m.IncOutcome("sent")
	m.IncOutcome("denied_quota_exceeded")
	m.IncOutcome("")
	m.ObserveGeneration(250 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got := counterValue(t, families, "auto_reply_outcomes_total", "sent"); got != 2 {
		t.Fatalf("expected 2 sent outcomes, got %v", got)
	}
	if got := counterValue(t, families, "auto_reply_outcomes_total", "denied_quota_exceeded"); got != 1 {
		t.Fatalf("expected 1 denial, got %v", got)
	}
	if got := counterValue(t, families, "auto_reply_outcomes_total", "unknown"); got != 1 {
		t.Fatalf("expected empty outcome to normalize to unknown, got %v", got)
	}
}

func TestCronJobMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("usage-reset")
	m.IncFailure("usage-reset")
	m.ObserveDuration("usage-reset", time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if got := counterValue(t, families, "job_success", "usage-reset"); got != 1 {
		t.Fatalf("expected 1 success, got %v", got)
	}
	if got := counterValue(t, families, "job_failure", "usage-reset"); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var ar *AutoReplyMetrics
	ar.IncOutcome("sent")
	ar.ObserveGeneration(time.Second)

	var cj *CronJobMetrics
	cj.IncSuccess("x")
	cj.IncFailure("x")
	cj.ObserveDuration("x", time.Second)
}

func counterValue(t *testing.T, families []*dto.MetricFamily, name, label string) float64 {
	t.Helper()
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
