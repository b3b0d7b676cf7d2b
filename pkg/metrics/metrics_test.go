package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestUploadMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUploadMetrics(reg)

	m.ObserveDuration("chapter", 250*time.Millisecond)
	m.IncSuccess("chapter")
	m.IncFailure("chapter")
	m.IncCompensationFailure("chapter")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "upload_success", "kind", "chapter"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "upload_compensation_failure", "kind", "chapter"); err != nil {
		t.Fatalf("fetch compensation failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected compensation failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "upload_duration_seconds", "kind", "chapter"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestClaimMetricsLabelsBySource(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClaimMetrics(reg)

	m.IncGranted("free")
	m.IncGranted("free")
	m.IncGranted("purchase")
	m.IncDuplicate()
	m.IncNotEligible()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "entitlements_granted", "source", "free"); err != nil {
		t.Fatalf("fetch free grants: %v", err)
	} else if got != 2 {
		t.Fatalf("expected free grants=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "entitlements_granted", "source", "purchase"); err != nil {
		t.Fatalf("fetch purchase grants: %v", err)
	} else if got != 1 {
		t.Fatalf("expected purchase grants=1, got %f", got)
	}
}

func TestNilRegistererDisablesInstruments(t *testing.T) {
	upload := NewUploadMetrics(nil)
	upload.IncSuccess("chapter")
	upload.ObserveDuration("chapter", time.Second)

	claim := NewClaimMetrics(nil)
	claim.IncGranted("free")

	sweeper := NewSweeperMetrics(nil)
	sweeper.AddSwept(3)
	sweeper.IncFailure("chapters/")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
