package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.IncCreated()
	m.IncCreated()
	m.IncSkipped("print")
	m.AddDecremented("card", 3)
	m.AddDecremented("card", 0)
	m.IncFailed("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "", ""); err != nil || got != 2 {
		t.Fatalf("expected created=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "order_lines_skipped_total", "kind", "print"); err != nil || got != 1 {
		t.Fatalf("expected skipped=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "inventory_units_decremented_total", "kind", "card"); err != nil || got != 3 {
		t.Fatalf("expected decremented=3, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "orders_failed_total", "reason", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected failed{reason=unknown}=1, got %f (%v)", got, err)
	}
}

func TestStorageMetricsCountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorageMetrics(reg)
	m.ObserveRead("prints", 2*time.Millisecond, nil)
	m.ObserveRead("prints", time.Millisecond, errors.New("corrupt"))
	m.ObserveWrite("orders", 5*time.Millisecond, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storage_failures_total", "collection", "prints"); err != nil || got != 1 {
		t.Fatalf("expected prints failures=1, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramCount(mfs, "storage_operation_duration_seconds", "collection", "orders"); err != nil || got != 1 {
		t.Fatalf("expected one orders write sample, got %d (%v)", got, err)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("POST", "/api/orders", 201, 30*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "status", "201"); err != nil || got != 1 {
		t.Fatalf("expected one 201, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var orders *OrderMetrics
	orders.IncCreated()
	orders.AddRestocked("card", 1)

	var storage *StorageMetrics
	storage.ObserveRead("cards", time.Millisecond, nil)

	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if label == "" || matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramCount(mfs []*dto.MetricFamily, name, label, value string) (uint64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleCount(), nil
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
