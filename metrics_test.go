package admission_test

import (
	"sync"
	"testing"

	admission "github.com/automotiv/khetisahayak-sub000"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := admission.NewMetrics(admission.MetricsConfig{Enabled: true})

	m.Inc(admission.MetricOtpIssued)
	m.Inc(admission.MetricOtpIssued)
	m.Inc(admission.MetricAdmitRejected)

	if got := m.Value(admission.MetricOtpIssued); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	snap := m.Snapshot()
	if snap.Counters[admission.MetricOtpIssued] != 2 {
		t.Fatalf("snapshot mismatch: %+v", snap.Counters)
	}
	if snap.Counters[admission.MetricAdmitRejected] != 1 {
		t.Fatalf("snapshot mismatch: %+v", snap.Counters)
	}
	if snap.Counters[admission.MetricRefreshFailure] != 0 {
		t.Fatalf("untouched counters should be present and zero")
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := admission.NewMetrics(admission.MetricsConfig{Enabled: false})

	m.Inc(admission.MetricOtpIssued)

	if m.Enabled() {
		t.Fatalf("metrics should report disabled")
	}
	if got := m.Value(admission.MetricOtpIssued); got != 0 {
		t.Fatalf("disabled metrics should not record, got %d", got)
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := admission.NewMetrics(admission.MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(admission.MetricResolveIdentity)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(admission.MetricResolveIdentity); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}
