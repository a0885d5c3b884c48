package reporting

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountersIncrement(t *testing.T) {
	m := NewMetrics()
	m.IncFingerprintsExplored(3)
	m.IncGeneration()
	m.IncBug("abc123")
	m.SetQueueLength(7)

	if got := testutil.ToFloat64(m.fingerprintsExplored); got != 3 {
		t.Errorf("fingerprintsExplored = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.generations); got != 1 {
		t.Errorf("generations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bugsTotal.WithLabelValues("abc123")); got != 1 {
		t.Errorf("bugsTotal{abc123} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.queueLength); got != 7 {
		t.Errorf("queueLength = %v, want 7", got)
	}
}

func TestMetricsServeEmptyAddrIsNoop(t *testing.T) {
	m := NewMetrics()
	if err := m.Serve(""); err != nil {
		t.Fatalf("Serve(\"\") must be a no-op, got error: %v", err)
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown on a never-started server must be a no-op, got error: %v", err)
	}
}
