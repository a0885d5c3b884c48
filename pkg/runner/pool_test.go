package runner

import (
	"context"
	"testing"

	"github.com/jihwankim/diff-fuzz/pkg/coverage"
)

// lengthRunner is a fake Runner for tests: its trace is just {len(input)},
// so ordering and basic correctness can be asserted without spawning any
// real process.
type lengthRunner struct{}

func (lengthRunner) Run(_ context.Context, input []byte) (coverage.Traces, coverage.Statuses, coverage.Stdouts, error) {
	return coverage.Traces{coverage.NewTrace(len(input))}, coverage.Statuses{0}, coverage.Stdouts{[]byte("ok")}, nil
}

func TestPoolRunAllPreservesOrder(t *testing.T) {
	inputs := [][]byte{
		[]byte("a"),
		[]byte("bb"),
		[]byte("ccc"),
		[]byte(""),
		[]byte("eeeee"),
	}
	pool := NewPool(lengthRunner{}, 3)
	results := pool.RunAll(context.Background(), inputs)

	if len(results) != len(inputs) {
		t.Fatalf("got %d results, want %d", len(results), len(inputs))
	}
	for i, in := range inputs {
		want := len(in)
		got := results[i].Traces[0].Sorted()
		if len(got) != 1 || got[0] != want {
			t.Errorf("result %d: got trace %v, want [%d]", i, got, want)
		}
	}
}

func TestDefaultWorkerCount(t *testing.T) {
	if n := DefaultWorkerCount(0); n < 1 {
		t.Errorf("DefaultWorkerCount(0) = %d, want >= 1", n)
	}
	if n := DefaultWorkerCount(100); n != 1 {
		t.Errorf("DefaultWorkerCount(100) = %d, want 1 (clamped)", n)
	}
}
