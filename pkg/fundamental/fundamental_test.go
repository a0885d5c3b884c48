package fundamental

import (
	"context"
	"strings"
	"testing"

	"github.com/jihwankim/diff-fuzz/pkg/coverage"
	"github.com/jihwankim/diff-fuzz/pkg/runner"
)

func TestBuildTreeCompleteHas128Entries(t *testing.T) {
	entries := BuildTree(SelectionComplete)
	if len(entries) != 128 {
		t.Fatalf("complete tree has %d entries, want 128", len(entries))
	}
	var sawEmpty bool
	for _, e := range entries {
		if e.Tag == "" {
			sawEmpty = true
			if e.Payload != "" {
				t.Errorf("empty tag must map to empty payload, got %q", e.Payload)
			}
		}
	}
	if !sawEmpty {
		t.Error("complete tree must contain the empty tag")
	}
}

func TestBuildTreeValidRequiresSchemeAndHost(t *testing.T) {
	entries := BuildTree(SelectionValid)
	for _, e := range entries {
		if e.Tag == "" {
			continue
		}
		if e.Tag[0] != 'S' {
			t.Errorf("valid-tree tag %q does not start with scheme letter", e.Tag)
		}
		if !strings.Contains(e.Tag, "H") {
			t.Errorf("valid-tree tag %q has no host letter", e.Tag)
		}
	}
}

func TestBuildTreeEmptyIsJustEmptyTag(t *testing.T) {
	entries := BuildTree(SelectionEmpty)
	if len(entries) != 1 || entries[0].Tag != "" || entries[0].Payload != "" {
		t.Fatalf("empty-tree selection must yield exactly one entry, the empty tag: got %+v", entries)
	}
}

func TestWriteReadTreeFileRoundTrips(t *testing.T) {
	entries := BuildTree(SelectionComplete)
	path := t.TempDir() + "/tree.txt"
	if err := WriteTreeFile(path, entries); err != nil {
		t.Fatalf("WriteTreeFile: %v", err)
	}
	got, err := ReadTreeFile(path)
	if err != nil {
		t.Fatalf("ReadTreeFile: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, got[i], entries[i])
		}
	}
}

// edgeCountRunner returns, per target, a Trace with a single edge whose id is
// the payload length plus the target index, so payloads of different lengths
// produce distinguishable traces without spawning any process.
type edgeCountRunner struct {
	targets int
}

func (r edgeCountRunner) Run(_ context.Context, input []byte) (coverage.Traces, coverage.Statuses, coverage.Stdouts, error) {
	traces := make(coverage.Traces, r.targets)
	for t := 0; t < r.targets; t++ {
		traces[t] = coverage.NewTrace(len(input) + t)
	}
	statuses := make(coverage.Statuses, r.targets)
	return traces, statuses, nil, nil
}

func TestBuildCatalogueCompletenessProperty(t *testing.T) {
	entries := BuildTree(SelectionValid)
	const numTargets = 2
	pool := runner.NewPool(edgeCountRunner{targets: numTargets}, 4)

	cat, err := BuildCatalogue(context.Background(), entries, pool, numTargets)
	if err != nil {
		t.Fatalf("BuildCatalogue: %v", err)
	}

	for t := 0; t < numTargets; t++ {
		tr, ok := cat.Trace(t, "")
		if !ok {
			t.Fatalf("target %d missing the empty tag", t)
		}
		if tr.Len() != 0 {
			t.Errorf("target %d's empty tag trace is not empty: %v", t, tr.Sorted())
		}
	}
}
