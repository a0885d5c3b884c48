package fundamental

import (
	"context"
	"fmt"

	"github.com/jihwankim/diff-fuzz/pkg/coverage"
	"github.com/jihwankim/diff-fuzz/pkg/runner"
)

// Catalogue is the read-only, per-target tag->Trace mapping produced by the
// Fundamental-Trace Index (spec.md 4.C). It is built once at startup and
// shared immutably across workers thereafter (spec.md 5).
//
// Per-target tag order is fixed to the order tags first appear in the
// entries BuildCatalogue is given (BuildTree's order, which a tree file
// written by WriteTreeFile preserves), which is the open-question resolution
// recorded in SPEC_FULL.md 9: classifier tie-breaking is a deterministic
// function of that order.
type Catalogue struct {
	targets []targetCatalogue
}

type targetCatalogue struct {
	order []string
	byTag map[string]coverage.Trace
}

// NumTargets returns the number of targets the catalogue covers.
func (c *Catalogue) NumTargets() int {
	return len(c.targets)
}

// Tags returns target t's tags in catalogue-file order.
func (c *Catalogue) Tags(t int) []string {
	out := make([]string, len(c.targets[t].order))
	copy(out, c.targets[t].order)
	return out
}

// Trace returns target t's Trace for tag, and whether it was present.
func (c *Catalogue) Trace(t int, tag string) (coverage.Trace, bool) {
	tr, ok := c.targets[t].byTag[tag]
	return tr, ok
}

// BuildCatalogue runs every tree entry through pool (an ordered runner.Pool)
// and assembles the Catalogue. It never runs the same tag twice within one
// pass, and unconditionally binds "" -> ∅ for every target afterward,
// regardless of what running the empty payload actually produced.
func BuildCatalogue(ctx context.Context, entries []Entry, pool *runner.Pool, numTargets int) (*Catalogue, error) {
	if numTargets < 1 {
		return nil, fmt.Errorf("fundamental: numTargets must be >= 1, got %d", numTargets)
	}

	// Deduplicate entries by tag before running, so the pool never spends a
	// worker slot re-running an already-seen tag.
	seen := make(map[string]bool, len(entries))
	unique := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Tag] {
			continue
		}
		seen[e.Tag] = true
		unique = append(unique, e)
	}

	payloads := make([][]byte, len(unique))
	for i, e := range unique {
		payloads[i] = []byte(e.Payload)
	}
	results := pool.RunAll(ctx, payloads)

	cat := &Catalogue{targets: make([]targetCatalogue, numTargets)}
	for t := 0; t < numTargets; t++ {
		cat.targets[t] = targetCatalogue{
			order: make([]string, 0, len(unique)+1),
			byTag: make(map[string]coverage.Trace, len(unique)+1),
		}
	}

	for i, e := range unique {
		res := results[i]
		if res.Err != nil || len(res.Traces) != numTargets {
			continue
		}
		for t := 0; t < numTargets; t++ {
			tc := &cat.targets[t]
			if _, ok := tc.byTag[e.Tag]; ok {
				continue
			}
			tc.order = append(tc.order, e.Tag)
			tc.byTag[e.Tag] = res.Traces[t]
		}
	}

	for t := range cat.targets {
		tc := &cat.targets[t]
		if _, ok := tc.byTag[""]; !ok {
			tc.order = append(tc.order, "")
		}
		tc.byTag[""] = coverage.NewTrace()
	}

	return cat, nil
}
