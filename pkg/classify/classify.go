// Package classify implements the Bugprint Classifier (spec.md 4.D): it
// maps a witness's per-target traces onto the nearest fundamental-tree tag,
// builds a cross-target DifferenceProfile, and hashes it into a Bugprint.
package classify

import (
	"github.com/jihwankim/diff-fuzz/pkg/coverage"
	"github.com/jihwankim/diff-fuzz/pkg/fundamental"
)

// Classification is the per-target tuple of chosen catalogue tags.
type Classification []string

// DifferenceProfile is the targets×targets matrix of hashes described in
// spec.md 3: the diagonal is 0, and entry (i, j) for i != j is
// hash(cat[i][classification[j]] − traces[i]), where an empty difference
// hashes to 0 (so all-empty traces give an all-zero profile).
type DifferenceProfile [][]uint64

// Bugprint is the deterministic hash of a DifferenceProfile.
type Bugprint uint64

// Classify picks, for each target, the catalogue tag minimizing
// symmetric-difference distance to that target's observed trace. Ties do
// not update the running best (first strict improvement wins), and the
// running best starts at ("", distance-from-empty-trace) so a result is
// always defined even with an empty catalogue iteration.
//
// Iteration follows cat.Tags(t), which is catalogue-file order — this is
// the tie-break discipline SPEC_FULL.md 9 fixes explicitly.
func Classify(traces coverage.Traces, cat *fundamental.Catalogue) Classification {
	n := len(traces)
	classification := make(Classification, n)
	for t := 0; t < n; t++ {
		bestTag := ""
		bestDist := traces[t].Len()
		for _, tag := range cat.Tags(t) {
			catTrace, ok := cat.Trace(t, tag)
			if !ok {
				continue
			}
			d := catTrace.SymmetricDifferenceLen(traces[t])
			if d < bestDist {
				bestDist = d
				bestTag = tag
			}
		}
		classification[t] = bestTag
	}
	return classification
}

// DifferenceProfileOf builds the cross-target distance matrix given an
// already-computed Classification.
func DifferenceProfileOf(traces coverage.Traces, cat *fundamental.Catalogue, classification Classification) DifferenceProfile {
	n := len(traces)
	profile := make(DifferenceProfile, n)
	for i := 0; i < n; i++ {
		profile[i] = make([]uint64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			peerTrace, _ := cat.Trace(i, classification[j])
			diff := peerTrace.Difference(traces[i])
			if diff.Len() == 0 {
				continue
			}
			profile[i][j] = coverage.HashTrace(diff)
		}
	}
	return profile
}

// BugprintOf hashes a DifferenceProfile in fixed row-major order.
func BugprintOf(profile DifferenceProfile) Bugprint {
	flat := make([]uint64, 0)
	for _, row := range profile {
		flat = append(flat, row...)
	}
	return Bugprint(coverage.HashUint64s(flat))
}

// Result bundles everything ClassifyAndBugprint computes; pkg/loop and
// cmd/difffuzz-examine each use the parts they need.
type Result struct {
	Classification Classification
	Profile        DifferenceProfile
	Bugprint       Bugprint
}

// ClassifyAndBugprint runs the full classifier pipeline (spec.md 4.D steps
// 1-3) in one call.
func ClassifyAndBugprint(traces coverage.Traces, cat *fundamental.Catalogue) Result {
	classification := Classify(traces, cat)
	profile := DifferenceProfileOf(traces, cat, classification)
	return Result{
		Classification: classification,
		Profile:        profile,
		Bugprint:       BugprintOf(profile),
	}
}
