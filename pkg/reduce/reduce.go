// Package reduce implements the Reducer (spec.md/SPEC_FULL.md 4.F): a
// two-pass shrinker that takes a differential witness down to a smaller
// payload while preserving its resultprint, guarded entirely by re-running
// the witness through a runner.Runner and comparing coverage.Resultprint.
package reduce

import (
	"context"

	"github.com/jihwankim/diff-fuzz/pkg/coverage"
	"github.com/jihwankim/diff-fuzz/pkg/grammar"
	"github.com/jihwankim/diff-fuzz/pkg/runner"
)

// Config bundles the reducer's tunables, matching the GRAMMAR_REDUCTIONS and
// MAX_BYTES_REDUCTION configuration options (spec.md 6).
type Config struct {
	// Grammar is the optional grammar capability; nil disables pass 1
	// entirely, per the present-or-absent discipline in SPEC_FULL.md 9.
	Grammar grammar.Grammar
	// GrammarReductions selects a rule's canonical-minimum payload when true;
	// when false, a firing rule is deleted outright instead.
	GrammarReductions bool
	// MaxBytesReduction is the starting (largest) deletion width for pass 2.
	MaxBytesReduction int
	// OutputDifferentialsMatter mirrors the runner configuration used to
	// compute resultprints; it must match what produced the original witness.
	OutputDifferentialsMatter bool
}

// Reduce runs both passes against input and returns the shrunk form. It
// never enlarges input and never errors: a runner failure on any reduction
// attempt is treated as "does not preserve the resultprint" and the attempt
// is simply skipped (spec.md 7's "reducer never raises").
func Reduce(ctx context.Context, r runner.Runner, cfg Config, input []byte) []byte {
	target, ok := resultprintOf(ctx, r, cfg, input)
	if !ok {
		// The original witness itself doesn't run cleanly; nothing to
		// preserve against, so there is nothing safe to reduce.
		return input
	}

	result := input
	if cfg.Grammar != nil {
		result = peelGrammar(ctx, r, cfg, target, result)
	}
	result = deleteBytes(ctx, r, cfg, target, result)
	return result
}

func resultprintOf(ctx context.Context, r runner.Runner, cfg Config, input []byte) (coverage.Resultprint, bool) {
	_, statuses, stdouts, err := r.Run(ctx, input)
	if err != nil {
		return 0, false
	}
	return coverage.ResultprintOf(statuses, stdouts, cfg.OutputDifferentialsMatter), true
}

func preserves(ctx context.Context, r runner.Runner, cfg Config, target coverage.Resultprint, candidate []byte) bool {
	got, ok := resultprintOf(ctx, r, cfg, candidate)
	return ok && got == target
}

// peelGrammar implements pass 1: repeatedly try replacing one not-yet-peeled
// firing rule with its canonical minimum (or deleting it, if
// GrammarReductions is off), accepting the first substitution per sweep that
// preserves the resultprint and restarting the sweep so later matches
// re-anchor against the shrunk candidate.
func peelGrammar(ctx context.Context, r runner.Runner, cfg Config, target coverage.Resultprint, candidate []byte) []byte {
	peeled := make(map[string]bool)
	for {
		matches := cfg.Grammar.Match(candidate)
		if len(matches) == 0 {
			return candidate
		}

		accepted := false
		for _, rule := range cfg.Grammar.Rules() {
			capture, fired := matches[rule]
			if !fired || capture == "" || peeled[rule] {
				continue
			}

			idx := indexOf(candidate, capture)
			if idx < 0 {
				continue
			}

			var replacement []byte
			if cfg.GrammarReductions {
				replacement = cfg.Grammar.Reduction(rule)
			}

			proposal := make([]byte, 0, len(candidate)-len(capture)+len(replacement))
			proposal = append(proposal, candidate[:idx]...)
			proposal = append(proposal, replacement...)
			proposal = append(proposal, candidate[idx+len(capture):]...)

			if preserves(ctx, r, cfg, target, proposal) {
				candidate = proposal
				peeled[rule] = true
				accepted = true
				break
			}
		}

		if !accepted {
			return candidate
		}
	}
}

// deleteBytes implements pass 2: for each width from MaxBytesReduction down
// to 1, scan forward proposing to delete the W-byte window at i, accepting
// (and holding i steady) whenever the resultprint is preserved, advancing i
// on rejection, until no deletion of that width is accepted anywhere.
func deleteBytes(ctx context.Context, r runner.Runner, cfg Config, target coverage.Resultprint, candidate []byte) []byte {
	for width := cfg.MaxBytesReduction; width >= 1; width-- {
		if width > len(candidate) {
			continue
		}
		for {
			i := 0
			acceptedThisWidth := false
			for i+width <= len(candidate) {
				proposal := make([]byte, 0, len(candidate)-width)
				proposal = append(proposal, candidate[:i]...)
				proposal = append(proposal, candidate[i+width:]...)

				if preserves(ctx, r, cfg, target, proposal) {
					candidate = proposal
					acceptedThisWidth = true
					continue
				}
				i++
			}
			if !acceptedThisWidth {
				break
			}
		}
	}
	return candidate
}

func indexOf(haystack []byte, needle string) int {
	n := len(needle)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == needle {
			return i
		}
	}
	return -1
}
