// Package loop implements the Fuzz Loop coordinator (spec.md 4.H): the
// generational drive that turns a seed queue into an explored-fingerprint
// set, a pile of minimized differentials, and a bugprint-bucketed report.
package loop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jihwankim/diff-fuzz/pkg/bucket"
	"github.com/jihwankim/diff-fuzz/pkg/classify"
	"github.com/jihwankim/diff-fuzz/pkg/coverage"
	"github.com/jihwankim/diff-fuzz/pkg/fundamental"
	"github.com/jihwankim/diff-fuzz/pkg/grammar"
	"github.com/jihwankim/diff-fuzz/pkg/mutate"
	"github.com/jihwankim/diff-fuzz/pkg/reduce"
	"github.com/jihwankim/diff-fuzz/pkg/reporting"
	"github.com/jihwankim/diff-fuzz/pkg/runner"
)

// Config holds everything the loop needs beyond the runner pool itself.
type Config struct {
	RoughDesiredQueueLen      int
	AutoTerminationSeconds    int // -1 disables
	BugInfo                   bool
	GrammarReductions         bool
	MaxBytesReduction         int
	OutputDifferentialsMatter bool
	RNGSeed                   int64
}

// Loop is the single-writer coordinator spec.md 5 describes: one goroutine
// drives generations; the only concurrency is inside the worker pool it
// hands batches to.
type Loop struct {
	cfg       Config
	pool      *runner.Pool
	runner    runner.Runner
	catalogue *fundamental.Catalogue
	grammar   grammar.Grammar
	bucket    *bucket.Bucket
	metrics   *reporting.Metrics
	logger    *reporting.Logger
	sampler   *mutate.Sampler

	explored   map[coverage.Fingerprint]bool
	minimized  map[coverage.Fingerprint]bool
	generation int
	totalRun   int
}

// New builds a Loop. cat may be nil if no fundamental tree was built (no
// classification is then made, and a witness's bugprint is the coverage
// fingerprint of its reduced form); g may be
// nil if no grammar is configured for the seed corpus's format.
func New(cfg Config, r runner.Runner, pool *runner.Pool, cat *fundamental.Catalogue, g grammar.Grammar, b *bucket.Bucket, m *reporting.Metrics, logger *reporting.Logger) *Loop {
	if cfg.RoughDesiredQueueLen < 1 {
		cfg.RoughDesiredQueueLen = 1
	}
	return &Loop{
		cfg:       cfg,
		runner:    r,
		pool:      pool,
		catalogue: cat,
		grammar:   g,
		bucket:    b,
		metrics:   m,
		logger:    logger,
		sampler:   mutate.NewSampler(cfg.RNGSeed, g),
		explored:  make(map[coverage.Fingerprint]bool),
		minimized: make(map[coverage.Fingerprint]bool),
	}
}

// Witness is one minimized, bucketed differential surfaced during a run.
type Witness struct {
	Bugprint       string
	Kind           string // "exit" or "output"
	Original       []byte
	Reduced        []byte
	Classification []string
}

// Run drives generations until the input queue runs dry, ctx is cancelled,
// or the auto-termination wall clock elapses. It returns the accumulated
// witnesses and the termination reason, mirroring
// original_source/diff_fuzz.py's main() loop.
func (l *Loop) Run(ctx context.Context, seeds [][]byte) ([]Witness, string) {
	var deadline <-chan time.Time
	if l.cfg.AutoTerminationSeconds >= 0 {
		timer := time.NewTimer(time.Duration(l.cfg.AutoTerminationSeconds) * time.Second)
		defer timer.Stop()
		deadline = timer.C
	}

	queue := make([][]byte, len(seeds))
	copy(queue, seeds)

	var witnesses []Witness
	reason := "No More Mutation Candidates"

	for len(queue) != 0 {
		select {
		case <-ctx.Done():
			reason = "Keyboard Interrupt"
			return witnesses, reason
		case <-deadline:
			reason = fmt.Sprintf("Auto-Termination after %d seconds", l.cfg.AutoTerminationSeconds)
			return witnesses, reason
		default:
		}

		if l.logger != nil {
			l.logger.Info("starting generation", "generation", l.generation, "queue_len", len(queue))
		}

		results := l.pool.RunAll(ctx, queue)
		l.totalRun += len(queue)

		var candidates, differentials [][]byte

		for i, res := range results {
			if res.Err != nil {
				continue
			}
			fp := coverage.FingerprintOf(res.Traces)
			if l.explored[fp] {
				continue
			}
			l.explored[fp] = true
			if l.metrics != nil {
				l.metrics.IncFingerprintsExplored(1)
			}

			if coverage.IsDifferential(res.Statuses, res.Stdouts, l.cfg.OutputDifferentialsMatter) {
				differentials = append(differentials, queue[i])
			} else {
				candidates = append(candidates, queue[i])
			}
		}

		for _, d := range differentials {
			select {
			case <-deadline:
				return witnesses, fmt.Sprintf("Auto-Termination after %d seconds", l.cfg.AutoTerminationSeconds)
			default:
			}
			w := l.reduceAndBucket(ctx, d)
			if w != nil {
				witnesses = append(witnesses, *w)
			}
		}

		queue = nil
		for len(candidates) != 0 && len(queue) < l.cfg.RoughDesiredQueueLen {
			queue = append(queue, l.sampler.MutateAll(candidates)...)
		}

		if l.metrics != nil {
			l.metrics.IncGeneration()
			l.metrics.SetQueueLength(len(queue))
		}
		if l.logger != nil {
			l.logger.Info("end of generation",
				"generation", l.generation,
				"differentials", len(witnesses),
				"mutation_candidates", len(candidates),
				"bugprints", describeWitnesses(witnesses))
		}
		l.generation++
	}

	return witnesses, reason
}

// FingerprintsExplored returns the number of distinct fingerprints seen so
// far, for run-report purposes.
func (l *Loop) FingerprintsExplored() int {
	return len(l.explored)
}

// GenerationsCompleted returns how many generations Run has finished.
func (l *Loop) GenerationsCompleted() int {
	return l.generation
}

// TotalInputsRun returns the cumulative number of inputs fed to the runner
// pool across all generations.
func (l *Loop) TotalInputsRun() int {
	return l.totalRun
}

// reduceAndBucket minimizes one differential input, classifies its
// minimized trace into a bugprint, dedupes against already-seen minimized
// coverage fingerprints, and records a surviving witness into the bucket.
func (l *Loop) reduceAndBucket(ctx context.Context, input []byte) *Witness {
	reduceCfg := reduce.Config{
		Grammar:                   l.grammar,
		GrammarReductions:         l.cfg.GrammarReductions,
		MaxBytesReduction:         l.cfg.MaxBytesReduction,
		OutputDifferentialsMatter: l.cfg.OutputDifferentialsMatter,
	}
	reduced := reduce.Reduce(ctx, l.runner, reduceCfg, input)

	traces, statuses, _, err := l.runner.Run(ctx, reduced)
	if err != nil {
		return nil
	}
	fp := coverage.FingerprintOf(traces)
	if l.minimized[fp] {
		return nil
	}
	l.minimized[fp] = true

	kind := "output"
	if coverage.IsExitDifferential(statuses) {
		kind = "exit"
	}

	var classification classify.Classification
	var bugprintHex string
	if l.catalogue != nil {
		result := classify.ClassifyAndBugprint(traces, l.catalogue)
		classification = result.Classification
		bugprintHex = fmt.Sprintf("%016x", uint64(result.Bugprint))
	} else {
		bugprintHex = fmt.Sprintf("%016x", uint64(fp))
	}

	var classSlice []string
	if l.cfg.BugInfo {
		classSlice = []string(classification)
	}

	if l.bucket != nil {
		if err := l.bucket.Record(bugprintHex, kind, input, reduced, classSlice); err != nil && l.logger != nil {
			l.logger.Warn("failed to record bugprint witness", "bugprint", bugprintHex, "error", err)
		}
	}
	if l.metrics != nil {
		l.metrics.IncBug(bugprintHex)
	}

	return &Witness{
		Bugprint:       bugprintHex,
		Kind:           kind,
		Original:       input,
		Reduced:        reduced,
		Classification: classSlice,
	}
}

// LoadSeeds reads every regular file directly under dir as a seed input,
// matching SEED_DIR's role in SPEC_FULL.md 6.
func LoadSeeds(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loop: read seed dir: %w", err)
	}
	var seeds [][]byte
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("loop: read seed %s: %w", e.Name(), err)
		}
		seeds = append(seeds, b)
	}
	return seeds, nil
}

// describeWitnesses renders a short human summary for stderr progress logs.
func describeWitnesses(ws []Witness) string {
	var sb strings.Builder
	for _, w := range ws {
		fmt.Fprintf(&sb, "%s[%s] ", w.Bugprint, w.Kind)
	}
	return sb.String()
}
