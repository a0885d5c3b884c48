package runner

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jihwankim/diff-fuzz/pkg/coverage"
)

// Result is one input's observation from a batch run.
type Result struct {
	Traces   coverage.Traces
	Statuses coverage.Statuses
	Stdouts  coverage.Stdouts
	Err      error
}

// Pool is the ordered streaming worker pool spec.md 5 requires: results are
// written to a pre-sized, index-addressed slice rather than appended as
// goroutines finish, so RunAll's return value always aligns positionally
// with its input slice regardless of completion order.
type Pool struct {
	runner  Runner
	workers int
}

// NewPool builds a Pool with the given worker concurrency (minimum 1).
func NewPool(r Runner, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{runner: r, workers: workers}
}

// DefaultWorkerCount implements spec.md 5's advisory worker-count policy:
// max(1, cpu_count / (2 * targets)).
func DefaultWorkerCount(targets int) int {
	if targets < 1 {
		targets = 1
	}
	n := runtime.NumCPU() / (2 * targets)
	if n < 1 {
		return 1
	}
	return n
}

// RunAll runs every input through the pool's Runner and returns results in
// input-submission order. A single input's runner error never aborts the
// batch: it is recorded on that input's Result and the rest proceed.
func (p *Pool) RunAll(ctx context.Context, inputs [][]byte) []Result {
	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			traces, statuses, stdouts, err := p.runner.Run(gctx, input)
			results[i] = Result{Traces: traces, Statuses: statuses, Stdouts: stdouts, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
