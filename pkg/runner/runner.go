// Package runner implements the Coverage Runner contract (spec.md 4.A): the
// only place real subprocesses appear. ProcessRunner is a concrete,
// os/exec-backed implementation; Pool is the ordered worker pool required by
// spec.md 5 for the loop's batch fan-out.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jihwankim/diff-fuzz/pkg/coverage"
)

// TargetConfig describes one fuzzing target, matching the TARGET_CONFIGS
// configuration option (spec.md 6): an executable, its argv, its
// environment, and whether it is traced.
type TargetConfig struct {
	Name       string
	Executable string
	Args       []string
	Env        []string
	// Traced controls whether this target contributes an edge trace; a
	// target with Traced=false still contributes a status and stdout, like
	// execution.py's record_differentials-only targets.
	Traced bool
}

// Runner is the abstract contract the fuzz loop invokes: an input byte
// string in, a (Traces, Statuses, Stdouts) tuple out. It must be total: it
// never returns an error that the caller needs to special-case, since a
// crash or timeout is itself a legitimate observation (spec.md 7).
type Runner interface {
	Run(ctx context.Context, input []byte) (coverage.Traces, coverage.Statuses, coverage.Stdouts, error)
}

// ProcessRunner is the reference Runner implementation: per input, it spawns
// one untraced subprocess per target, plus one tracing subprocess per target
// with Traced set, reading edge coverage back from an AFL++-style
// "edge:count" trace file.
type ProcessRunner struct {
	Targets                   []TargetConfig
	TraceDir                  string
	ScratchDir                string
	Timeout                   time.Duration
	ExitStatusesMatter        bool
	OutputDifferentialsMatter bool
}

// NewProcessRunner builds a ProcessRunner. traceDir and scratchDir must
// already exist.
func NewProcessRunner(targets []TargetConfig, traceDir, scratchDir string, timeout time.Duration, exitStatusesMatter, outputDifferentialsMatter bool) *ProcessRunner {
	return &ProcessRunner{
		Targets:                   targets,
		TraceDir:                  traceDir,
		ScratchDir:                scratchDir,
		Timeout:                   timeout,
		ExitStatusesMatter:        exitStatusesMatter,
		OutputDifferentialsMatter: outputDifferentialsMatter,
	}
}

// Run implements Runner.
func (r *ProcessRunner) Run(ctx context.Context, input []byte) (coverage.Traces, coverage.Statuses, coverage.Stdouts, error) {
	scratchPath := filepath.Join(r.ScratchDir, uuid.NewString())
	if err := os.WriteFile(scratchPath, input, 0o644); err != nil {
		return nil, nil, nil, fmt.Errorf("runner: write scratch input: %w", err)
	}
	defer os.Remove(scratchPath)

	traces := make(coverage.Traces, len(r.Targets))
	rawStatuses := make([]int, len(r.Targets))
	stdouts := make(coverage.Stdouts, len(r.Targets))

	for i, tc := range r.Targets {
		if tc.Traced {
			traces[i] = r.runTraced(ctx, tc, scratchPath)
		} else {
			traces[i] = coverage.NewTrace()
		}
		status, stdout := r.runUntraced(ctx, tc, scratchPath)
		rawStatuses[i] = status
		if r.OutputDifferentialsMatter {
			stdouts[i] = stdout
		}
	}

	statuses := coverage.NormalizeStatuses(rawStatuses, r.ExitStatusesMatter)
	return traces, statuses, stdouts, nil
}

func (r *ProcessRunner) traceFilePath(tc TargetConfig, scratchPath string) string {
	return filepath.Join(r.TraceDir, fmt.Sprintf("%s.%s.trace", filepath.Base(scratchPath), tc.Name))
}

// runTraced runs the target under afl-showmap (the same wrapper convention
// execution.py used) and reads the resulting trace file back. Any failure —
// missing afl-showmap, a crashing target, a hit timeout — yields an empty
// trace rather than propagating an error; that is a legitimate observation
// per spec.md 7.
func (r *ProcessRunner) runTraced(ctx context.Context, tc TargetConfig, scratchPath string) coverage.Trace {
	traceFile := r.traceFilePath(tc, scratchPath)
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	args := []string{"-e", "-o", traceFile, "-t", strconv.FormatInt(r.Timeout.Milliseconds(), 10), "--", tc.Executable}
	args = append(args, tc.Args...)
	cmd := exec.CommandContext(runCtx, "afl-showmap", args...)
	cmd.Env = tc.Env

	in, err := os.Open(scratchPath)
	if err != nil {
		return coverage.NewTrace()
	}
	defer in.Close()
	cmd.Stdin = in

	_ = cmd.Run()

	trace, err := readTraceFile(traceFile)
	if err != nil {
		return coverage.NewTrace()
	}
	return trace
}

// runUntraced runs the target directly (no tracing wrapper) so its real
// exit status and stdout can be recovered.
func (r *ProcessRunner) runUntraced(ctx context.Context, tc TargetConfig, scratchPath string) (int, []byte) {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, tc.Executable, tc.Args...)
	cmd.Env = tc.Env

	in, err := os.Open(scratchPath)
	if err != nil {
		return -1, nil
	}
	defer in.Close()
	cmd.Stdin = in

	var stdout []byte
	if r.OutputDifferentialsMatter {
		out, _ := cmd.Output()
		stdout = out
	} else {
		_ = cmd.Run()
	}

	if cmd.ProcessState == nil {
		return -1, stdout
	}
	return cmd.ProcessState.ExitCode(), stdout
}

func readTraceFile(path string) (coverage.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	trace := coverage.Trace{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}
		edge, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		trace[edge] = struct{}{}
	}
	return trace, scanner.Err()
}
