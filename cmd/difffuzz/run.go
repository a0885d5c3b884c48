package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jihwankim/diff-fuzz/pkg/bucket"
	"github.com/jihwankim/diff-fuzz/pkg/fundamental"
	"github.com/jihwankim/diff-fuzz/pkg/grammar"
	"github.com/jihwankim/diff-fuzz/pkg/loop"
	"github.com/jihwankim/diff-fuzz/pkg/reporting"
	"github.com/jihwankim/diff-fuzz/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a differential fuzzing session until the queue runs dry",
	Long: `Run loads the seed corpus, builds the fundamental-trace catalogue, and drives
generations of mutation against the configured targets until no mutation
candidates remain, the process is interrupted, or the auto-termination
budget elapses. Minimized differentials are bucketed under bugs/<bugprint>/
and a run report is written under the reporting directory.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int64("seed", 0, "RNG seed (overrides config, 0 = use config value)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		appCfg.Loop.RNGSeed = seed
	}

	logLevel := reporting.LogLevel(appCfg.Logging.Level)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(appCfg.Logging.Format),
		Output: os.Stdout,
	})

	if appCfg.Loop.RNGSeed == 0 {
		appCfg.Loop.RNGSeed = time.Now().UnixNano()
	}
	logger.Info("mutator rng seed", "seed", appCfg.Loop.RNGSeed)

	for _, dir := range []string{appCfg.Runner.TraceDir, appCfg.Runner.ScratchDir, appCfg.Reporting.BucketDir, appCfg.Reporting.ReportDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	targets := make([]runner.TargetConfig, len(appCfg.Runner.Targets))
	for i, t := range appCfg.Runner.Targets {
		targets[i] = runner.TargetConfig{
			Name:       t.Name,
			Executable: t.Executable,
			Args:       t.Args,
			Env:        t.Env,
			Traced:     t.Traced,
		}
	}

	processRunner := runner.NewProcessRunner(
		targets,
		appCfg.Runner.TraceDir,
		appCfg.Runner.ScratchDir,
		time.Duration(appCfg.Runner.TimeoutMillis)*time.Millisecond,
		appCfg.Runner.ExitStatusesMatter,
		appCfg.Runner.OutputDifferentialsMatter,
	)

	workers := runner.DefaultWorkerCount(len(targets))
	pool := runner.NewPool(processRunner, workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("building fundamental-trace catalogue", "selection", appCfg.Catalogue.TreeSelection)
	entries := fundamental.BuildTree(fundamental.Selection(appCfg.Catalogue.TreeSelection))
	catalogue, err := fundamental.BuildCatalogue(ctx, entries, pool, len(targets))
	if err != nil {
		return fmt.Errorf("build fundamental catalogue: %w", err)
	}

	seeds, err := loop.LoadSeeds(appCfg.Runner.SeedDir)
	if err != nil {
		return fmt.Errorf("load seeds: %w", err)
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seed inputs found under %s", appCfg.Runner.SeedDir)
	}

	b := bucket.New(appCfg.Reporting.BucketDir, 5)
	if err := b.Purge(); err != nil {
		return fmt.Errorf("purge bugs directory: %w", err)
	}

	metrics := reporting.NewMetrics()
	if err := metrics.Serve(appCfg.Metrics.Addr); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = metrics.Shutdown(shutdownCtx)
	}()

	loopCfg := loop.Config{
		RoughDesiredQueueLen:      appCfg.Loop.RoughDesiredQueueLen,
		AutoTerminationSeconds:    appCfg.Loop.AutoTerminationSeconds,
		BugInfo:                   appCfg.Loop.BugInfo,
		GrammarReductions:         appCfg.Reduction.GrammarReductions,
		MaxBytesReduction:         appCfg.Reduction.MaxBytesReduction,
		OutputDifferentialsMatter: appCfg.Runner.OutputDifferentialsMatter,
		RNGSeed:                   appCfg.Loop.RNGSeed,
	}
	coordinator := loop.New(loopCfg, processRunner, pool, catalogue, grammar.NewURIGrammar(), b, metrics, logger)

	start := time.Now()
	witnesses, reason := coordinator.Run(ctx, seeds)
	wallClock := time.Since(start)
	logger.Info("run finished", "reason", reason, "witnesses", len(witnesses), "wall_clock", wallClock.String())

	runReport := buildRunReport(reason, wallClock, b, coordinator)

	storage, err := reporting.NewStorage(appCfg.Reporting.ReportDir, appCfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("open report storage: %w", err)
	}
	if _, err := storage.SaveReport(runReport); err != nil {
		logger.Warn("failed to persist run report", "error", err)
	}

	reporting.WriteSummary(os.Stderr, runReport)
	return nil
}

func buildRunReport(reason string, wallClock time.Duration, b *bucket.Bucket, coordinator *loop.Loop) *reporting.RunReport {
	now := time.Now()
	exitDiffs, outputDiffs := b.CountByKind()

	bugs := make([]reporting.BugSummary, 0, len(b.Records()))
	for _, rec := range b.Records() {
		examples := make([]string, 0, len(rec.Examples))
		for _, ex := range rec.Examples {
			examples = append(examples, string(ex))
		}
		bugs = append(bugs, reporting.BugSummary{
			Bugprint:          rec.Bugprint,
			Kind:              rec.Kind,
			Count:             rec.Count,
			ExampleReductions: examples,
			Classification:    rec.Classification,
		})
	}

	return &reporting.RunReport{
		RunID:                uuid.NewString(),
		StartTime:            now.Add(-wallClock),
		EndTime:              now,
		WallClock:            wallClock.String(),
		TerminationReason:    reason,
		TotalInputsRun:       coordinator.TotalInputsRun(),
		FingerprintsExplored: coordinator.FingerprintsExplored(),
		GenerationsCompleted: coordinator.GenerationsCompleted(),
		TotalBugs:            b.TotalBugs(),
		UniqueBugprints:      b.UniqueBugprints(),
		ExitDifferentials:    exitDiffs,
		OutputDifferentials:  outputDiffs,
		Bugs:                 bugs,
	}
}
