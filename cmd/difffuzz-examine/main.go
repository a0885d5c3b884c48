// Command difffuzz-examine classifies every file in a directory against the
// fundamental-trace catalogue, printing each file's bugprint. It mirrors
// original_source/bug_examine.py: a standalone inspection tool for a
// directory of witnesses collected outside (or from an earlier run of) the
// main fuzzer.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jihwankim/diff-fuzz/pkg/classify"
	"github.com/jihwankim/diff-fuzz/pkg/config"
	"github.com/jihwankim/diff-fuzz/pkg/fundamental"
	"github.com/jihwankim/diff-fuzz/pkg/runner"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <directory-of-witnesses>\n", os.Args[0])
		os.Exit(1)
	}
	dirName := os.Args[1]

	info, err := os.Stat(dirName)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "not a directory: %s\n", dirName)
		os.Exit(1)
	}

	configPath := os.Getenv("DIFFFUZZ_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	appCfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
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
	pool := runner.NewPool(processRunner, runner.DefaultWorkerCount(len(targets)))

	ctx := context.Background()
	entries := fundamental.BuildTree(fundamental.Selection(appCfg.Catalogue.TreeSelection))
	catalogue, err := fundamental.BuildCatalogue(ctx, entries, pool, len(targets))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build fundamental catalogue: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bugprint File: %s\n", dirName)

	files, err := os.ReadDir(dirName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read directory: %v\n", err)
		os.Exit(1)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		fmt.Printf("\n%s\n", f.Name())

		input, err := os.ReadFile(filepath.Join(dirName, f.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", f.Name(), err)
			continue
		}

		traces, _, _, err := processRunner.Run(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run %s: %v\n", f.Name(), err)
			continue
		}

		result := classify.ClassifyAndBugprint(traces, catalogue)
		fmt.Printf("Bugprint: %016x\n", uint64(result.Bugprint))
	}
}
