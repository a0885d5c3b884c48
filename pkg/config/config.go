// Package config loads and validates the fuzzer's configuration surface
// (SPEC_FULL.md 6), following the teacher's yaml.v3-backed
// default/load/save/validate shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object, composed of nested yaml-tagged
// sub-structs per component.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Runner    RunnerConfig    `yaml:"runner"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Reduction ReductionConfig `yaml:"reduction"`
	Loop      LoopConfig      `yaml:"loop"`
	Reporting ReportingConfig `yaml:"reporting"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LoggingConfig controls LOG_LEVEL/LOG_FORMAT.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TargetSpec is one entry of TARGET_CONFIGS.
type TargetSpec struct {
	Name       string   `yaml:"name"`
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args"`
	Env        []string `yaml:"env"`
	Traced     bool     `yaml:"traced"`
}

// RunnerConfig covers SEED_DIR, TRACE_DIR, TIMEOUT_TIME,
// OUTPUT_DIFFERENTIALS_MATTER, EXIT_STATUSES_MATTER, and TARGET_CONFIGS.
type RunnerConfig struct {
	SeedDir                   string       `yaml:"seed_dir"`
	TraceDir                  string       `yaml:"trace_dir"`
	ScratchDir                string       `yaml:"scratch_dir"`
	TimeoutMillis             int          `yaml:"timeout_millis"`
	OutputDifferentialsMatter bool         `yaml:"output_differentials_matter"`
	ExitStatusesMatter        bool         `yaml:"exit_statuses_matter"`
	Targets                   []TargetSpec `yaml:"targets"`
}

// CatalogueConfig covers FUNDAMENTAL_TREE_SELECTION.
type CatalogueConfig struct {
	// TreeSelection: 0 complete, 1 valid-only, 2 empty (fundamental.Selection).
	TreeSelection int `yaml:"tree_selection"`
}

// ReductionConfig covers GRAMMAR_REDUCTIONS and MAX_BYTES_REDUCTION.
type ReductionConfig struct {
	GrammarReductions bool `yaml:"grammar_reductions"`
	MaxBytesReduction int  `yaml:"max_bytes_reduction"`
}

// LoopConfig covers ROUGH_DESIRED_QUEUE_LEN, AUTO_TERMINATION, BUG_INFO, and
// the supplemented RNG_SEED option.
type LoopConfig struct {
	RoughDesiredQueueLen   int   `yaml:"rough_desired_queue_len"`
	AutoTerminationSeconds int   `yaml:"auto_termination_seconds"` // -1 disables
	BugInfo                bool  `yaml:"bug_info"`
	RNGSeed                int64 `yaml:"rng_seed"` // 0 means "pick one and log it"
}

// ReportingConfig covers the ambient BUCKET_DIR/REPORT_DIR additions.
type ReportingConfig struct {
	BucketDir string `yaml:"bucket_dir"`
	ReportDir string `yaml:"report_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
}

// MetricsConfig covers METRICS_ADDR.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics server
}

// DefaultConfig returns a configuration with sane defaults for local runs
// against the reference URI grammar deployment.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Runner: RunnerConfig{
			SeedDir:                   "./seeds",
			TraceDir:                  "./trace",
			ScratchDir:                "./scratch",
			TimeoutMillis:             1000,
			OutputDifferentialsMatter: true,
			ExitStatusesMatter:        false,
		},
		Catalogue: CatalogueConfig{
			TreeSelection: 1, // valid-only
		},
		Reduction: ReductionConfig{
			GrammarReductions: true,
			MaxBytesReduction: 8,
		},
		Loop: LoopConfig{
			RoughDesiredQueueLen:   100,
			AutoTerminationSeconds: -1,
			BugInfo:                true,
		},
		Reporting: ReportingConfig{
			BucketDir: "./bugs",
			ReportDir: "./reports",
			KeepLastN: 50,
		},
		Metrics: MetricsConfig{
			Addr: "",
		},
	}
}

// Load loads configuration from a YAML file, starting from defaults and
// expanding environment variables in the raw bytes before unmarshalling
// (matching the teacher's env-expansion-before-parse trick). A missing file
// returns the defaults rather than an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "difffuzz.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parse file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to a YAML file; the CLI uses it to write
// a default config when none exists yet.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// Validate checks the configuration for the fatal, configuration-time errors
// named in spec.md 7 ("target binary missing", "unreadable seed directory").
// It does not touch the filesystem for directories the loop itself creates
// (trace/scratch/bucket/report dirs), only for ones it must read from.
func (c *Config) Validate() error {
	if c.Runner.SeedDir == "" {
		return fmt.Errorf("runner.seed_dir is required")
	}
	if info, err := os.Stat(c.Runner.SeedDir); err != nil || !info.IsDir() {
		return fmt.Errorf("runner.seed_dir %q is not a readable directory", c.Runner.SeedDir)
	}
	if len(c.Runner.Targets) == 0 {
		return fmt.Errorf("runner.targets must name at least one target")
	}
	for _, t := range c.Runner.Targets {
		if t.Executable == "" {
			return fmt.Errorf("runner.targets: target %q has no executable", t.Name)
		}
		if _, err := os.Stat(t.Executable); err != nil {
			return fmt.Errorf("runner.targets: executable %q for target %q: %w", t.Executable, t.Name, err)
		}
	}
	if c.Reduction.MaxBytesReduction < 1 {
		return fmt.Errorf("reduction.max_bytes_reduction must be at least 1")
	}
	if c.Loop.RoughDesiredQueueLen < 1 {
		return fmt.Errorf("loop.rough_desired_queue_len must be at least 1")
	}
	if c.Catalogue.TreeSelection < 0 || c.Catalogue.TreeSelection > 2 {
		return fmt.Errorf("catalogue.tree_selection must be 0, 1, or 2")
	}
	return nil
}
