package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsSelfConsistent(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Catalogue.TreeSelection < 0 || cfg.Catalogue.TreeSelection > 2 {
		t.Fatalf("default tree selection out of range: %d", cfg.Catalogue.TreeSelection)
	}
	if cfg.Reduction.MaxBytesReduction < 1 {
		t.Fatalf("default max bytes reduction must be >= 1")
	}
	if cfg.Loop.AutoTerminationSeconds != -1 {
		t.Fatalf("default auto-termination must be disabled (-1), got %d", cfg.Loop.AutoTerminationSeconds)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if cfg.Logging.Level != DefaultConfig().Logging.Level {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("DIFFFUZZ_TEST_SEED_DIR", "/tmp/seeds-from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "difffuzz.yaml")
	content := "runner:\n  seed_dir: \"${DIFFFUZZ_TEST_SEED_DIR}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Runner.SeedDir != "/tmp/seeds-from-env" {
		t.Fatalf("expected env-expanded seed dir, got %q", cfg.Runner.SeedDir)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.SeedDir = t.TempDir()
	path := filepath.Join(t.TempDir(), "difffuzz.yaml")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Runner.SeedDir != cfg.Runner.SeedDir {
		t.Fatalf("round trip mismatch: got %q, want %q", got.Runner.SeedDir, cfg.Runner.SeedDir)
	}
}

func TestValidateRejectsMissingSeedDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.SeedDir = filepath.Join(t.TempDir(), "nope")
	cfg.Runner.Targets = []TargetSpec{{Name: "a", Executable: "/bin/true"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing seed directory")
	}
}

func TestValidateRejectsNoTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.SeedDir = t.TempDir()
	cfg.Runner.Targets = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for no targets")
	}
}

func TestValidateRejectsMissingExecutable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.SeedDir = t.TempDir()
	cfg.Runner.Targets = []TargetSpec{{Name: "a", Executable: filepath.Join(t.TempDir(), "nope")}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing target executable")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Runner.SeedDir = t.TempDir()
	cfg.Runner.Targets = []TargetSpec{{Name: "a", Executable: "/bin/true"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}
