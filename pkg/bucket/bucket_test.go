package bucket

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPurgeOnFreshDirIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bugs")
	b := New(dir, 5)
	if err := b.Purge(); err != nil {
		t.Fatalf("Purge on fresh dir: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("root must exist after Purge: %v", err)
	}
}

func TestPurgeRemovesExistingBugprintDirs(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "deadbeef")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "x.input"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := New(root, 5)
	if err := b.Purge(); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale bugprint dir should be gone, stat err = %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("root should still exist: %v", err)
	}
}

func TestRecordCreatesWitnessAndReductionFiles(t *testing.T) {
	root := t.TempDir()
	b := New(root, 5)

	if err := b.Record("abc123", "exit", []byte("scheme://host/path"), []byte("s://h"), []string{"A", "B"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	dir := filepath.Join(root, "abc123")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var sawInput, sawReduction bool
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".input":
			sawInput = true
		case ".reduction":
			sawReduction = true
		}
	}
	if !sawInput || !sawReduction {
		t.Fatalf("expected one .input and one .reduction file, got %v", entries)
	}

	recs := b.Records()
	if len(recs) != 1 {
		t.Fatalf("Records() len = %d, want 1", len(recs))
	}
	if recs[0].Count != 1 || recs[0].Kind != "exit" {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if len(recs[0].Classification) != 2 {
		t.Fatalf("expected classification to be recorded, got %v", recs[0].Classification)
	}
}

func TestRecordAccumulatesCountAcrossCalls(t *testing.T) {
	root := t.TempDir()
	b := New(root, 2)

	for i := 0; i < 3; i++ {
		if err := b.Record("dup", "output", []byte{byte(i)}, []byte{byte(i)}, nil); err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
	}

	recs := b.Records()
	if len(recs) != 1 {
		t.Fatalf("expected a single bugprint bucket, got %d", len(recs))
	}
	if recs[0].Count != 3 {
		t.Fatalf("Count = %d, want 3", recs[0].Count)
	}
	if len(recs[0].Examples) != 2 {
		t.Fatalf("Examples should be capped at maxExamples=2, got %d", len(recs[0].Examples))
	}
	if b.TotalBugs() != 3 {
		t.Fatalf("TotalBugs() = %d, want 3", b.TotalBugs())
	}
	if b.UniqueBugprints() != 1 {
		t.Fatalf("UniqueBugprints() = %d, want 1", b.UniqueBugprints())
	}
}

func TestCountByKindSplitsExitAndOutput(t *testing.T) {
	root := t.TempDir()
	b := New(root, 5)

	if err := b.Record("e1", "exit", []byte("a"), []byte("a"), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Record("o1", "output", []byte("b"), []byte("b"), nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Record("o1", "output", []byte("c"), []byte("c"), nil); err != nil {
		t.Fatal(err)
	}

	exit, output := b.CountByKind()
	if exit != 1 || output != 2 {
		t.Fatalf("CountByKind() = (%d, %d), want (1, 2)", exit, output)
	}
}

func TestRecordsPreservesFirstSeenOrder(t *testing.T) {
	root := t.TempDir()
	b := New(root, 5)

	for _, tag := range []string{"zzz", "aaa", "mmm"} {
		if err := b.Record(tag, "exit", []byte(tag), []byte(tag), nil); err != nil {
			t.Fatal(err)
		}
	}

	recs := b.Records()
	got := []string{recs[0].Bugprint, recs[1].Bugprint, recs[2].Bugprint}
	want := []string{"zzz", "aaa", "mmm"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Records() order = %v, want %v", got, want)
		}
	}
}
