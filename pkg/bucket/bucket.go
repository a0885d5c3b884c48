// Package bucket implements Bucketing & Summary (spec.md/SPEC_FULL.md 4.I):
// the on-disk bugs/<bugprint>/ witness tree and the in-memory tallies that
// feed the end-of-run report.
package bucket

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

// Record is one bugprint's accumulated state: how many witnesses were seen,
// and up to maxExamples of their reduced forms, kept for the run report.
type Record struct {
	Bugprint       string
	Kind           string // "exit" or "output"
	Count          int
	Examples       [][]byte
	Classification []string
}

// Bucket owns the bugs/ directory tree and the in-memory tallies for one
// run. It is touched only by the loop coordinator (spec.md 5's
// single-writer discipline).
type Bucket struct {
	root        string
	maxExamples int
	records     map[string]*Record
	order       []string
}

// New creates a Bucket rooted at dir. It does not touch the filesystem
// until Purge or Record is called.
func New(dir string, maxExamples int) *Bucket {
	if maxExamples < 1 {
		maxExamples = 1
	}
	return &Bucket{
		root:        dir,
		maxExamples: maxExamples,
		records:     make(map[string]*Record),
	}
}

// Purge removes every subdirectory of root (and its contents) before a run
// starts, matching original_source/bug_localization.py's
// clear_bugprint_records, then recreates root itself.
func (b *Bucket) Purge() error {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(b.root, 0o755)
		}
		return fmt.Errorf("bucket: read root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(b.root, e.Name())); err != nil {
			return fmt.Errorf("bucket: purge %s: %w", e.Name(), err)
		}
	}
	return os.MkdirAll(b.root, 0o755)
}

// Record copies witness (the original differential bytes) and reduced (the
// reducer's output) into bugs/<bugprint>/ under hash-derived filenames,
// bumps the in-memory count, and remembers up to maxExamples reduced forms.
func (b *Bucket) Record(bugprint string, kind string, witness, reduced []byte, classification []string) error {
	dir := filepath.Join(b.root, bugprint)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("bucket: create %s: %w", bugprint, err)
	}

	witnessPath := filepath.Join(dir, fileHash(witness)+".input")
	if err := os.WriteFile(witnessPath, witness, 0o644); err != nil {
		return fmt.Errorf("bucket: write witness: %w", err)
	}

	reductionPath := filepath.Join(dir, fileHash(reduced)+".reduction")
	if err := os.WriteFile(reductionPath, reduced, 0o644); err != nil {
		return fmt.Errorf("bucket: write reduction: %w", err)
	}

	rec, ok := b.records[bugprint]
	if !ok {
		rec = &Record{Bugprint: bugprint, Kind: kind}
		b.records[bugprint] = rec
		b.order = append(b.order, bugprint)
	}
	rec.Count++
	if len(rec.Examples) < b.maxExamples {
		cp := make([]byte, len(reduced))
		copy(cp, reduced)
		rec.Examples = append(rec.Examples, cp)
	}
	if len(classification) > 0 {
		rec.Classification = classification
	}
	return nil
}

// Records returns the accumulated per-bugprint tallies in first-seen order.
func (b *Bucket) Records() []Record {
	out := make([]Record, 0, len(b.order))
	for _, tag := range b.order {
		out = append(out, *b.records[tag])
	}
	return out
}

// TotalBugs returns the sum of all per-bugprint counts.
func (b *Bucket) TotalBugs() int {
	total := 0
	for _, r := range b.records {
		total += r.Count
	}
	return total
}

// UniqueBugprints returns the number of distinct bugprints recorded.
func (b *Bucket) UniqueBugprints() int {
	return len(b.records)
}

// CountByKind returns the number of witnesses recorded for each kind.
func (b *Bucket) CountByKind() (exit, output int) {
	for _, r := range b.records {
		switch r.Kind {
		case "exit":
			exit += r.Count
		case "output":
			output += r.Count
		}
	}
	return exit, output
}

func fileHash(b []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(b)
	sum := h.Sum64()
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf)
}
