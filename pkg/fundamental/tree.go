// Package fundamental implements the Fundamental-Tree Builder (spec.md
// 4.B) and Fundamental-Trace Index (spec.md 4.C): the catalogue of
// canonical minimal inputs and the per-target coverage sets they produce.
package fundamental

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Selection picks which fundamental tree to build, per the
// FUNDAMENTAL_TREE_SELECTION configuration option.
type Selection int

const (
	SelectionComplete Selection = 0 // all 2^7 combinations
	SelectionValid    Selection = 1 // scheme+host present only, plus the empty tag
	SelectionEmpty    Selection = 2 // just the empty payload
)

// Entry is one tag=payload pair in the fundamental tree.
type Entry struct {
	Tag     string
	Payload string
}

// component is one optional URI piece contributing one letter to the tag.
type component struct {
	letter string
	frag   string
}

// mergeOrder is the fixed S, U, H, O, P, Q, F composition order; tag letters
// always appear in this order within a tag, and this order is what later
// makes catalogue iteration order well-defined (see SPEC_FULL.md 9).
var mergeOrder = []component{
	{"S", "s://"},
	{"U", "u@"},
	{"H", "h"},
	{"O", ":1"},
	{"P", "/p"},
	{"Q", "?q"},
	{"F", "#f"},
}

var authorities = []component{
	{"H", "h"},
	{"HO", "h:1"},
	{"UH", "u@h"},
	{"UHO", "u@h:1"},
}

var endings = []component{
	{"P", "/p"},
	{"PQ", "/p?q"},
	{"PQF", "/p?q#f"},
	{"PF", "/p#f"},
	{"", ""},
	{"Q", "?q"},
	{"QF", "?q#f"},
	{"F", "#f"},
}

// BuildTree enumerates the tag->payload catalogue for the given selection,
// in the same iteration order a re-build would produce (idempotent).
func BuildTree(selection Selection) []Entry {
	switch selection {
	case SelectionValid:
		return buildValidTree()
	case SelectionEmpty:
		return []Entry{{Tag: "", Payload: ""}}
	default:
		return buildCompleteTree()
	}
}

func buildCompleteTree() []Entry {
	tree := []Entry{{Tag: "", Payload: ""}}
	for _, c := range mergeOrder {
		tree = mergePossibilities(tree, c)
	}
	return tree
}

// mergePossibilities extends every entry in base with c (tag+letter,
// payload+frag) and without it, letter-variant first — matching the
// original's dict literal iteration order {letter: frag, "": ""}.
func mergePossibilities(base []Entry, c component) []Entry {
	merged := make([]Entry, 0, len(base)*2)
	for _, b := range base {
		merged = append(merged, Entry{Tag: b.Tag + c.letter, Payload: b.Payload + c.frag})
		merged = append(merged, Entry{Tag: b.Tag, Payload: b.Payload})
	}
	return merged
}

func buildValidTree() []Entry {
	const startKey = "S"
	const start = "s://"

	schemeAuth := make([]Entry, 0, len(authorities))
	for _, a := range authorities {
		schemeAuth = append(schemeAuth, Entry{Tag: startKey + a.letter, Payload: start + a.frag})
	}

	standard := make([]Entry, 0, len(endings)*len(schemeAuth)+1)
	for _, e := range endings {
		for _, curr := range schemeAuth {
			standard = append(standard, Entry{Tag: curr.Tag + e.letter, Payload: curr.Payload + e.frag})
		}
	}
	standard = append(standard, Entry{Tag: "", Payload: ""})
	return standard
}

// WriteTreeFile writes one "tag=payload" line per entry, matching the
// external tree-file format (spec.md 6).
func WriteTreeFile(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fundamental: create tree file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if strings.Contains(e.Payload, "\n") {
			return fmt.Errorf("fundamental: payload for tag %q contains a newline", e.Tag)
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", e.Tag, e.Payload); err != nil {
			return fmt.Errorf("fundamental: write tree file: %w", err)
		}
	}
	return w.Flush()
}

// ReadTreeFile parses a tree file written by WriteTreeFile, preserving line
// order.
func ReadTreeFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fundamental: open tree file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		entries = append(entries, Entry{Tag: line[:idx], Payload: line[idx+1:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fundamental: read tree file: %w", err)
	}
	return entries, nil
}
