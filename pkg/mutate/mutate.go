// Package mutate implements the Mutator (spec.md/SPEC_FULL.md 4.G): a
// seeded-RNG-owning Sampler that assembles a length- and
// grammar-availability-conditional pool of byte- and grammar-level mutators
// and applies one uniformly at random.
package mutate

import (
	"math/rand"
	"sort"

	"github.com/jihwankim/diff-fuzz/pkg/grammar"
)

// mutator is one candidate transformation in the pool.
type mutator func(rng *rand.Rand, b []byte) []byte

// Sampler holds a seeded RNG and the optional grammar capability, and
// produces mutated byte strings on demand.
type Sampler struct {
	rng     *rand.Rand
	grammar grammar.Grammar
}

// NewSampler creates a Sampler seeded with the given value. g may be nil, in
// which case grammar_mutate is never offered.
func NewSampler(seed int64, g grammar.Grammar) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed)), grammar: g} //nolint:gosec
}

// Mutate assembles the mutator pool for b and applies one uniformly at
// random, matching the pool composition rules in spec.md 4.G:
//   - byteInsert is always present.
//   - byteChange requires len(b) >= 1.
//   - byteDelete requires len(b) >= 2.
//   - grammarMutate requires a loaded grammar whose top-level regex matches b.
func (s *Sampler) Mutate(b []byte) []byte {
	pool := []mutator{byteInsert}
	if len(b) >= 1 {
		pool = append(pool, byteChange)
	}
	if len(b) >= 2 {
		pool = append(pool, byteDelete)
	}
	if s.grammar != nil {
		if matches := s.grammar.Match(b); len(matches) > 0 {
			pool = append(pool, s.grammarMutate(matches))
		}
	}
	return pool[s.rng.Intn(len(pool))](s.rng, b)
}

// MutateAll maps Mutate over every candidate, matching the loop's
// round-robin mutation-candidate refill step (spec.md 4.H).
func (s *Sampler) MutateAll(candidates [][]byte) [][]byte {
	out := make([][]byte, len(candidates))
	for i, c := range candidates {
		out[i] = s.Mutate(c)
	}
	return out
}

func byteInsert(rng *rand.Rand, b []byte) []byte {
	index := rng.Intn(len(b) + 1)
	out := make([]byte, 0, len(b)+1)
	out = append(out, b[:index]...)
	out = append(out, byte(rng.Intn(256)))
	out = append(out, b[index:]...)
	return out
}

func byteChange(rng *rand.Rand, b []byte) []byte {
	index := rng.Intn(len(b))
	out := make([]byte, len(b))
	copy(out, b)
	out[index] = byte(rng.Intn(256))
	return out
}

func byteDelete(rng *rand.Rand, b []byte) []byte {
	index := rng.Intn(len(b))
	out := make([]byte, 0, len(b)-1)
	out = append(out, b[:index]...)
	out = append(out, b[index+1:]...)
	return out
}

// grammarMutate returns a mutator closure over the rules that fired for the
// input the pool was built for (re-matching would be redundant work), so the
// returned function still conforms to the mutator signature.
func (s *Sampler) grammarMutate(matches map[string]string) mutator {
	return func(rng *rand.Rand, b []byte) []byte {
		rule, capture := pickFiringRule(rng, matches)
		if capture == "" {
			return b
		}
		idx := indexOfFirst(b, capture)
		if idx < 0 {
			return b
		}
		replacement := s.grammar.RandomInstance(rng, rule)
		out := make([]byte, 0, len(b)-len(capture)+len(replacement))
		out = append(out, b[:idx]...)
		out = append(out, replacement...)
		out = append(out, b[idx+len(capture):]...)
		return out
	}
}

// pickFiringRule chooses uniformly at random among matches' entries, after
// sorting keys for deterministic iteration given a fixed rng draw.
func pickFiringRule(rng *rand.Rand, matches map[string]string) (string, string) {
	keys := make([]string, 0, len(matches))
	for k := range matches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return "", ""
	}
	k := keys[rng.Intn(len(keys))]
	return k, matches[k]
}

func indexOfFirst(haystack []byte, needle string) int {
	n := len(needle)
	if n == 0 {
		return -1
	}
	for i := 0; i+n <= len(haystack); i++ {
		if string(haystack[i:i+n]) == needle {
			return i
		}
	}
	return -1
}
