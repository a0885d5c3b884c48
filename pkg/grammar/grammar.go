// Package grammar implements the optional grammar-module capability consumed
// by the mutator and reducer: a single regex over named alternation rules,
// a canonical-minimum reduction per rule, and a random-instance generator
// per rule.
//
// The grammar module is modeled as a capability object, per spec.md 9:
// either present with Match/RandomInstance/Reduction, or absent (nil) —
// callers branch on presence rather than on an error return.
package grammar

import "math/rand"

// Grammar is the capability a mutator or reducer consults when generating a
// grammar-rule substitution, or peeling a rule to its canonical minimum.
type Grammar interface {
	// Match returns the named captures that fired for input b, or nil if b
	// does not match the top-level grammar regex at all.
	Match(b []byte) map[string]string

	// RandomInstance returns a freshly generated random instance of the
	// named rule's sub-grammar.
	RandomInstance(rng *rand.Rand, rule string) []byte

	// Reduction returns the canonical minimal payload for the named rule.
	// May be empty, meaning the rule can be deleted entirely.
	Reduction(rule string) []byte

	// Rules returns the grammar's rule names in a fixed, stable order.
	Rules() []string
}
