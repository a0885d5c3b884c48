package grammar

import (
	"math/rand"
	"testing"
)

func TestMatchFiresExpectedRules(t *testing.T) {
	g := NewURIGrammar()
	fired := g.Match([]byte("s://u@h:1/p?q#f"))
	if fired == nil {
		t.Fatal("expected a match")
	}
	for _, rule := range []string{RuleScheme, RuleUserinfo, RuleHost, RulePort, RulePath, RuleQuery, RuleFragment} {
		if _, ok := fired[rule]; !ok {
			t.Errorf("expected rule %q to fire", rule)
		}
	}
}

func TestMatchOmitsAbsentComponents(t *testing.T) {
	g := NewURIGrammar()
	fired := g.Match([]byte("s://h"))
	if fired == nil {
		t.Fatal("expected a match")
	}
	if _, ok := fired[RuleUserinfo]; ok {
		t.Errorf("userinfo should not have fired")
	}
	if _, ok := fired[RulePort]; ok {
		t.Errorf("port should not have fired")
	}
}

func TestMatchRejectsNonURI(t *testing.T) {
	g := NewURIGrammar()
	if fired := g.Match([]byte("not a uri at all")); fired != nil {
		t.Errorf("expected no match, got %v", fired)
	}
}

func TestReductionMatchesFundamentalTreeFragments(t *testing.T) {
	g := NewURIGrammar()
	want := map[string]string{
		RuleScheme: "s", RuleUserinfo: "u", RuleHost: "h",
		RulePort: "1", RulePath: "p", RuleQuery: "q", RuleFragment: "f",
	}
	for rule, expect := range want {
		if got := string(g.Reduction(rule)); got != expect {
			t.Errorf("Reduction(%q) = %q, want %q", rule, got, expect)
		}
	}
}

func TestRandomInstanceNonEmpty(t *testing.T) {
	g := NewURIGrammar()
	rng := rand.New(rand.NewSource(1))
	for _, rule := range g.Rules() {
		if len(g.RandomInstance(rng, rule)) == 0 {
			t.Errorf("RandomInstance(%q) returned empty bytes", rule)
		}
	}
}
