package grammar

import (
	"fmt"
	"math/rand"
	"regexp"
)

// Rule names for the reference URI grammar, matching the seven components
// the Fundamental-Tree Builder composes tags from (pkg/fundamental).
const (
	RuleScheme   = "scheme"
	RuleUserinfo = "userinfo"
	RuleHost     = "host"
	RulePort     = "port"
	RulePath     = "path"
	RuleQuery    = "query"
	RuleFragment = "fragment"
)

var ruleOrder = []string{RuleScheme, RuleUserinfo, RuleHost, RulePort, RulePath, RuleQuery, RuleFragment}

// uriRegex matches scheme://[userinfo@]host[:port][/path][?query][#fragment],
// anchored at the start only (re.match semantics, not full-string re.fullmatch).
var uriRegex = regexp.MustCompile(
	`^(?P<scheme>[a-zA-Z][a-zA-Z0-9+.\-]*)://` +
		`(?:(?P<userinfo>[^@/?#]+)@)?` +
		`(?P<host>[^:/?#]+)` +
		`(?::(?P<port>[0-9]+))?` +
		`(?:/(?P<path>[^?#]*))?` +
		`(?:\?(?P<query>[^#]*))?` +
		`(?:#(?P<fragment>.*))?`,
)

var reductions = map[string][]byte{
	RuleScheme:   []byte("s"),
	RuleUserinfo: []byte("u"),
	RuleHost:     []byte("h"),
	RulePort:     []byte("1"),
	RulePath:     []byte("p"),
	RuleQuery:    []byte("q"),
	RuleFragment: []byte("f"),
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// URIGrammar is the reference grammar-module implementation for the URI
// deployment named in spec.md 1 and 6.
type URIGrammar struct{}

// NewURIGrammar returns the reference URI Grammar implementation.
func NewURIGrammar() *URIGrammar {
	return &URIGrammar{}
}

// Rules returns the grammar's rule names in declared order.
func (g *URIGrammar) Rules() []string {
	out := make([]string, len(ruleOrder))
	copy(out, ruleOrder)
	return out
}

// Match returns the named captures that fired (non-empty) for b.
func (g *URIGrammar) Match(b []byte) map[string]string {
	m := uriRegex.FindSubmatch(b)
	if m == nil {
		return nil
	}
	names := uriRegex.SubexpNames()
	fired := make(map[string]string)
	for i, name := range names {
		if name == "" || i >= len(m) {
			continue
		}
		if len(m[i]) > 0 {
			fired[name] = string(m[i])
		}
	}
	return fired
}

// Reduction returns the canonical minimal payload for rule.
func (g *URIGrammar) Reduction(rule string) []byte {
	return reductions[rule]
}

// RandomInstance generates a small random instance of rule's sub-grammar.
func (g *URIGrammar) RandomInstance(rng *rand.Rand, rule string) []byte {
	switch rule {
	case RuleScheme:
		return []byte(randomToken(rng, 3, 6, "abcdefghijklmnopqrstuvwxyz"))
	case RulePort:
		return []byte(fmt.Sprintf("%d", 1+rng.Intn(65534)))
	case RuleUserinfo, RuleHost, RulePath, RuleQuery, RuleFragment:
		return []byte(randomToken(rng, 1, 8, randomAlphabet))
	default:
		return []byte(randomToken(rng, 1, 8, randomAlphabet))
	}
}

func randomToken(rng *rand.Rand, minLen, maxLen int, alphabet string) string {
	n := minLen
	if maxLen > minLen {
		n += rng.Intn(maxLen - minLen + 1)
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(buf)
}
