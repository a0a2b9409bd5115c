package mockgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// rule is a parsed "|min-max" or "|n" key suffix.
type rule struct {
	min, max int
	ranged   bool
}

// parseRule splits "key|rule". ok is false when the key carries no valid rule.
func parseRule(k string) (string, rule, bool) {
	i := strings.LastIndexByte(k, '|')
	if i <= 0 || i == len(k)-1 {
		return k, rule{}, false
	}
	key, spec := k[:i], k[i+1:]

	if lo, hi, found := strings.Cut(spec, "-"); found {
		min, err1 := strconv.Atoi(lo)
		max, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || min < 0 {
			return k, rule{}, false
		}
		return key, rule{min: min, max: max, ranged: true}, true
	}

	n, err := strconv.Atoi(spec)
	if err != nil || n < 0 {
		return k, rule{}, false
	}
	return key, rule{min: n, max: n}, true
}

func (g *Generator) count(r rule) int {
	return g.between(r.min, r.max)
}

func (g *Generator) applyRule(r rule, v any) any {
	switch val := v.(type) {
	case []any:
		if len(val) == 0 {
			return []any{}
		}
		if !r.ranged && r.min == 1 {
			return g.Mock(val[g.intN(len(val))])
		}
		n := g.count(r)
		out := make([]any, 0, n*len(val))
		for i := 0; i < n; i++ {
			for _, e := range val {
				out = append(out, g.Mock(e))
			}
		}
		return out
	case string:
		return strings.Repeat(g.expandAsText(val), g.count(r))
	case int, int64, float64:
		return g.count(r)
	case bool:
		return g.intN(2) == 1
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := g.count(r)
		if n > len(keys) {
			n = len(keys)
		}
		// Partial Fisher-Yates to choose n distinct keys.
		for i := 0; i < n; i++ {
			j := i + g.intN(len(keys)-i)
			keys[i], keys[j] = keys[j], keys[i]
		}
		chosen := make(map[string]any, n)
		for _, k := range keys[:n] {
			chosen[k] = val[k]
		}
		return g.Mock(chosen)
	default:
		return g.Mock(v)
	}
}

// expandAsText expands placeholders in s and always returns a string.
func (g *Generator) expandAsText(s string) string {
	return fmt.Sprint(g.expandString(s))
}
