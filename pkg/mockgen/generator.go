package mockgen

import (
	"io"
	mathrand "math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Generator expands placeholders and key rules. The zero value is not
// usable; create one with New. A Generator is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *mathrand.Rand
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand makes output deterministic by drawing from rng.
func WithRand(rng *mathrand.Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

// WithClock sets the reference time for date placeholders.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Generator. Without WithRand it draws from the global
// math/rand/v2 source.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mock returns a copy of v with every placeholder and key rule expanded.
// Values other than strings, maps, and lists are returned as-is.
func (g *Generator) Mock(v any) any {
	switch val := v.(type) {
	case string:
		return g.expandString(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = g.Mock(e)
		}
		return out
	case map[string]any:
		// Sorted keys keep seeded output reproducible.
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(val))
		for _, k := range keys {
			key, r, ok := parseRule(k)
			if !ok {
				out[k] = g.Mock(val[k])
				continue
			}
			out[key] = g.applyRule(r, val[k])
		}
		return out
	default:
		return v
	}
}

// intN returns a random int in [0, n).
func (g *Generator) intN(n int) int {
	if n <= 0 {
		return 0
	}
	if g.rng == nil {
		return mathrand.IntN(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

// between returns a random int in [lo, hi]; lo when hi <= lo.
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.intN(hi-lo+1)
}

func (g *Generator) float64() float64 {
	if g.rng == nil {
		return mathrand.Float64()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Generator) pick(list []string) string {
	return list[g.intN(len(list))]
}

// Read fills p with random bytes so the generator can feed uuid.NewRandomFromReader.
func (g *Generator) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(g.intN(256))
	}
	return len(p), nil
}

var _ io.Reader = (*Generator)(nil)
