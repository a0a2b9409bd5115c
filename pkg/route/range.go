package route

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// Range is a repeat-count spec "min..max". Either bound may be omitted and
// defaults to 0.
type Range struct {
	Min, Max int
}

// ParseRange parses "min..max", "min..", "..max" or a bare count.
func ParseRange(s string) (*Range, error) {
	s = strings.TrimSpace(s)
	lo, hi, found := strings.Cut(s, "..")

	minV, err := parseBound(lo)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	if !found {
		return &Range{Min: minV, Max: minV}, nil
	}
	maxV, err := parseBound(hi)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", s, err)
	}
	return &Range{Min: minV, Max: maxV}, nil
}

func parseBound(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bound %q is not an integer", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("bound %d is negative", n)
	}
	return n, nil
}

// Count picks a count uniformly in [Min, Max]. When Min >= Max the result
// is Min.
func (r *Range) Count(rng *rand.Rand) int {
	if r.Min >= r.Max {
		return r.Min
	}
	return r.Min + rng.IntN(r.Max-r.Min+1)
}

func (r *Range) String() string {
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}

// Delay is a fixed or uniformly random wait before a response is finalized.
type Delay struct {
	Min, Max time.Duration
}

// FixedDelay returns a delay of exactly d.
func FixedDelay(d time.Duration) *Delay {
	return &Delay{Min: d, Max: d}
}

// DelayBetween returns a delay in [lo, hi).
func DelayBetween(lo, hi time.Duration) *Delay {
	if hi < lo {
		lo, hi = hi, lo
	}
	return &Delay{Min: lo, Max: hi}
}

// Seconds converts a number of seconds to a duration. Negative values are
// clamped to zero.
func Seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

var errDelayShape = errors.New("delay must be a number of seconds or a [min, max] pair")

// ParseDelay reads a delay from a decoded definition value: a number of
// seconds or a two-number list.
func ParseDelay(v any) (*Delay, error) {
	if f, ok := toFloat(v); ok {
		return FixedDelay(Seconds(f)), nil
	}
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return nil, errDelayShape
	}
	lo, ok1 := toFloat(pair[0])
	hi, ok2 := toFloat(pair[1])
	if !ok1 || !ok2 {
		return nil, errDelayShape
	}
	return DelayBetween(Seconds(lo), Seconds(hi)), nil
}

// Resolve picks the wait for one request.
func (d *Delay) Resolve(rng *rand.Rand) time.Duration {
	if d == nil {
		return 0
	}
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rng.Int64N(int64(d.Max-d.Min)))
}

func (d *Delay) String() string {
	if d.Min == d.Max {
		return d.Min.String()
	}
	return d.Min.String() + "-" + d.Max.String()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}
