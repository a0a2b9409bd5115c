package template

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ohler55/ojg/jp"
)

// DefaultCacheSize bounds the compiled-program cache.
const DefaultCacheSize = 1024

// Renderer interpolates templates. It is safe for concurrent use.
type Renderer struct {
	programs *lru.Cache[string, *vm.Program]
	options  []expr.Option
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	cacheSize int
	functions []expr.Option
}

// WithCacheSize sets the number of compiled expressions kept.
func WithCacheSize(n int) Option {
	return func(c *rendererConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithFunction exposes an extra helper function to expressions.
func WithFunction(name string, fn func(params ...any) (any, error)) Option {
	return func(c *rendererConfig) {
		c.functions = append(c.functions, expr.Function(name, fn))
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	cfg := rendererConfig{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache, err := lru.New[string, *vm.Program](cfg.cacheSize)
	if err != nil {
		// Only returned for a non-positive size, which WithCacheSize rejects.
		panic(err)
	}

	options := []expr.Option{
		expr.Function("jsonpath", jsonPathFunc),
		expr.Function("json", jsonFunc),
	}
	options = append(options, cfg.functions...)

	return &Renderer{programs: cache, options: options}
}

// Render returns a rendered copy of tpl. Maps and lists are copied, strings
// are interpolated, everything else is returned by identity.
func (r *Renderer) Render(tpl any, ctx map[string]any) (any, error) {
	switch v := tpl.(type) {
	case string:
		return r.Interpolate(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			rendered, err := r.Render(e, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			rendered, err := r.Render(e, ctx)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			rendered, err := r.Render(e, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return tpl, nil
	}
}

// Interpolate evaluates the ${...} expressions in s. A string that is a
// single expression yields the raw value.
func (r *Renderer) Interpolate(s string, ctx map[string]any) (any, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	segs, err := scan(s)
	if err != nil {
		return nil, &RenderError{Template: s, Err: err}
	}

	if len(segs) == 1 && segs[0].expr {
		v, err := r.eval(segs[0].text, ctx)
		if err != nil {
			return nil, &RenderError{Template: s, Err: err}
		}
		return v, nil
	}

	var sb strings.Builder
	for _, seg := range segs {
		if !seg.expr {
			sb.WriteString(seg.text)
			continue
		}
		v, err := r.eval(seg.text, ctx)
		if err != nil {
			return nil, &RenderError{Template: s, Err: err}
		}
		sb.WriteString(Stringify(v))
	}
	return sb.String(), nil
}

// Eval evaluates a bare expression (no ${} wrapper) against env.
func (r *Renderer) Eval(source string, env map[string]any) (any, error) {
	v, err := r.eval(source, env)
	if err != nil {
		return nil, &RenderError{Template: source, Err: err}
	}
	return v, nil
}

// Compile checks that source is a syntactically valid expression. Names are
// resolved when the expression runs, against the context it runs with.
func (r *Renderer) Compile(source string) error {
	if _, err := parser.Parse(source); err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	return nil
}

func (r *Renderer) eval(source string, env map[string]any) (any, error) {
	if env == nil {
		env = map[string]any{}
	}
	program, err := r.program(source, env)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// program compiles source for env. Context keys named like an expr builtin
// (count, max, len, ...) disable that builtin so the key wins. Programs are
// cached per source and set of shadowed builtins.
func (r *Renderer) program(source string, env map[string]any) (*vm.Program, error) {
	shadowed := shadowedBuiltins(env)
	key := source
	if len(shadowed) > 0 {
		key += "\x00" + strings.Join(shadowed, ",")
	}
	if p, ok := r.programs.Get(key); ok {
		return p, nil
	}
	opts := slices.Clip(r.options)
	for _, name := range shadowed {
		opts = append(opts, expr.DisableBuiltin(name))
	}
	p, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	r.programs.Add(key, p)
	return p, nil
}

var builtinNames = func() map[string]bool {
	names := make(map[string]bool, len(builtin.Builtins))
	for _, fn := range builtin.Builtins {
		names[fn.Name] = true
	}
	return names
}()

func shadowedBuiltins(env map[string]any) []string {
	var out []string
	for _, k := range slices.Sorted(maps.Keys(env)) {
		if builtinNames[k] {
			out = append(out, k)
		}
	}
	return out
}

// Stringify converts an evaluated value to text for splicing into a string.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func jsonPathFunc(params ...any) (any, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("jsonpath: want 2 arguments, got %d", len(params))
	}
	path, ok := params[1].(string)
	if !ok {
		return nil, fmt.Errorf("jsonpath: path must be a string, got %T", params[1])
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: %w", err)
	}
	results := x.Get(params[0])
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func jsonFunc(params ...any) (any, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("json: want 1 argument, got %d", len(params))
	}
	b, err := json.Marshal(params[0])
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return string(b), nil
}
