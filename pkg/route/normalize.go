package route

import (
	"errors"
	"fmt"
	"strings"
)

var methods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true,
	"HEAD": true, "OPTIONS": true, "CONNECT": true, "TRACE": true, MethodAll: true,
}

// raw holds the fields of a definition before validation.
type raw struct {
	method, url, response any
	rng, delay, args      any
	processors            []any
}

// NormalizeAll normalizes the exported value of a definition file: a list of
// entries, or a map holding that list under "routes".
func NormalizeAll(value any, source string) ([]*Spec, error) {
	var entries []any
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		entries = v
	case map[string]any:
		routes, ok := v["routes"]
		if !ok {
			return nil, &NormalizationError{Source: source, Index: -1, Reason: `map without a "routes" key`}
		}
		list, ok := routes.([]any)
		if !ok && routes != nil {
			return nil, &NormalizationError{Source: source, Index: -1, Reason: fmt.Sprintf(`"routes" must be a list, got %T`, routes)}
		}
		entries = list
	default:
		return nil, &NormalizationError{Source: source, Index: -1, Reason: fmt.Sprintf("definitions must be a list, got %T", value)}
	}

	specs := make([]*Spec, 0, len(entries))
	for i, def := range entries {
		spec, err := Normalize(def, source, i)
		if err != nil {
			return nil, err
		}
		if spec != nil {
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// Normalize converts one definition entry into a Spec. A nil entry and a
// positional list with fewer than two elements are skipped: both results
// are nil.
func Normalize(def any, source string, index int) (*Spec, error) {
	fail := func(format string, a ...any) error {
		return &NormalizationError{Source: source, Index: index, Reason: fmt.Sprintf(format, a...)}
	}

	var r raw
	switch v := def.(type) {
	case nil:
		return nil, nil
	case []any:
		switch len(v) {
		case 0, 1:
			return nil, nil
		case 2:
			r.url, r.response = v[0], v[1]
		default:
			r.method, r.url, r.response = v[0], v[1], v[2]
			for j, e := range v[3:] {
				if err := r.classify(e); err != nil {
					return nil, fail("element %d: %v", j+3, err)
				}
			}
		}
	case map[string]any:
		r.method = v["method"]
		r.url = v["url"]
		r.response = v["response"]
		r.rng = v["range"]
		r.delay = v["delay"]
		r.args = v["args"]
		switch p := v["processResponse"].(type) {
		case nil:
		case []any:
			r.processors = p
		default:
			r.processors = []any{p}
		}
	default:
		return nil, fail("unsupported entry of type %T", def)
	}

	spec, err := r.build()
	if err != nil {
		return nil, fail("%v", err)
	}
	spec.Source = source
	spec.Index = index
	return spec, nil
}

// classify assigns a trailing positional element to the field its kind
// selects. Later elements of the same kind replace earlier ones.
func (r *raw) classify(e any) error {
	switch v := e.(type) {
	case nil, bool:
	case *Func, Expr:
		r.processors = append(r.processors, v)
	case map[string]any:
		r.args = v
	case string:
		r.rng = v
	case []any:
		if len(v) != 2 || !isNumber(v[0]) || !isNumber(v[1]) {
			return errors.New("list must be a [min, max] delay pair")
		}
		r.delay = v
	default:
		if !isNumber(v) {
			return fmt.Errorf("unsupported value of type %T", e)
		}
		r.delay = v
	}
	return nil
}

func (r *raw) build() (*Spec, error) {
	spec := &Spec{Method: "GET"}

	switch m := r.method.(type) {
	case nil:
	case string:
		if m != "" {
			spec.Method = strings.ToUpper(m)
		}
	default:
		return nil, fmt.Errorf("method must be a string, got %T", r.method)
	}
	if !methods[spec.Method] {
		return nil, fmt.Errorf("unknown method %q", spec.Method)
	}

	url, ok := r.url.(string)
	if !ok || url == "" {
		return nil, errors.New("url must be a non-empty string")
	}
	spec.URL = url

	args, err := toArgs(r.args)
	if err != nil {
		return nil, err
	}
	spec.Args = args

	switch resp := r.response.(type) {
	case *Func:
		if resp.Generator == nil {
			return nil, fmt.Errorf("%q is not a generator", resp.Name)
		}
		spec.Generator = resp.Generator
	case Expr:
		spec.Generator = resp.Generator(args)
	default:
		spec.Template = r.response
	}

	switch v := r.rng.(type) {
	case nil:
	case string:
		if spec.Range, err = ParseRange(v); err != nil {
			return nil, err
		}
	case int:
		if v < 0 {
			return nil, fmt.Errorf("range %d is negative", v)
		}
		spec.Range = &Range{Min: v, Max: v}
	default:
		return nil, fmt.Errorf("range must be a string like \"1..10\", got %T", r.rng)
	}

	if r.delay != nil {
		if spec.Delay, err = ParseDelay(r.delay); err != nil {
			return nil, err
		}
	}

	for _, p := range r.processors {
		switch fn := p.(type) {
		case *Func:
			if fn.Processor == nil {
				return nil, fmt.Errorf("%q is not a processor", fn.Name)
			}
			spec.Processors = append(spec.Processors, fn.Processor)
		case Expr:
			spec.Processors = append(spec.Processors, fn.Processor(args))
		}
	}

	return spec, nil
}

func toArgs(v any) (map[string]any, error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return a, nil
	default:
		return nil, fmt.Errorf("args must be a map, got %T", v)
	}
}
