package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/getmockd/routemock/pkg/route"
)

// YAML tags for the directives.
const (
	tagInclude = "!include"
	tagFn      = "!fn"
	tagExpr    = "!expr"
)

// markers maps the single-key map form of each directive to its kind.
var markers = map[string]string{
	"$include": "include",
	"$fn":      "fn",
	"$expr":    "expr",
}

// decoder decodes one file. stack holds the files being loaded, this one
// last.
type decoder struct {
	loader *Loader
	id     string
	stack  []string
}

func (d *decoder) directive(kind, arg string) (any, error) {
	switch kind {
	case "include":
		return d.include(arg)
	case "fn":
		return d.fn(arg)
	case "expr":
		return d.expr(arg)
	default:
		return nil, fmt.Errorf("unknown directive %q", kind)
	}
}

func (d *decoder) include(path string) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("include: empty path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(d.id), path)
	}
	target := filepath.Clean(path)

	d.loader.cache.link(d.id, target)
	return d.loader.load(target, d.stack)
}

func (d *decoder) fn(name string) (any, error) {
	f, err := d.loader.registry.Lookup(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (d *decoder) expr(source string) (any, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("expr: empty expression")
	}
	if d.loader.checkExpr != nil {
		if err := d.loader.checkExpr(source); err != nil {
			return nil, fmt.Errorf("expr %q: %w", source, err)
		}
	}
	return route.Expr{Source: source}, nil
}

// marker resolves a single-key directive map. ok is false when m is an
// ordinary map.
func (d *decoder) marker(m map[string]any) (v any, ok bool, err error) {
	if len(m) != 1 {
		return nil, false, nil
	}
	for key, arg := range m {
		kind, isMarker := markers[key]
		if !isMarker {
			return nil, false, nil
		}
		s, isString := arg.(string)
		if !isString {
			return nil, true, fmt.Errorf("%s: want a string, got %T", key, arg)
		}
		v, err = d.directive(kind, s)
		return v, true, err
	}
	return nil, false, nil
}

// resolve replaces directive maps in an already decoded value.
func (d *decoder) resolve(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if res, ok, err := d.marker(val); ok || err != nil {
			return res, err
		}
		for k, e := range val {
			r, err := d.resolve(e)
			if err != nil {
				return nil, err
			}
			val[k] = r
		}
		return val, nil
	case []any:
		for i, e := range val {
			r, err := d.resolve(e)
			if err != nil {
				return nil, err
			}
			val[i] = r
		}
		return val, nil
	default:
		return v, nil
	}
}
