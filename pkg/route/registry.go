package route

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
)

// Func is a named callable referenced from definition files. A name may
// carry a generator, a processor, or both.
type Func struct {
	Name      string
	Generator GeneratorFunc
	Processor ProcessorFunc
}

// Expr is a callable written as an expression. As a generator it sees
// {req, request, count, ...args}; as a processor it also sees value.
type Expr struct {
	Source string
}

// Generator returns a GeneratorFunc evaluating the expression.
func (e Expr) Generator(args map[string]any) GeneratorFunc {
	return func(req *Request, _ ResponseSink, h *Helpers) (any, error) {
		return h.Eval(e.Source, exprEnv(nil, false, req, h, args))
	}
}

// Processor returns a ProcessorFunc evaluating the expression.
func (e Expr) Processor(args map[string]any) ProcessorFunc {
	return func(value any, req *Request, _ ResponseSink, h *Helpers) (any, error) {
		return h.Eval(e.Source, exprEnv(value, true, req, h, args))
	}
}

func exprEnv(value any, withValue bool, req *Request, h *Helpers, args map[string]any) map[string]any {
	vars := req.Vars()
	env := map[string]any{
		"req":     vars,
		"request": vars,
		"count":   h.Count,
	}
	if withValue {
		env["value"] = value
	}
	maps.Copy(env, args)
	return env
}

// Registry maps names to Go callables. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]*Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]*Func)}
}

// RegisterGenerator binds a generator to name.
func (r *Registry) RegisterGenerator(name string, fn GeneratorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(name).Generator = fn
}

// RegisterProcessor binds a processor to name.
func (r *Registry) RegisterProcessor(name string, fn ProcessorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(name).Processor = fn
}

func (r *Registry) entry(name string) *Func {
	f, ok := r.funcs[name]
	if !ok {
		f = &Func{Name: name}
		r.funcs[name] = f
	}
	return f
}

// Lookup returns a copy of the callable registered under name.
func (r *Registry) Lookup(name string) (*Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
	}
	c := *f
	return &c, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.funcs))
}

// Builtins returns a registry preloaded with the stock callables:
//
//	echo       generator returning the request as plain values
//	noContent  generator answering 204 with no body
//	wrap       processor wrapping the candidate as {"data": value, "count": n}
func Builtins() *Registry {
	r := NewRegistry()
	r.RegisterGenerator("echo", func(req *Request, _ ResponseSink, _ *Helpers) (any, error) {
		return req.Vars(), nil
	})
	r.RegisterGenerator("noContent", func(_ *Request, res ResponseSink, _ *Helpers) (any, error) {
		res.Status(http.StatusNoContent)
		return res, nil
	})
	r.RegisterProcessor("wrap", func(value any, _ *Request, _ ResponseSink, h *Helpers) (any, error) {
		return map[string]any{"data": value, "count": h.Count}, nil
	})
	return r
}
