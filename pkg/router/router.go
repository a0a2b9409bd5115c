package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/getmockd/routemock/pkg/httputil"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/route"
)

// ErrConflict is returned in strict mode when a layer with the same method
// and pattern is already present.
var ErrConflict = errors.New("conflicting route")

// Layer is one entry of the router's list.
type Layer struct {
	Method  string
	Pattern *Pattern
	Handler http.Handler
}

// NewLayer compiles pattern into a layer. An empty method or "ALL" matches
// every method.
func NewLayer(method, pattern string, h http.Handler) (*Layer, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	method = strings.ToUpper(method)
	if method == "" {
		method = route.MethodAll
	}
	return &Layer{Method: method, Pattern: p, Handler: h}, nil
}

func (l *Layer) String() string {
	return l.Method + " " + l.Pattern.String()
}

func (l *Layer) matchesMethod(method string) bool {
	switch l.Method {
	case route.MethodAll, method:
		return true
	case http.MethodGet:
		return method == http.MethodHead
	}
	return false
}

// Router dispatches requests to the first matching layer. The layer list is
// replaced on every change, so ServeHTTP iterates a snapshot without holding
// the lock.
type Router struct {
	mu     sync.RWMutex
	layers []*Layer

	strict   bool
	log      *slog.Logger
	notFound http.Handler
}

// Option configures a Router.
type Option func(*Router)

// WithStrict makes inserts fail with ErrConflict when a layer with the same
// method and pattern is already present.
func WithStrict(strict bool) Option {
	return func(r *Router) {
		r.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// WithNotFound sets the handler used when no layer matches.
func WithNotFound(h http.Handler) Option {
	return func(r *Router) {
		r.notFound = h
	}
}

// New creates an empty Router.
func New(opts ...Option) *Router {
	r := &Router{log: logging.Nop()}
	r.notFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteNotFound(w, "not_found", fmt.Sprintf("no route for %s %s", req.Method, req.URL.Path))
	})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle appends a layer.
func (r *Router) Handle(method, pattern string, h http.Handler) (*Layer, error) {
	l, err := NewLayer(method, pattern, h)
	if err != nil {
		return nil, err
	}
	err = r.Update(func(list *List) error {
		return list.InsertAt(list.Len(), l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// HandleFunc appends a layer serving fn.
func (r *Router) HandleFunc(method, pattern string, fn http.HandlerFunc) (*Layer, error) {
	return r.Handle(method, pattern, fn)
}

// Update runs fn against a working copy of the layer list and publishes the
// copy when fn returns nil. Requests never observe an intermediate state,
// and an error leaves the list untouched.
func (r *Router) Update(fn func(list *List) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := &List{layers: slices.Clone(r.layers), strict: r.strict}
	if err := fn(list); err != nil {
		return err
	}
	r.layers = list.layers
	return nil
}

// Len returns the number of layers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.layers)
}

// IndexOf returns the position of l, or -1.
func (r *Router) IndexOf(l *Layer) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Index(r.layers, l)
}

// InsertAt inserts layers so the first of them lands at index i.
func (r *Router) InsertAt(i int, layers ...*Layer) error {
	return r.Update(func(list *List) error {
		return list.InsertAt(i, layers...)
	})
}

// RemoveRange removes n layers starting at i and returns them.
func (r *Router) RemoveRange(i, n int) ([]*Layer, error) {
	var removed []*Layer
	err := r.Update(func(list *List) error {
		var err error
		removed, err = list.RemoveRange(i, n)
		return err
	})
	return removed, err
}

// Layers returns a snapshot of the layer list.
func (r *Router) Layers() []*Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.layers)
}

// ServeHTTP serves req with the first matching layer.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	layers := r.layers
	r.mu.RUnlock()

	for _, l := range layers {
		if !l.matchesMethod(req.Method) {
			continue
		}
		params, ok := l.Pattern.Match(req.URL.Path)
		if !ok {
			continue
		}
		l.Handler.ServeHTTP(w, req.WithContext(route.WithParams(req.Context(), params)))
		return
	}

	r.log.Debug("no route", "method", req.Method, "path", req.URL.Path)
	r.notFound.ServeHTTP(w, req)
}
