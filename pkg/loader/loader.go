package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/route"
)

// Loader loads definition files through a Cache.
type Loader struct {
	cache     *Cache
	registry  *route.Registry
	checkExpr func(source string) error
	log       *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache shares an existing cache.
func WithCache(c *Cache) Option {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithExprCheck validates expression sources while loading, so a bad
// expression fails the load instead of the request.
func WithExprCheck(check func(source string) error) Option {
	return func(l *Loader) {
		l.checkExpr = check
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// New creates a Loader resolving function names against reg. A nil reg
// means route.Builtins().
func New(reg *route.Registry, opts ...Option) *Loader {
	if reg == nil {
		reg = route.Builtins()
	}
	l := &Loader{
		cache:    NewCache(),
		registry: reg,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cache returns the module cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// ID returns the cache id of path: its cleaned absolute form.
func ID(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Load returns the decoded value of the definition file at path, loading it
// and its includes unless they are cached.
func (l *Loader) Load(path string) (any, error) {
	id, err := ID(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if !isDefinition(id) {
		return nil, &LoadError{Path: id, Err: fmt.Errorf("%w %q", ErrUnsupported, filepath.Ext(id))}
	}
	return l.load(id, nil)
}

// load loads id. stack holds the files currently being loaded above it.
func (l *Loader) load(id string, stack []string) (any, error) {
	if i := slices.Index(stack, id); i >= 0 {
		chain := append(slices.Clone(stack[i:]), id)
		return nil, &LoadError{Path: id, Err: fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(chain, " -> "))}
	}
	if v, ok := l.cache.lookup(id); ok {
		return v, nil
	}

	l.cache.reset(id)
	v, err := l.read(id, append(slices.Clip(stack), id))
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			err = &LoadError{Path: id, Err: err}
		}
		l.cache.store(id, nil, err)
		return nil, err
	}
	l.cache.store(id, v, nil)
	l.log.Debug("loaded definition file", "path", id)
	return v, nil
}

func (l *Loader) read(id string, stack []string) (any, error) {
	data, err := os.ReadFile(id)
	if err != nil {
		return nil, err
	}

	d := &decoder{loader: l, id: id, stack: stack}
	switch strings.ToLower(filepath.Ext(id)) {
	case ".yaml", ".yml", ".json":
		return d.decodeYAML(data)
	case ".hcl":
		return d.decodeHCL(data)
	default:
		return string(data), nil
	}
}

func isDefinition(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".hcl":
		return true
	}
	return false
}
