package depgraph

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/routemock/pkg/logging"
)

// Graph is the dependency graph of loaded modules.
type Graph interface {
	// Chain returns id and every id reachable from it.
	Chain(id string) []string
	// Invalidate drops id and every module depending on it.
	Invalidate(id string) []string
}

// FileWatcher is the underlying file-watch primitive.
type FileWatcher interface {
	Add(path string) error
	Remove(path string)
}

// Watcher tracks the watch set.
type Watcher struct {
	graph Graph
	files FileWatcher
	log   *slog.Logger

	ignore      *regexp.Regexp
	ignoreGlobs []string

	mu      sync.Mutex
	watched map[string]struct{}
	pinned  map[string]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithIgnore skips dependency ids matching re.
func WithIgnore(re *regexp.Regexp) Option {
	return func(w *Watcher) {
		w.ignore = re
	}
}

// WithIgnoreGlobs skips dependency ids matching any of the doublestar globs.
// Globs are matched against slash-separated absolute paths.
func WithIgnoreGlobs(globs []string) Option {
	return func(w *Watcher) {
		for _, g := range globs {
			w.ignoreGlobs = append(w.ignoreGlobs, filepath.ToSlash(g))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// New creates a Watcher over graph and files.
func New(graph Graph, files FileWatcher, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		graph:   graph,
		files:   files,
		log:     logging.Nop(),
		watched: make(map[string]struct{}),
		pinned:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, g := range w.ignoreGlobs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid ignore glob %q: %w", g, doublestar.ErrBadPattern)
		}
	}
	return w, nil
}

// Pin watches path permanently.
func (w *Watcher) Pin(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.pinned[path]; ok {
		return nil
	}
	if err := w.files.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.pinned[path] = struct{}{}
	return nil
}

// WatchChain adds entryID and everything it includes to the watch set,
// except ignored ids.
func (w *Watcher) WatchChain(entryID string) error {
	chain := w.graph.Chain(entryID)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range chain {
		if _, ok := w.watched[id]; ok {
			continue
		}
		if w.Ignored(id) {
			w.log.Debug("dependency ignored", "path", id)
			continue
		}
		if err := w.files.Add(id); err != nil {
			return fmt.Errorf("watch %s: %w", id, err)
		}
		w.watched[id] = struct{}{}
		w.log.Debug("dependency watched", "path", id, "entry", entryID)
	}
	return nil
}

// UnwatchChain removes everything id includes from the watch set. id itself
// and pinned paths stay.
func (w *Watcher) UnwatchChain(id string) {
	chain := w.graph.Chain(id)

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, dep := range chain {
		if dep == id {
			continue
		}
		if _, ok := w.pinned[dep]; ok {
			continue
		}
		if _, ok := w.watched[dep]; !ok {
			continue
		}
		delete(w.watched, dep)
		w.files.Remove(dep)
		w.log.Debug("dependency unwatched", "path", dep)
	}
}

// Invalidate drops the cached load result of fileID and of every module
// depending on it.
func (w *Watcher) Invalidate(fileID string) []string {
	dropped := w.graph.Invalidate(fileID)
	if len(dropped) > 0 {
		w.log.Debug("cache invalidated", "path", fileID, "dropped", dropped)
	}
	return dropped
}

// Ignored reports whether id matches the ignore regexp or any ignore glob.
func (w *Watcher) Ignored(id string) bool {
	if w.ignore != nil && w.ignore.MatchString(id) {
		return true
	}
	slashed := filepath.ToSlash(id)
	for _, g := range w.ignoreGlobs {
		if ok, _ := doublestar.Match(g, slashed); ok {
			return true
		}
	}
	return false
}

// Watched returns the watched ids and pinned paths, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	set := maps.Clone(w.watched)
	maps.Copy(set, w.pinned)
	return slices.Sorted(maps.Keys(set))
}

// Pinned returns the pinned paths, sorted.
func (w *Watcher) Pinned() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.pinned))
}
