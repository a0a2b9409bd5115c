package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/routemock/pkg/logging"
)

// DefaultInterval is the default polling interval.
const DefaultInterval = 500 * time.Millisecond

// Op is the kind of change.
type Op string

// Change kinds.
const (
	Create Op = "create"
	Write  Op = "write"
	Remove Op = "remove"
)

// Event is a change to one file. Err is set instead when a scan failed.
type Event struct {
	Path string
	Op   Op
	Err  error
}

type rootKind int

const (
	rootFile rootKind = iota
	rootDir
	rootGlob
)

type fileState struct {
	modTime time.Time
	size    int64
}

// Watcher polls a set of paths.
type Watcher struct {
	interval time.Duration
	log      *slog.Logger

	mu    sync.Mutex
	roots map[string]rootKind
	known map[string]fileState

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{} // signals goroutine exit
	eventCh chan Event
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
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

// New creates a Watcher with nothing to watch.
func New(opts ...Option) *Watcher {
	w := &Watcher{
		interval: DefaultInterval,
		log:      logging.Nop(),
		roots:    make(map[string]rootKind),
		known:    make(map[string]fileState),
		eventCh:  make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add watches path. Files already present are recorded without events.
func (w *Watcher) Add(path string) error {
	root, kind, err := classify(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.roots[root]; ok {
		return nil
	}
	w.roots[root] = kind

	files, err := scanRoot(root, kind)
	if err != nil {
		return err
	}
	for p, st := range files {
		if _, ok := w.known[p]; !ok {
			w.known[p] = st
		}
	}
	return nil
}

// Remove stops watching path. Files still covered by another watched path
// stay watched.
func (w *Watcher) Remove(path string) {
	root, _, err := classify(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.roots[root]; !ok {
		return
	}
	delete(w.roots, root)
	for p := range w.known {
		if !w.coveredLocked(p) {
			delete(w.known, p)
		}
	}
}

// Watched returns the watched paths, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.roots))
	for r := range w.roots {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Events returns the event channel.
func (w *Watcher) Events() <-chan Event {
	return w.eventCh
}

// Start begins polling in the background.
func (w *Watcher) Start() <-chan Event {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if w.running {
		return w.eventCh
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	// Pass channels to avoid race on struct fields
	go w.watchLoop(w.stopCh, w.doneCh)

	return w.eventCh
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.runMu.Lock()
	if !w.running {
		w.runMu.Unlock()
		return
	}
	close(w.stopCh)
	w.running = false
	doneCh := w.doneCh
	w.runMu.Unlock()

	// Wait outside lock for goroutine to exit
	<-doneCh
}

func (w *Watcher) watchLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			for _, ev := range w.Poll() {
				select {
				case w.eventCh <- ev:
				case <-stopCh:
					return
				}
			}
		}
	}
}

// Poll scans every watched path once and returns the changes since the
// previous scan.
func (w *Watcher) Poll() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]fileState, len(w.known))
	var events []Event
	for root, kind := range w.roots {
		files, err := scanRoot(root, kind)
		if err != nil {
			events = append(events, Event{Path: root, Err: err})
			continue
		}
		for p, st := range files {
			current[p] = st
		}
	}

	for p, st := range current {
		old, ok := w.known[p]
		switch {
		case !ok:
			events = append(events, Event{Path: p, Op: Create})
		case !old.modTime.Equal(st.modTime) || old.size != st.size:
			events = append(events, Event{Path: p, Op: Write})
		}
	}
	for p := range w.known {
		if _, ok := current[p]; !ok {
			events = append(events, Event{Path: p, Op: Remove})
		}
	}
	w.known = current

	slices.SortFunc(events, func(a, b Event) int { return strings.Compare(a.Path, b.Path) })
	for _, ev := range events {
		w.log.Debug("file changed", "path", ev.Path, "op", ev.Op)
	}
	return events
}

func (w *Watcher) coveredLocked(path string) bool {
	for root, kind := range w.roots {
		switch kind {
		case rootFile:
			if path == root {
				return true
			}
		case rootDir:
			if strings.HasPrefix(path, root+string(filepath.Separator)) {
				return true
			}
		case rootGlob:
			if ok, _ := doublestar.PathMatch(root, path); ok {
				return true
			}
		}
	}
	return false
}

func classify(path string) (string, rootKind, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", rootFile, err
	}
	abs = filepath.Clean(abs)

	if isGlob(path) {
		if !doublestar.ValidatePathPattern(abs) {
			return "", rootGlob, doublestar.ErrBadPattern
		}
		return abs, rootGlob, nil
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return abs, rootDir, nil
	}
	return abs, rootFile, nil
}

func isGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func scanRoot(root string, kind rootKind) (map[string]fileState, error) {
	files := map[string]fileState{}
	switch kind {
	case rootFile:
		if info, err := os.Stat(root); err == nil && !info.IsDir() {
			files[root] = stateOf(info)
		}
	case rootDir:
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == root && os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			files[p] = stateOf(info)
			return nil
		})
		if err != nil {
			return nil, err
		}
	case rootGlob:
		matches, err := doublestar.FilepathGlob(root, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, p := range matches {
			if info, err := os.Stat(p); err == nil {
				files[p] = stateOf(info)
			}
		}
	}
	return files, nil
}

func stateOf(info fs.FileInfo) fileState {
	return fileState{modTime: info.ModTime(), size: info.Size()}
}
