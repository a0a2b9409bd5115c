package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/routemock/internal/id"
	"github.com/getmockd/routemock/pkg/config"
	"github.com/getmockd/routemock/pkg/depgraph"
	"github.com/getmockd/routemock/pkg/loader"
	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/mockgen"
	"github.com/getmockd/routemock/pkg/mount"
	"github.com/getmockd/routemock/pkg/requestlog"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/router"
	"github.com/getmockd/routemock/pkg/scheduler"
	"github.com/getmockd/routemock/pkg/template"
	"github.com/getmockd/routemock/pkg/watch"
)

// ErrNotStarted is returned by operations that need Start first.
var ErrNotStarted = errors.New("engine not started")

// Engine hosts the managed routes of a set of entry files.
type Engine struct {
	cfg *config.Config
	log *slog.Logger

	router    *router.Router
	registry  *route.Registry
	renderer  *template.Renderer
	mocker    scheduler.Mocker
	requests  requestlog.Store
	files     *watch.Watcher
	loader    *loader.Loader
	deps      *depgraph.Watcher
	mounter   *mount.Mounter
	scheduler *scheduler.Scheduler

	events broadcaster

	// reloadMu serializes reloads and the invalidation preceding them.
	reloadMu sync.Mutex

	mu           sync.RWMutex
	started      bool
	entries      []string // set once by Start
	generation   string
	lastReload   time.Time
	lastDuration time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRegistry sets the registry !fn references resolve against. The
// default is route.Builtins().
func WithRegistry(reg *route.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithRenderer sets the template renderer.
func WithRenderer(r *template.Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithMocker sets the mock data generator applied to rendered templates.
func WithMocker(m scheduler.Mocker) Option {
	return func(e *Engine) {
		e.mocker = m
	}
}

// WithRouter sets the host router. Layers already on it stay ahead of the
// managed routes.
func WithRouter(r *router.Router) Option {
	return func(e *Engine) {
		e.router = r
	}
}

// WithWatcher sets the file watcher.
func WithWatcher(w *watch.Watcher) Option {
	return func(e *Engine) {
		e.files = w
	}
}

// WithRequestLog sets the request log store.
func WithRequestLog(s requestlog.Store) Option {
	return func(e *Engine) {
		e.requests = s
	}
}

// New creates an Engine for cfg. Nothing is loaded until Start.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.registry == nil {
		e.registry = route.Builtins()
	}
	if e.renderer == nil {
		e.renderer = template.New()
	}
	if e.mocker == nil {
		e.mocker = mockgen.New()
	}
	if e.router == nil {
		e.router = router.New(
			router.WithStrict(cfg.Server.Strict),
			router.WithLogger(logging.Component(e.log, "router")),
		)
	}
	if e.requests == nil {
		e.requests = requestlog.NewMemoryStore(cfg.RequestLogSize)
	}
	if e.files == nil {
		e.files = watch.New(
			watch.WithInterval(cfg.PollInterval),
			watch.WithLogger(logging.Component(e.log, "watch")),
		)
	}

	e.loader = loader.New(e.registry,
		loader.WithExprCheck(e.renderer.Compile),
		loader.WithLogger(logging.Component(e.log, "loader")),
	)

	ignore, err := cfg.IgnoreRegexp()
	if err != nil {
		return nil, err
	}
	e.deps, err = depgraph.New(e.loader.Cache(), e.files,
		depgraph.WithIgnore(ignore),
		depgraph.WithIgnoreGlobs(cfg.IgnoreGlobPaths()),
		depgraph.WithLogger(logging.Component(e.log, "depgraph")),
	)
	if err != nil {
		return nil, err
	}

	e.scheduler = scheduler.New(e.renderer,
		scheduler.WithMocker(e.mocker),
		scheduler.WithRequestLog(e.requests),
		scheduler.WithMaxBodySize(cfg.Server.MaxBodySize),
		scheduler.WithLogger(logging.Component(e.log, "scheduler")),
	)
	e.mounter = mount.New(e.router, mount.WithLogger(logging.Component(e.log, "mount")))

	if err := e.registerAdmin(cfg.Server.AdminPrefix); err != nil {
		return nil, err
	}
	return e, nil
}

// Router returns the host router.
func (e *Engine) Router() *router.Router {
	return e.router
}

// Handler returns the HTTP handler serving admin and managed routes.
func (e *Engine) Handler() http.Handler {
	return e.router
}

// RequestLog returns the request log store.
func (e *Engine) RequestLog() requestlog.Store {
	return e.requests
}

// Subscribe returns a channel receiving reload events and a function that
// cancels the subscription. Events are dropped for subscribers that fall
// behind.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.subscribe()
}

// NewHTTPServer returns an http.Server for the configured address serving
// Handler.
func (e *Engine) NewHTTPServer() *http.Server {
	return &http.Server{
		Addr:         e.cfg.Server.Addr,
		Handler:      e.router,
		ReadTimeout:  e.cfg.Server.ReadTimeout,
		WriteTimeout: e.cfg.Server.WriteTimeout,
	}
}

// Start resolves the entry files, pins them and the extra watch paths, and
// performs the initial reload. In non-silent mode a failed initial reload is
// returned.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine is already started")
	}
	e.started = true
	e.mu.Unlock()

	paths, err := e.cfg.RouteFilePaths()
	if err != nil {
		return err
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	entries := make([]string, 0, len(paths))
	for _, p := range paths {
		entry, err := loader.ID(p)
		if err != nil {
			return err
		}
		if err := e.deps.Pin(entry); err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	for _, p := range e.cfg.WatchPaths() {
		if err := e.deps.Pin(p); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.entries = entries
	e.mu.Unlock()

	e.log.Info("engine started", "entries", len(entries), "silent", e.cfg.Silent)
	return e.result(e.reloadLocked(nil))
}

// Run polls for file changes and reloads until ctx is cancelled. It calls
// Start when that has not happened yet. In non-silent mode the first failed
// change-triggered reload ends Run with the error.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	if !started {
		if err := e.Start(); err != nil {
			return err
		}
	}

	events := e.files.Start()
	defer e.files.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			changed := e.drain(ev, events)
			if len(changed) == 0 {
				continue
			}
			if err := e.Notify(changed...); err != nil {
				return fmt.Errorf("reload after change: %w", err)
			}
		}
	}
}

// drain collects first and every event already queued behind it.
func (e *Engine) drain(first watch.Event, events <-chan watch.Event) []string {
	var changed []string
	add := func(ev watch.Event) {
		if ev.Err != nil {
			e.log.Warn("watch error", "path", ev.Path, "error", ev.Err)
			return
		}
		e.log.Debug("file changed", "path", ev.Path, "op", ev.Op)
		changed = append(changed, ev.Path)
	}

	add(first)
	for {
		select {
		case ev := <-events:
			add(ev)
		default:
			return changed
		}
	}
}

// Notify reports changed files: each is unwatched with its dependencies and
// invalidated, then one reload runs. The result follows the silent rule.
func (e *Engine) Notify(paths ...string) error {
	if !e.isStarted() {
		return ErrNotStarted
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	changed := make([]string, 0, len(paths))
	for _, p := range paths {
		fileID, err := loader.ID(p)
		if err != nil {
			return err
		}
		e.deps.UnwatchChain(fileID)
		e.deps.Invalidate(fileID)
		changed = append(changed, fileID)
	}
	e.log.Info("change detected", "files", changed)
	return e.result(e.reloadLocked(changed))
}

// Reload re-reads every entry file and its includes from disk and remounts
// the routes. The result follows the silent rule.
func (e *Engine) Reload(ctx context.Context) error {
	if !e.isStarted() {
		return ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	for _, entry := range e.entries {
		e.deps.UnwatchChain(entry)
	}
	e.loader.Cache().Clear()
	return e.result(e.reloadLocked(nil))
}

func (e *Engine) isStarted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.started
}

// result applies the silent rule to a reload error.
func (e *Engine) result(err error) error {
	if e.cfg.Silent {
		return nil
	}
	return err
}

// reloadLocked loads every entry file and swaps the mounted layers. The
// caller holds reloadMu.
func (e *Engine) reloadLocked(changed []string) error {
	start := time.Now()
	gen := id.Generation()
	e.mounter.Begin()

	specs, err := e.loadSpecs()
	if err != nil {
		e.mounter.Abort(err)
	} else {
		err = e.mounter.Mount(specs, e.scheduler.ForGeneration(gen))
	}

	// Rewatch even after a failure so fixing the broken file triggers a
	// reload.
	for _, entry := range e.entries {
		if werr := e.deps.WatchChain(entry); werr != nil {
			e.log.Warn("failed to watch dependencies", "entry", entry, "error", werr)
		}
	}

	duration := time.Since(start)
	if err != nil {
		e.log.Error("route reload failed", "generation", gen, "error", err, "duration", duration)
		e.events.publish(Event{
			Kind:       ReloadFailed,
			Err:        err,
			Generation: gen,
			Duration:   duration,
			Changed:    changed,
		})
		return err
	}

	e.mu.Lock()
	e.generation = gen
	e.lastReload = start
	e.lastDuration = duration
	e.mu.Unlock()

	e.log.Info("routes reloaded", "generation", gen, "routes", len(specs), "duration", duration)
	e.events.publish(Event{
		Kind:       ReloadSucceeded,
		Generation: gen,
		Routes:     len(specs),
		Duration:   duration,
		Changed:    changed,
	})
	return nil
}

func (e *Engine) loadSpecs() ([]*route.Spec, error) {
	var specs []*route.Spec
	for _, entry := range e.entries {
		v, err := e.loader.Load(entry)
		if err != nil {
			return nil, err
		}
		list, err := route.NormalizeAll(v, entry)
		if err != nil {
			return nil, err
		}
		specs = append(specs, list...)
	}
	return specs, nil
}
