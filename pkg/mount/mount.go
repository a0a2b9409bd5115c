package mount

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/getmockd/routemock/pkg/logging"
	"github.com/getmockd/routemock/pkg/route"
	"github.com/getmockd/routemock/pkg/router"
)

// NoAnchor means no block has been removed yet, so new blocks are appended.
const NoAnchor = -1

// State is the mounter's lifecycle state.
type State int

// Mounter states.
const (
	Idle State = iota
	Reloading
	Mounted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reloading:
		return "reloading"
	case Mounted:
		return "mounted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MountError reports a layer the host rejected.
type MountError struct {
	Method  string
	Pattern string
	Err     error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s %s: %v", e.Method, e.Pattern, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// Host is the layer list routes are mounted on.
type Host interface {
	Update(fn func(list *router.List) error) error
}

// Builder turns a spec into its handler.
type Builder interface {
	Build(spec *route.Spec) http.Handler
}

// LayerSet is the block of layers currently mounted and the anchor.
type LayerSet struct {
	Layers []*router.Layer
	Anchor int
}

// Mounter owns one block of layers on a host.
type Mounter struct {
	host Host
	log  *slog.Logger

	mu    sync.Mutex
	set   LayerSet
	specs []*route.Spec
	state State
	err   error
}

// Option configures a Mounter.
type Option func(*Mounter)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Mounter) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates an idle Mounter for host.
func New(host Host, opts ...Option) *Mounter {
	m := &Mounter{
		host: host,
		log:  logging.Nop(),
		set:  LayerSet{Anchor: NoAnchor},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin marks the start of a reload.
func (m *Mounter) Begin() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reloading
}

// Abort records a reload that failed before mounting. The mounted block is
// left as it is.
func (m *Mounter) Abort(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Failed
	m.err = err
}

// Mount replaces the mounted block with one layer per spec.
func (m *Mounter) Mount(specs []*route.Spec, b Builder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = Reloading

	layers := make([]*router.Layer, 0, len(specs))
	for _, spec := range specs {
		l, err := router.NewLayer(spec.Method, spec.URL, b.Build(spec))
		if err != nil {
			return m.failLocked(&MountError{Method: spec.Method, Pattern: spec.URL, Err: err})
		}
		layers = append(layers, l)
	}

	var anchor int
	err := m.host.Update(func(list *router.List) error {
		anchor = m.set.Anchor

		removedAt := NoAnchor
		for i := len(m.set.Layers) - 1; i >= 0; i-- {
			idx := list.IndexOf(m.set.Layers[i])
			if idx < 0 {
				continue
			}
			if _, err := list.RemoveRange(idx, 1); err != nil {
				return err
			}
			if removedAt == NoAnchor || idx < removedAt {
				removedAt = idx
			}
		}
		if removedAt != NoAnchor {
			anchor = removedAt
		}

		at := anchor
		if at == NoAnchor || at > list.Len() {
			at = list.Len()
		}
		for i, l := range layers {
			if err := list.InsertAt(at+i, l); err != nil {
				return &MountError{Method: l.Method, Pattern: l.Pattern.String(), Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var mountErr *MountError
		if !errors.As(err, &mountErr) {
			err = &MountError{Err: err}
		}
		return m.failLocked(err)
	}

	m.set = LayerSet{Layers: layers, Anchor: anchor}
	m.specs = specs
	m.state = Mounted
	m.err = nil
	m.log.Debug("layers mounted", "count", len(layers), "anchor", anchor)
	return nil
}

func (m *Mounter) failLocked(err error) error {
	m.state = Failed
	m.err = err
	return err
}

// State returns the current state.
func (m *Mounter) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the error of the last failed reload, or nil after a success.
func (m *Mounter) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Set returns a copy of the mounted block.
func (m *Mounter) Set() LayerSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return LayerSet{Layers: slices.Clone(m.set.Layers), Anchor: m.set.Anchor}
}

// Specs returns the specs of the mounted block.
func (m *Mounter) Specs() []*route.Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.specs)
}
