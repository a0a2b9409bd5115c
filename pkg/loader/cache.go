package loader

import (
	"maps"
	"slices"
	"sync"
)

// Module is one loaded file.
type Module struct {
	// ID is the absolute path of the file.
	ID string
	// Dependents are the files that include this one.
	Dependents map[string]struct{}
	// Children are the files this one includes, in include order.
	Children []string
	// Value is the decoded content.
	Value any
	// Err is the error of the last load attempt.
	Err error

	// loaded is false for placeholders created by an include link until the
	// file itself has been read.
	loaded bool
}

func (m *Module) clone() *Module {
	c := *m
	c.Dependents = maps.Clone(m.Dependents)
	c.Children = slices.Clone(m.Children)
	return &c
}

// Cache holds loaded modules and the include graph between them. It is safe
// for concurrent use.
type Cache struct {
	mu      sync.Mutex
	modules map[string]*Module
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{modules: make(map[string]*Module)}
}

// Get returns a copy of the module stored under id.
func (c *Cache) Get(id string) (*Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[id]
	if !ok {
		return nil, false
	}
	return m.clone(), true
}

// IDs returns the ids of all cached modules, sorted.
func (c *Cache) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.modules))
}

// Chain returns id followed by every module reachable from it through
// includes, depth first, each once. It is empty when id is not cached.
func (c *Cache) Chain(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string
	seen := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		m, ok := c.modules[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, child := range m.Children {
			walk(child)
		}
	}
	walk(id)
	return out
}

// Invalidate drops id and, recursively, every module that includes it, so
// the next load re-reads the chain from the entry file down to id. It
// returns the dropped ids, starting with id.
func (c *Cache) Invalidate(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var dropped []string
	var up func(id string)
	up = func(id string) {
		m, ok := c.modules[id]
		if !ok {
			return
		}
		delete(c.modules, id)
		dropped = append(dropped, id)
		for _, child := range m.Children {
			if cm, ok := c.modules[child]; ok {
				delete(cm.Dependents, id)
			}
		}
		for _, parent := range slices.Sorted(maps.Keys(m.Dependents)) {
			up(parent)
		}
	}
	up(id)
	return dropped
}

// Clear drops every module.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.modules)
}

// lookup returns the module for id if it was read and loaded successfully.
func (c *Cache) lookup(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[id]
	if !ok || !m.loaded || m.Err != nil {
		return nil, false
	}
	return m.Value, true
}

// reset prepares id for a fresh load: its includes are forgotten, its
// dependents are kept.
func (c *Cache) reset(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.module(id)
	for _, child := range m.Children {
		if cm, ok := c.modules[child]; ok {
			delete(cm.Dependents, id)
		}
	}
	m.Children = nil
	m.Value = nil
	m.Err = nil
	m.loaded = false
}

// link records that parent includes child.
func (c *Cache) link(parent, child string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.module(parent)
	if !slices.Contains(p.Children, child) {
		p.Children = append(p.Children, child)
	}
	c.module(child).Dependents[parent] = struct{}{}
}

// store records the outcome of loading id.
func (c *Cache) store(id string, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.module(id)
	m.Value = value
	m.Err = err
	m.loaded = true
}

func (c *Cache) module(id string) *Module {
	m, ok := c.modules[id]
	if !ok {
		m = &Module{ID: id, Dependents: map[string]struct{}{}}
		c.modules[id] = m
	}
	return m
}
