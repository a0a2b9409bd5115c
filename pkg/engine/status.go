package engine

import (
	"time"
)

// RouteInfo describes one mounted route.
type RouteInfo struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Index       int    `json:"index"`
	Description string `json:"description"`
}

// Status is a snapshot of the engine.
type Status struct {
	State      string      `json:"state"`
	Silent     bool        `json:"silent"`
	Generation string      `json:"generation,omitempty"`
	LastError  string      `json:"lastError,omitempty"`
	LastReload *time.Time  `json:"lastReload,omitempty"`
	DurationMs int64       `json:"durationMs"`
	Anchor     int         `json:"anchor"`
	Entries    []string    `json:"entries"`
	Routes     []RouteInfo `json:"routes"`
	Watched    []string    `json:"watched"`
	Pinned     []string    `json:"pinned"`
	Layers     int         `json:"layers"`
}

// Status returns the current engine status.
func (e *Engine) Status() Status {
	specs := e.mounter.Specs()
	routes := make([]RouteInfo, 0, len(specs))
	for _, s := range specs {
		routes = append(routes, RouteInfo{
			Method:      s.Method,
			URL:         s.URL,
			Source:      s.Source,
			Index:       s.Index,
			Description: s.Describe(),
		})
	}

	st := Status{
		State:   e.mounter.State().String(),
		Silent:  e.cfg.Silent,
		Anchor:  e.mounter.Set().Anchor,
		Routes:  routes,
		Watched: e.deps.Watched(),
		Pinned:  e.deps.Pinned(),
		Layers:  e.router.Len(),
	}
	if err := e.mounter.Err(); err != nil {
		st.LastError = err.Error()
	}

	e.mu.RLock()
	st.Entries = append([]string(nil), e.entries...)
	st.Generation = e.generation
	if !e.lastReload.IsZero() {
		t := e.lastReload
		st.LastReload = &t
	}
	st.DurationMs = e.lastDuration.Milliseconds()
	e.mu.RUnlock()

	return st
}
