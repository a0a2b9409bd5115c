package engine

import (
	"net/http"
	"strconv"

	"github.com/getmockd/routemock/internal/id"
	"github.com/getmockd/routemock/pkg/httputil"
	"github.com/getmockd/routemock/pkg/requestlog"
	"github.com/getmockd/routemock/pkg/route"
)

// registerAdmin mounts the admin endpoints. They are registered before the
// first reload, so the managed block always follows them.
func (e *Engine) registerAdmin(prefix string) error {
	if prefix == "" {
		return nil
	}
	routes := []struct {
		method, path string
		fn           http.HandlerFunc
	}{
		{http.MethodGet, "/status", e.handleStatus},
		{http.MethodPost, "/reload", e.handleReload},
		{http.MethodGet, "/requests", e.handleListRequests},
		{http.MethodGet, "/requests/:id", e.handleGetRequest},
		{http.MethodDelete, "/requests", e.handleClearRequests},
	}
	for _, r := range routes {
		if _, err := e.router.HandleFunc(r.method, prefix+r.path, r.fn); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) handleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, e.Status())
}

type reloadResponse struct {
	OK         bool   `json:"ok"`
	Generation string `json:"generation,omitempty"`
	Routes     int    `json:"routes"`
	Error      string `json:"error,omitempty"`
}

func (e *Engine) handleReload(w http.ResponseWriter, r *http.Request) {
	events, cancel := e.Subscribe()
	defer cancel()

	err := e.Reload(r.Context())

	// A reload that ran published exactly one event.
	var ev Event
	select {
	case ev = <-events:
	default:
		msg := "no reload result"
		if err != nil {
			msg = err.Error()
		}
		httputil.WriteError(w, http.StatusInternalServerError, "reload_failed", msg)
		return
	}

	resp := reloadResponse{
		OK:         ev.Kind == ReloadSucceeded,
		Generation: ev.Generation,
		Routes:     ev.Routes,
	}
	status := http.StatusOK
	if ev.Err != nil {
		resp.Error = ev.Err.Error()
		status = http.StatusUnprocessableEntity
	}
	httputil.WriteJSON(w, status, resp)
}

func (e *Engine) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Method: q.Get("method"),
		Path:   q.Get("path"),
		Route:  q.Get("route"),
	}
	if v := q.Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_status", "status must be an integer")
			return
		}
		filter.Status = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_offset", "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	entries := e.requests.List(filter)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"requests": entries,
		"count":    len(entries),
		"total":    e.requests.Count(),
	})
}

func (e *Engine) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	reqID := route.ParamsFrom(r.Context())["id"]
	if !id.IsValidULID(reqID) {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_id", "request id must be a ULID")
		return
	}
	entry := e.requests.Get(reqID)
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", "request not found: "+reqID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (e *Engine) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	e.requests.Clear()
	w.WriteHeader(http.StatusNoContent)
}
