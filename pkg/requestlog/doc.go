// Package requestlog captures the requests served by mounted routes so they
// can be inspected through the admin endpoints.
//
// It is distinct from operational logging, which uses log/slog.
//
//	store := requestlog.NewMemoryStore(500)
//	store.Log(&requestlog.Entry{Method: "GET", Path: "/users/1", Status: 200})
//	recent := store.List(&requestlog.Filter{Limit: 10})
package requestlog
