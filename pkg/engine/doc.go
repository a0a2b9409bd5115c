// Package engine wires the route loader, mounter, scheduler and dependency
// watcher into a hot-reloading mock server.
//
// # Reload cycle
//
//	file change ──▶ UnwatchChain + Invalidate ──▶ load entry files
//	     ▲                                              │
//	     │                                              ▼
//	WatchChain ◀── notify ◀── swap layers ◀── normalize + build handlers
//
// Reloads are serialized. Changes that arrive while a reload runs are
// drained together afterwards and replayed as a single reload.
//
// # Failure modes
//
// In silent mode a failed reload emits a ReloadFailed event and the
// previously mounted routes keep serving. Otherwise Start returns the error
// and Run returns on the first failed change-triggered reload.
//
// # Admin endpoints
//
// The engine mounts a small admin API under the configured prefix ahead of
// the managed routes:
//
//	GET    {prefix}/status    engine state, generation, routes, watched files
//	POST   {prefix}/reload    reload now and report the result
//	GET    {prefix}/requests  request log, newest first
//	DELETE {prefix}/requests  clear the request log
package engine
