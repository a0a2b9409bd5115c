// Package depgraph keeps a file watcher subscribed to exactly the files that
// route definitions depend on.
//
// The dependency graph is the include graph recorded by the loader's cache.
// After every reload the engine calls WatchChain for each entry file; when a
// file changes it calls UnwatchChain and Invalidate for it, so the watch set
// follows the includes as they are added and removed. Pinned paths (entry
// files and extra watch paths) are never dropped by chain operations.
package depgraph
