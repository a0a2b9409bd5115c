// Package cli provides the routemock command-line interface.
//
// Commands:
//   - serve: mount the route files and serve them, reloading on change
//   - validate: load and normalize every route file without serving
//   - routes: print the normalized route table
//   - version: show version information
//
// Configuration comes from routemock.yaml (or --config) and is overridden by
// flags.
package cli
