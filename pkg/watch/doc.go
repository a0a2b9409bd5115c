// Package watch reports changes to files by polling their modification time
// and size.
//
// A watched path is a file (which need not exist yet), a directory (watched
// recursively) or a doublestar glob such as "data/**/*.yaml". Files present
// when a path is added do not produce events; later creations, writes and
// removals do.
package watch
