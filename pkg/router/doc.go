// Package router is the host HTTP router routes are mounted on.
//
// A Router holds an ordered list of layers. A request is served by the first
// layer whose method and pattern match it, so the position of a layer in the
// list is significant. Layers can be appended, inserted at an index and
// removed by range, which is what lets a mounter swap a block of layers in
// place while layers registered by others keep their relative order.
//
// Patterns are slash-separated segments. A segment is a literal, a named
// parameter written ":name" or "{name}", or "*". A trailing "*" matches the
// rest of the path; elsewhere it matches one segment. Wildcards are captured
// as parameters "0", "1", and so on.
package router
