// Package template renders JSON-like response templates against a request
// context.
//
// A template is any value built from maps, lists, and primitives. Strings are
// the only values that get interpolated; every other leaf is returned as-is.
//
// # Expressions
//
// Embedded expressions use ${EXPR}. When a string consists of exactly one
// expression, the raw result is returned so types survive:
//
//	"${req.params.id}"        -> "42"
//	"${count * 2}"            -> 8
//	"${[1, 2, 3]}"            -> []any{1, 2, 3}
//
// Otherwise every expression is evaluated, stringified, and spliced into the
// surrounding text:
//
//	"user ${req.params.id} of ${count}" -> "user 42 of 4"
//
// A literal "${" is written as "\${".
//
// # Sandbox
//
// Expressions are compiled by expr-lang/expr without an environment and run
// against the supplied context only. They can read the context's members and
// call expr builtins plus the helpers below; nothing else in the process is
// reachable.
//
//   - jsonpath(value, "$.a.b") - JSONPath query; a single match is unwrapped
//   - json(value)             - JSON encoding as a string
//
// Compiled programs are cached per expression source.
package template
