// Package mockgen expands placeholder-bearing values into randomized mock data.
//
// The generator walks maps and lists produced by the template renderer and
// rewrites two kinds of markers:
//
// # Placeholders
//
// A string that is exactly a placeholder becomes a typed value:
//
//	"@integer(1, 10)"  -> 7
//	"@boolean"         -> true
//	"@guid"            -> "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
//
// Placeholders embedded in longer strings are substituted as text:
//
//	"user-@natural(1,99)@example.com" -> "user-42@example.com"
//
// A backslash escapes the marker: "\@name" renders as "@name". Unknown
// placeholders are left untouched.
//
// # Key Rules
//
// Map keys may carry a repeat rule after a pipe, "key|min-max" or "key|n".
// The rule is stripped from the emitted key and applied to the value:
//
//   - list: the content is repeated to the chosen length ("|1" picks one element)
//   - string: the string is repeated
//   - number: a random integer in the range
//   - boolean: a random boolean
//   - map: the chosen number of properties is kept
package mockgen
