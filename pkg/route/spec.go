package route

import (
	"fmt"
	"strings"
)

// MethodAll matches every request method.
const MethodAll = "ALL"

// Spec is a normalized route. It is immutable once mounted.
type Spec struct {
	// Method is upper-cased; MethodAll matches any method.
	Method string
	// URL is the path pattern (":name", "{name}" and "*" segments).
	URL string

	// Exactly one of Template and Generator produces the response.
	Template  any
	Generator GeneratorFunc

	Range *Range
	Delay *Delay
	Args  map[string]any

	Processors []ProcessorFunc

	// Source and Index locate the definition for diagnostics.
	Source string
	Index  int
}

// String returns "METHOD URL".
func (s *Spec) String() string {
	return s.Method + " " + s.URL
}

// Describe returns a one-line summary of the route for listings.
func (s *Spec) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %s", s.Method, s.URL)
	if s.Generator != nil {
		b.WriteString(" [generator]")
	}
	if s.Range != nil {
		fmt.Fprintf(&b, " range=%s", s.Range)
	}
	if s.Delay != nil {
		fmt.Fprintf(&b, " delay=%s", s.Delay)
	}
	if n := len(s.Processors); n > 0 {
		fmt.Fprintf(&b, " processors=%d", n)
	}
	return b.String()
}

// MatchesMethod reports whether the route accepts the request method.
func (s *Spec) MatchesMethod(method string) bool {
	return s.Method == MethodAll || strings.EqualFold(s.Method, method)
}
