package router

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPattern is returned for patterns that cannot be compiled.
var ErrInvalidPattern = errors.New("invalid pattern")

type segmentKind int

const (
	segLiteral segmentKind = iota
	segParam
	segWildcard
)

type segment struct {
	kind segmentKind
	text string // literal text or parameter name
}

// Pattern is a compiled path pattern.
type Pattern struct {
	raw      string
	segments []segment
}

// CompilePattern parses a path pattern.
func CompilePattern(raw string) (*Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("%w %q: must start with /", ErrInvalidPattern, raw)
	}

	p := &Pattern{raw: raw}
	seen := map[string]bool{}
	wildcards := 0

	parts := splitPath(raw)
	for i, part := range parts {
		var seg segment
		switch {
		case part == "*":
			seg = segment{kind: segWildcard, text: strconv.Itoa(wildcards)}
			wildcards++
		case strings.HasPrefix(part, ":"):
			seg = segment{kind: segParam, text: part[1:]}
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			seg = segment{kind: segParam, text: part[1 : len(part)-1]}
		case strings.ContainsAny(part, "{}"):
			return nil, fmt.Errorf("%w %q: unbalanced brace in segment %d", ErrInvalidPattern, raw, i+1)
		default:
			seg = segment{kind: segLiteral, text: part}
		}

		if seg.kind == segParam {
			if !validName(seg.text) {
				return nil, fmt.Errorf("%w %q: bad parameter name %q", ErrInvalidPattern, raw, seg.text)
			}
			if seen[seg.text] {
				return nil, fmt.Errorf("%w %q: duplicate parameter %q", ErrInvalidPattern, raw, seg.text)
			}
			seen[seg.text] = true
		}
		p.segments = append(p.segments, seg)
	}
	return p, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// String returns the pattern source.
func (p *Pattern) String() string {
	return p.raw
}

// Match reports whether path matches and returns the captured parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	params := map[string]string{}

	for i, seg := range p.segments {
		last := i == len(p.segments)-1
		if seg.kind == segWildcard && last {
			if i > len(parts) {
				return nil, false
			}
			params[seg.text] = strings.Join(parts[i:], "/")
			return params, true
		}
		if i >= len(parts) {
			return nil, false
		}
		switch seg.kind {
		case segLiteral:
			if parts[i] != seg.text {
				return nil, false
			}
		case segParam, segWildcard:
			params[seg.text] = parts[i]
		}
	}

	if len(parts) != len(p.segments) {
		return nil, false
	}
	return params, true
}
