package loader

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func (d *decoder) decodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return d.node(&doc)
}

func (d *decoder) node(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.node(n.Content[0])
	case yaml.AliasNode:
		return d.node(n.Alias)
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.SequenceNode:
		if isLocalTag(n.Tag) {
			return nil, fmt.Errorf("line %d: tag %s cannot be applied to a list", n.Line, n.Tag)
		}
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.node(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		if isLocalTag(n.Tag) {
			return nil, fmt.Errorf("line %d: tag %s cannot be applied to a map", n.Line, n.Tag)
		}
		return d.mapping(n)
	default:
		return nil, fmt.Errorf("line %d: unexpected node", n.Line)
	}
}

func (d *decoder) scalar(n *yaml.Node) (any, error) {
	var (
		v   any
		err error
	)
	switch n.Tag {
	case tagInclude:
		v, err = d.include(n.Value)
	case tagFn:
		v, err = d.fn(n.Value)
	case tagExpr:
		v, err = d.expr(n.Value)
	case "!!timestamp":
		// yaml.v3 yields timestamps as strings when decoding into any
		var t time.Time
		if err = n.Decode(&t); err == nil {
			v = t
		}
	default:
		if isLocalTag(n.Tag) {
			return nil, fmt.Errorf("line %d: unknown tag %s", n.Line, n.Tag)
		}
		err = n.Decode(&v)
	}
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return v, nil
}

func (d *decoder) mapping(n *yaml.Node) (any, error) {
	out := make(map[string]any, len(n.Content)/2)

	// merge keys first, so explicit keys override merged ones
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Tag != "!!merge" {
			continue
		}
		merged, err := d.node(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		switch m := merged.(type) {
		case map[string]any:
			maps.Copy(out, m)
		case []any:
			for j := len(m) - 1; j >= 0; j-- {
				mm, ok := m[j].(map[string]any)
				if !ok {
					return nil, fmt.Errorf("line %d: merge of a non-map value", n.Content[i].Line)
				}
				maps.Copy(out, mm)
			}
		default:
			return nil, fmt.Errorf("line %d: merge of a non-map value", n.Content[i].Line)
		}
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Tag == "!!merge" {
			continue
		}
		key, err := d.node(k)
		if err != nil {
			return nil, err
		}
		val, err := d.node(v)
		if err != nil {
			return nil, err
		}
		if s, ok := key.(string); ok {
			out[s] = val
		} else {
			out[fmt.Sprint(key)] = val
		}
	}

	if res, ok, err := d.marker(out); ok || err != nil {
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return res, nil
	}
	return out, nil
}

// isLocalTag reports whether tag is an application tag like "!include"
// rather than a core "!!" tag.
func isLocalTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}
