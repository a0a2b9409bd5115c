package template

import "strings"

// segment is either literal text or an expression source.
type segment struct {
	text string
	expr bool
}

// scan splits s into literal and ${expression} segments. Braces inside an
// expression nest, and braces inside quoted strings are ignored, so map
// literals and string constants work inside expressions.
func scan(s string) ([]segment, error) {
	var segs []segment
	var lit strings.Builder

	for i := 0; i < len(s); {
		if s[i] == '\\' && strings.HasPrefix(s[i+1:], "${") {
			lit.WriteString("${")
			i += 3
			continue
		}
		if !strings.HasPrefix(s[i:], "${") {
			lit.WriteByte(s[i])
			i++
			continue
		}

		end, err := closingBrace(s, i+2)
		if err != nil {
			return nil, err
		}
		src := strings.TrimSpace(s[i+2 : end])
		if src == "" {
			return nil, ErrEmptyExpression
		}
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
		segs = append(segs, segment{text: src, expr: true})
		i = end + 1
	}

	if lit.Len() > 0 {
		segs = append(segs, segment{text: lit.String()})
	}
	return segs, nil
}

// closingBrace returns the index of the brace closing an expression whose
// body starts at from.
func closingBrace(s string, from int) (int, error) {
	depth := 0
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		}
	}
	return 0, ErrUnterminated
}
