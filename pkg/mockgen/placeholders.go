package mockgen

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// placeholderPattern matches @name or @name(args).
var placeholderPattern = regexp.MustCompile(`@([A-Za-z]+)(?:\(([^)]*)\))?`)

type placeholderFunc func(g *Generator, args []string) any

var placeholders map[string]placeholderFunc

func init() {
	placeholders = map[string]placeholderFunc{
		"guid":     phUUID,
		"uuid":     phUUID,
		"id":       func(g *Generator, _ []string) any { return g.between(1, 99999) },
		"integer":  phInteger,
		"int":      phInteger,
		"natural":  phNatural,
		"float":    phFloat,
		"boolean":  func(g *Generator, _ []string) any { return g.intN(2) == 1 },
		"bool":     func(g *Generator, _ []string) any { return g.intN(2) == 1 },
		"string":   phString,
		"first":    func(g *Generator, _ []string) any { return g.pick(firstNames) },
		"last":     func(g *Generator, _ []string) any { return g.pick(lastNames) },
		"name":     func(g *Generator, _ []string) any { return g.pick(firstNames) + " " + g.pick(lastNames) },
		"email":    phEmail,
		"phone":    phPhone,
		"company":  func(g *Generator, _ []string) any { return g.pick(companies) },
		"word":     func(g *Generator, _ []string) any { return g.pick(words) },
		"sentence": func(g *Generator, _ []string) any { return g.pick(sentences) },
		"color":    func(g *Generator, _ []string) any { return g.pick(colors) },
		"ip":       phIP,
		"url":      phURL,
		"date":     func(g *Generator, _ []string) any { return g.randomTime().Format("2006-01-02") },
		"datetime": func(g *Generator, _ []string) any { return g.randomTime().Format(time.RFC3339) },
		"time":     func(g *Generator, _ []string) any { return g.randomTime().Format("15:04:05") },
		"pick":     phPick,
		"currency": func(g *Generator, _ []string) any { return g.pick(currencyCodes) },
		"product":  phProduct,
		"job":      phJob,
		"mime":     func(g *Generator, _ []string) any { return g.pick(mimeTypes) },
	}
}

// expandString resolves a whole-string placeholder to a typed value, or
// substitutes embedded placeholders as text.
func (g *Generator) expandString(s string) any {
	if !strings.Contains(s, "@") {
		return s
	}

	if loc := placeholderPattern.FindStringSubmatchIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
		if v, ok := g.resolve(s, loc); ok {
			return v
		}
		return s
	}

	var sb strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(s, -1) {
		if loc[0] > 0 && s[loc[0]-1] == '\\' {
			sb.WriteString(s[last : loc[0]-1])
			sb.WriteString(s[loc[0]:loc[1]])
			last = loc[1]
			continue
		}
		v, ok := g.resolve(s, loc)
		if !ok {
			continue
		}
		sb.WriteString(s[last:loc[0]])
		sb.WriteString(fmt.Sprint(v))
		last = loc[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

func (g *Generator) resolve(s string, loc []int) (any, bool) {
	name := s[loc[2]:loc[3]]
	fn, ok := placeholders[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	var args []string
	if loc[4] >= 0 {
		args = splitArgs(s[loc[4]:loc[5]])
	}
	return fn(g, args), true
}

func splitArgs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return parts
}

// intArgs parses up to two integer args with defaults.
func intArgs(args []string, lo, hi int) (int, int) {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			lo = n
		}
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			hi = n
		}
	}
	return lo, hi
}

func phUUID(g *Generator, _ []string) any {
	if g.rng == nil {
		return uuid.NewString()
	}
	u, err := uuid.NewRandomFromReader(g)
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

func phInteger(g *Generator, args []string) any {
	lo, hi := intArgs(args, -10000, 10000)
	return g.between(lo, hi)
}

func phNatural(g *Generator, args []string) any {
	lo, hi := intArgs(args, 0, 10000)
	if lo < 0 {
		lo = 0
	}
	return g.between(lo, hi)
}

func phFloat(g *Generator, args []string) any {
	lo, hi := 0.0, 1.0
	decimals := 2
	if len(args) > 0 {
		if f, err := strconv.ParseFloat(args[0], 64); err == nil {
			lo = f
		}
	}
	if len(args) > 1 {
		if f, err := strconv.ParseFloat(args[1], 64); err == nil {
			hi = f
		}
	}
	if len(args) > 2 {
		if n, err := strconv.Atoi(args[2]); err == nil && n >= 0 {
			decimals = n
		}
	}
	v := lo + g.float64()*(hi-lo)
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func phString(g *Generator, args []string) any {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	n := 8
	switch len(args) {
	case 0:
	case 1:
		n, _ = intArgs(args, 8, 8)
	default:
		lo, hi := intArgs(args, 1, 8)
		n = g.between(lo, hi)
	}
	if n < 0 {
		n = 0
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[g.intN(len(charset))]
	}
	return string(b)
}

func phEmail(g *Generator, _ []string) any {
	return strings.ToLower(g.pick(firstNames)) + strconv.Itoa(g.intN(1000)) + "@" + g.pick(emailDomains)
}

func phPhone(g *Generator, _ []string) any {
	return fmt.Sprintf("+1-%03d-%03d-%04d", g.intN(900)+100, g.intN(900)+100, g.intN(10000))
}

func phIP(g *Generator, _ []string) any {
	return fmt.Sprintf("%d.%d.%d.%d", g.intN(256), g.intN(256), g.intN(256), g.intN(256))
}

func phURL(g *Generator, _ []string) any {
	return "https://" + g.pick(words) + "." + g.pick(tlds) + "/" + g.pick(words)
}

func phPick(g *Generator, args []string) any {
	if len(args) == 0 {
		return nil
	}
	return args[g.intN(len(args))]
}

func phProduct(g *Generator, _ []string) any {
	return g.pick(productAdjectives) + " " + g.pick(productMaterials) + " " + g.pick(productNouns)
}

func phJob(g *Generator, _ []string) any {
	return g.pick(jobLevels) + " " + g.pick(jobFields) + " " + g.pick(jobRoles)
}

// randomTime returns a time within ten years before the generator's clock.
func (g *Generator) randomTime() time.Time {
	const tenYears = 10 * 365 * 24 * time.Hour
	offset := time.Duration(g.float64() * float64(tenYears))
	return g.now().Add(-offset).UTC().Truncate(time.Second)
}
