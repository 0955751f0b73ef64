package extractor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// directive is an attribute written in a doc comment:
//
//	@Category("fast")
//	@Timeout(30, Unit="s")
//	@Explicit
type directive struct {
	name  string
	args  []any
	named map[string]any
	keys  []string // named argument order
}

// parseDirectives returns the directives of doc, one per line starting
// with '@'. Malformed directives are returned as errors next to the ones
// that parsed.
func parseDirectives(doc string) ([]directive, []error) {
	var (
		out  []directive
		errs []error
	)
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		d, err := parseDirective(line[1:])
		if err != nil {
			errs = append(errs, fmt.Errorf("directive %q: %w", line, err))
			continue
		}
		out = append(out, d)
	}
	return out, errs
}

func parseDirective(s string) (directive, error) {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.')
	})
	if end < 0 {
		end = len(s)
	}
	d := directive{name: s[:end]}
	if d.name == "" {
		return d, fmt.Errorf("missing name")
	}
	rest := strings.TrimSpace(s[end:])
	if rest == "" {
		return d, nil
	}
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return d, fmt.Errorf("expected an argument list")
	}
	parts, err := splitArgs(rest[1 : len(rest)-1])
	if err != nil {
		return d, err
	}
	for _, part := range parts {
		if key, value, ok := namedArg(part); ok {
			if d.named == nil {
				d.named = make(map[string]any)
			}
			if _, dup := d.named[key]; dup {
				return d, fmt.Errorf("argument %s given twice", key)
			}
			d.named[key] = parseLiteral(value)
			d.keys = append(d.keys, key)
			continue
		}
		if len(d.named) > 0 {
			return d, fmt.Errorf("positional argument after named arguments")
		}
		d.args = append(d.args, parseLiteral(part))
	}
	return d, nil
}

// splitArgs splits on commas outside of string literals.
func splitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var (
		parts []string
		start int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '`':
			quote = c
		case c == ',':
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string")
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty argument")
		}
	}
	return parts, nil
}

func namedArg(s string) (string, string, bool) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, "\"` ") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// parseLiteral reads a Go literal. Anything else is kept as written.
func parseLiteral(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, "`") {
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
