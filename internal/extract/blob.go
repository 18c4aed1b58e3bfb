package extract

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Pattern locates one embedded state blob in a page. Either Marker (the blob
// is the balanced object or array following it) or Regexp (capture group 1)
// is set.
type Pattern struct {
	Name   string
	Marker string
	Regexp *regexp.Regexp
}

func (p Pattern) candidates(html string) []string {
	var out []string
	if p.Marker != "" {
		rest := html
		for {
			raw, next, err := balancedAfter(rest, p.Marker)
			if err != nil {
				if next == "" {
					break
				}
				rest = next
				continue
			}
			out = append(out, raw)
			rest = next
		}
	}
	if p.Regexp != nil {
		for _, m := range p.Regexp.FindAllStringSubmatch(html, -1) {
			if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
				out = append(out, strings.TrimSpace(m[1]))
			}
		}
	}
	return out
}

// balancedAfter returns the JSON-ish value that starts after marker, plus the
// remaining text so the caller can look for further occurrences.
func balancedAfter(text, marker string) (string, string, error) {
	idx := strings.Index(text, marker)
	if idx == -1 {
		return "", "", fmt.Errorf("marker not found: %s", marker)
	}
	s := text[idx+len(marker):]
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return "", "", fmt.Errorf("json start not found after marker")
	}
	if gap := strings.TrimSpace(s[:start]); gap != "" && gap != "=" && gap != "(" && gap != "=(" {
		return "", s, fmt.Errorf("unexpected text between marker and json: %q", gap)
	}
	s = s[start:]

	depth := 0
	var quote byte
	escape := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}

		switch ch {
		case '"', '\'':
			quote = ch
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1], s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("unterminated json value")
}

// Decode parses a blob, trying the URI-decoded form first, then the raw
// form, then evaluating it as a JavaScript literal.
func Decode(raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	if strings.Contains(raw, "%") {
		if dec, err := url.PathUnescape(raw); err == nil && dec != raw {
			if v, ok := decodeJSON(dec); ok {
				return v, true
			}
		}
	}
	if v, ok := decodeJSON(raw); ok {
		return v, true
	}
	return evalLiteral(raw)
}

func decodeJSON(raw string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(replaceUndefined(raw)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false
	}
	switch out.(type) {
	case map[string]any, []any:
		return out, true
	}
	return nil, false
}

// replaceUndefined swaps bare undefined tokens for null outside strings.
func replaceUndefined(raw string) string {
	const tok = "undefined"
	if !strings.Contains(raw, tok) {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw))
	inString := false
	escape := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			b.WriteByte(ch)
			if escape {
				escape = false
			} else if ch == '\\' {
				escape = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if strings.HasPrefix(raw[i:], tok) && !identByte(raw, i-1) && !identByte(raw, i+len(tok)) {
			b.WriteString("null")
			i += len(tok) - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func identByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || c == '$' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

const literalEvalBudget = 200 * time.Millisecond

// evalLiteral handles state blobs written as JavaScript object literals
// (unquoted keys, single quotes, trailing commas). The VM has no host
// bindings and is interrupted after a short budget.
func evalLiteral(raw string) (any, bool) {
	vm := goja.New()
	timer := time.AfterFunc(literalEvalBudget, func() { vm.Interrupt("literal eval timeout") })
	defer timer.Stop()

	val, err := vm.RunString("(" + raw + ")")
	if err != nil || val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, false
	}
	b, err := json.Marshal(val.Export())
	if err != nil {
		return nil, false
	}
	return decodeJSON(string(b))
}
