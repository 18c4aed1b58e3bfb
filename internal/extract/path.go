package extract

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Lookup walks a dot path. A "*" segment matches any single key or index at
// that level; numeric segments index arrays. There is no recursive search.
func Lookup(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}
	return lookupParts(root, strings.Split(path, "."))
}

func lookupParts(v any, parts []string) (any, bool) {
	if len(parts) == 0 {
		return v, v != nil
	}
	head, rest := parts[0], parts[1:]
	switch node := v.(type) {
	case map[string]any:
		if head == "*" {
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if out, ok := lookupParts(node[k], rest); ok {
					return out, true
				}
			}
			return nil, false
		}
		child, ok := node[head]
		if !ok {
			return nil, false
		}
		return lookupParts(child, rest)
	case []any:
		if head == "*" {
			for _, child := range node {
				if out, ok := lookupParts(child, rest); ok {
					return out, true
				}
			}
			return nil, false
		}
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(node) {
			return nil, false
		}
		return lookupParts(node[idx], rest)
	}
	return nil, false
}

// FirstObject returns the first path that resolves to a JSON object.
func FirstObject(root any, paths []string) (map[string]any, string, bool) {
	for _, p := range paths {
		v, ok := Lookup(root, p)
		if !ok {
			continue
		}
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			return m, p, true
		}
	}
	return nil, "", false
}

func Obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func Arr(v any) []any {
	a, _ := v.([]any)
	return a
}

// Str returns the first non-empty string (or number) found at any of keys.
func Str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := Lookup(m, k)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case string:
			if s := strings.TrimSpace(x); s != "" {
				return s
			}
		case json.Number:
			return x.String()
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
	}
	return ""
}

// Uint returns the first count found at any of keys. Counts such as
// "1.2万" or "3k" are expanded; negative and unparseable values are skipped.
func Uint(m map[string]any, keys ...string) *uint64 {
	for _, k := range keys {
		v, ok := Lookup(m, k)
		if !ok {
			continue
		}
		if n, ok := toUint(v); ok {
			return &n
		}
	}
	return nil
}

// Any returns the raw value at the first present key.
func Any(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := Lookup(m, k); ok {
			return v
		}
	}
	return nil
}

func toUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatCount(f)
	case float64:
		return floatCount(x)
	case int64:
		return floatCount(float64(x))
	case int:
		return floatCount(float64(x))
	case string:
		return ParseCount(x)
	}
	return 0, false
}

func floatCount(f float64) (uint64, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return uint64(f), true
}

// ParseCount reads display counts like "1,234", "1.2万", "3.5w", "2亿", "4k".
func ParseCount(s string) (uint64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSuffix(s, "+")
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "万"):
		mult, s = 1e4, strings.TrimSuffix(s, "万")
	case strings.HasSuffix(s, "亿"):
		mult, s = 1e8, strings.TrimSuffix(s, "亿")
	case strings.HasSuffix(s, "w"), strings.HasSuffix(s, "W"):
		mult, s = 1e4, s[:len(s)-1]
	case strings.HasSuffix(s, "k"), strings.HasSuffix(s, "K"):
		mult, s = 1e3, s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return floatCount(math.Round(f * mult))
}
