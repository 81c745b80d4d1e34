// Package extractor provides tools for extracting values from the archive's
// nested, variant-shaped metadata structures.
package extractor

import (
	"fmt"
	"strconv"
	"strings"
)

// AsList normalizes the archive's one-or-many fields: a field that is
// sometimes a single object and sometimes a list is always handled as a list.
// Nil yields an empty list.
func AsList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	case []map[string]any:
		result := make([]any, len(val))
		for i, m := range val {
			result[i] = m
		}
		return result
	default:
		return []any{val}
	}
}

// AsMap asserts a node is a mapping; returns false for anything else.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsString coerces a scalar value to a string. A `{"#text": ...}` wrapper
// object (the decoder's representation of an attributed text node) yields its
// text field.
func AsString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if text, ok := val["#text"]; ok {
			return AsString(text)
		}
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsInt coerces a scalar value to an integer, defaulting to 0 when absent or
// unparseable.
func AsInt(v any) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int:
		return int64(val)
	case int64:
		return val
	default:
		s := AsString(v)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
}

// Lookup descends a nested mapping along the given keys. Returns nil when any
// intermediate node is absent or not a mapping.
func Lookup(node map[string]any, path ...string) any {
	var current any = node
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

// LookupString is Lookup followed by AsString.
func LookupString(node map[string]any, path ...string) string {
	return AsString(Lookup(node, path...))
}

// FindByNamespace searches an identifier field - itself a single object or a
// list of objects tagged by `@namespace` - for an entry matching the wanted
// namespace (case-insensitive). Returns nil when nothing matches.
func FindByNamespace(v any, namespace string) map[string]any {
	for _, entry := range AsList(v) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if strings.EqualFold(AsString(m["@namespace"]), namespace) {
			return m
		}
	}
	return nil
}

// SoleKey returns the single key of a mapping whose key is itself the value
// (e.g. the PLATFORM block, keyed by the platform's name). Errors when the
// mapping does not have exactly one key.
func SoleKey(m map[string]any) (string, error) {
	if len(m) != 1 {
		return "", fmt.Errorf("expected exactly one key, got %d", len(m))
	}
	for k := range m {
		return k, nil
	}
	return "", nil
}
