// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package dependents

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Args is the flat argument mapping supplied by the gateway for one call.
type Args map[string]any

// String returns the argument rendered as a string. The boolean is false when
// the key is absent or the value is empty, zero or false.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || !truthy(v) {
		return "", false
	}
	return render(v), true
}

// Optional returns the argument rendered as a string whenever it is supplied.
// Unlike String, zero and false are kept; only absent, null and empty string
// values are reported as missing.
func (a Args) Optional(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	if s, isString := v.(string); isString && s == "" {
		return "", false
	}
	return render(v), true
}

func render(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Value returns the raw argument when it is truthy.
func (a Args) Value(key string) (any, bool) {
	v, ok := a[key]
	if !ok || !truthy(v) {
		return nil, false
	}
	return v, true
}

// Require returns the string values of keys, or a ValidationError naming
// every missing one.
func (a Args) Require(keys ...string) ([]string, error) {
	vals := make([]string, len(keys))
	var missing []string
	for i, k := range keys {
		v, ok := a.String(k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		vals[i] = v
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}
	return vals, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		return t != "" && t != "0"
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
