// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package redact masks personal data before it reaches the logs.
package redact

import (
	"fmt"
	"strings"
)

const mask = "****"

// DefaultVisible is the number of trailing characters Secret keeps by default.
const DefaultVisible = 4

// Secret masks all but the last visible characters of value. Values that are
// empty or no longer than visible are masked entirely, as is everything when
// visible is not positive.
func Secret(value string, visible int) string {
	r := []rune(value)
	if visible <= 0 || len(r) <= visible {
		return mask
	}
	return mask + string(r[len(r)-visible:])
}

// Email keeps only the domain part of an address, the text between the
// first and second "@".
func Email(email string) string {
	_, rest, ok := strings.Cut(email, "@")
	if !ok {
		return mask
	}
	domain, _, _ := strings.Cut(rest, "@")
	return mask + "@" + domain
}

// sensitive maps argument keys to the masking applied before logging.
var sensitive = map[string]func(string) string{
	"email":         Email,
	"phone":         func(v string) string { return Secret(v, DefaultVisible) },
	"address":       func(string) string { return mask },
	"date_of_birth": func(string) string { return mask },
	"external_id":   func(v string) string { return Secret(v, DefaultVisible) },
	"first_name":    func(string) string { return mask },
	"last_name":     func(string) string { return mask },
}

// Event returns a copy of an invocation event with personal fields masked.
// The input map is left untouched.
func Event(event map[string]any) map[string]any {
	out := make(map[string]any, len(event))
	for k, v := range event {
		fn, ok := sensitive[k]
		if !ok || v == nil {
			out[k] = v
			continue
		}
		s, isString := v.(string)
		if !isString {
			s = fmt.Sprint(v)
		}
		out[k] = fn(s)
	}
	return out
}
