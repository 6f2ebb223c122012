// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package dependents

import (
	"fmt"
	"net/http"
	"strings"
)

// snippetLimit bounds how much of an upstream body is echoed back.
const snippetLimit = 200

// ValidationError reports missing required arguments. No upstream call is
// made when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0] + " is required"
	}
	return strings.Join(e.Fields, " and ") + " are required"
}

// StatusCode maps validation failures to 400.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// RedirectError is returned when the upstream answers with a redirect, which
// indicates a misconfigured intermediary between the proxy and the API.
type RedirectError struct {
	Status   int
	Location string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("upstream returned redirect (%d) - check ingress configuration", e.Status)
}

// StatusCode maps redirects to 500.
func (e *RedirectError) StatusCode() int {
	return http.StatusInternalServerError
}

// Details exposes the redirect target.
func (e *RedirectError) Details() map[string]any {
	return map[string]any{"location": e.Location}
}

// StatusError wraps a non-2xx upstream response.
type StatusError struct {
	Status int
	Text   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("upstream returned %d %s", e.Status, http.StatusText(e.Status))
	if e.Text != "" {
		msg += ": " + e.Text
	}
	return msg
}

// StatusCode maps upstream failures to 500.
func (e *StatusError) StatusCode() int {
	return http.StatusInternalServerError
}

// Details exposes the upstream status.
func (e *StatusError) Details() map[string]any {
	return map[string]any{"upstream_status": e.Status}
}

// MalformedResponseError is returned when a 2xx body is not valid JSON.
type MalformedResponseError struct {
	Snippet string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("invalid JSON response: %v", e.Err)
}

// Unwrap exposes the decode error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// StatusCode maps decode failures to 500.
func (e *MalformedResponseError) StatusCode() int {
	return http.StatusInternalServerError
}

// Details exposes the truncated raw body.
func (e *MalformedResponseError) Details() map[string]any {
	return map[string]any{"response_text": e.Snippet}
}

// ResponseTooLargeError is returned when an upstream body exceeds the read
// limit.
type ResponseTooLargeError struct {
	Status int
	Limit  int
}

func (e *ResponseTooLargeError) Error() string {
	return fmt.Sprintf("upstream response too large: exceeds %d bytes", e.Limit)
}

// StatusCode maps oversized responses to 500.
func (e *ResponseTooLargeError) StatusCode() int {
	return http.StatusInternalServerError
}

// Details exposes the upstream status.
func (e *ResponseTooLargeError) Details() map[string]any {
	return map[string]any{"upstream_status": e.Status}
}

func snippet(b []byte) string {
	r := []rune(strings.ToValidUTF8(string(b), ""))
	if len(r) <= snippetLimit {
		return string(r)
	}
	return string(r[:snippetLimit])
}

// TransportError wraps network and timeout failures talking to the upstream.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("upstream request timed out: %v", e.Err)
	}
	return fmt.Sprintf("perform upstream request: %v", e.Err)
}

// Unwrap exposes the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode maps transport failures to 500.
func (e *TransportError) StatusCode() int {
	return http.StatusInternalServerError
}
