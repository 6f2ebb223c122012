// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// HeaderClientContext carries the base64 encoded JSON client context of a
	// Lambda-style invocation.
	HeaderClientContext = "X-Amz-Client-Context"
	// HeaderToolName is a plain alternative to the client context.
	HeaderToolName = "X-Tool-Name"
	// HeaderInvocationID echoes the identifier assigned to each invocation.
	HeaderInvocationID = "X-Invocation-Id"

	maxEventBytes = 1 << 20
)

// clientContext mirrors the parts of the invocation context the proxy reads.
type clientContext struct {
	Custom map[string]any `json:"custom"`
}

// toolNameFromHeaders returns the raw tool name from the client context, or
// from the plain tool name header when no client context is present.
func toolNameFromHeaders(h http.Header, field string) (string, error) {
	if encoded := strings.TrimSpace(h.Get(HeaderClientContext)); encoded != "" {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode client context: %w", err)
		}
		var cc clientContext
		if err := json.Unmarshal(raw, &cc); err != nil {
			return "", fmt.Errorf("parse client context: %w", err)
		}
		if name, ok := cc.Custom[field].(string); ok && name != "" {
			return name, nil
		}
	}
	return strings.TrimSpace(h.Get(HeaderToolName)), nil
}

// decodeEvent reads the invocation event, a flat JSON object of arguments.
// An empty body is an empty event.
func decodeEvent(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxEventBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	if len(raw) > maxEventBytes {
		return nil, errors.New("event exceeds 1MiB")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var event map[string]any
	if err := dec.Decode(&event); err != nil {
		return nil, fmt.Errorf("event must be a JSON object: %w", err)
	}
	if event == nil {
		event = map[string]any{}
	}
	return event, nil
}
