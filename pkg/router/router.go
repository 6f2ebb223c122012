// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package router resolves gateway tool names to handlers and wraps every
// outcome, including failures, in a uniform response envelope.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/dependents-proxy/pkg/redact"
)

// DefaultDelimiter separates a gateway target namespace from the tool name,
// e.g. "dependents-api-proxy___list_persons".
const DefaultDelimiter = "___"

// Envelope is the response shape returned for every invocation.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Result is what a handler produces on success.
type Result struct {
	StatusCode int
	Body       any
}

// Handler executes a single tool against its argument mapping.
type Handler func(ctx context.Context, args map[string]any) (Result, error)

// Route binds a tool name to its handler.
type Route struct {
	Name    string
	Handler Handler
}

// StatusCoder is implemented by errors that carry the status to report.
type StatusCoder interface {
	StatusCode() int
}

// Detailer is implemented by errors that add diagnostic fields to the error
// body next to the "error" message.
type Detailer interface {
	Details() map[string]any
}

// Router owns the immutable dispatch table.
type Router struct {
	delimiter string
	handlers  map[string]Handler
	names     []string
	logger    zerolog.Logger
}

// Option customises a Router.
type Option func(*Router)

// WithDelimiter overrides the namespace delimiter.
func WithDelimiter(delimiter string) Option {
	return func(r *Router) {
		if delimiter != "" {
			r.delimiter = delimiter
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New builds the dispatch table. Empty and duplicate tool names are rejected.
func New(routes []Route, opts ...Option) (*Router, error) {
	r := &Router{
		delimiter: DefaultDelimiter,
		handlers:  make(map[string]Handler, len(routes)),
		logger:    log.With().Str("component", "router").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, route := range routes {
		if route.Name == "" {
			return nil, errors.New("route with empty tool name")
		}
		if route.Handler == nil {
			return nil, fmt.Errorf("route %q has no handler", route.Name)
		}
		if _, exists := r.handlers[route.Name]; exists {
			return nil, fmt.Errorf("duplicate route for tool %q", route.Name)
		}
		r.handlers[route.Name] = route.Handler
		r.names = append(r.names, route.Name)
	}

	return r, nil
}

// Names lists the registered tool names in registration order.
func (r *Router) Names() []string {
	return append([]string(nil), r.names...)
}

// Resolve strips everything up to and including the last delimiter.
func (r *Router) Resolve(raw string) string {
	if idx := strings.LastIndex(raw, r.delimiter); idx >= 0 {
		return raw[idx+len(r.delimiter):]
	}
	return raw
}

// Route resolves rawName, invokes the matching handler with event and
// converts the outcome into an Envelope. It never panics.
func (r *Router) Route(ctx context.Context, event map[string]any, rawName string) (env Envelope) {
	start := time.Now()
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &r.logger
	}

	logger.Info().
		Interface("event", redact.Event(event)).
		Str("raw_tool_name", rawName).
		Msg("received invocation")

	name := r.Resolve(rawName)
	if name == "" {
		logger.Error().Msg("missing tool name")
		return ErrorEnvelope(http.StatusBadRequest, "missing tool name", nil)
	}

	handler, ok := r.handlers[name]
	if !ok {
		logger.Error().Str("tool", name).Msg("unknown tool")
		return ErrorEnvelope(http.StatusBadRequest, "unknown tool: "+name, nil)
	}

	event = nonNil(event)
	toolLog := logger.With().Str("tool", name).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			toolLog.Error().
				Interface("panic", rec).
				Dur("duration", time.Since(start)).
				Msg("tool handler panicked")
			env = ErrorEnvelope(http.StatusInternalServerError, fmt.Sprint(rec), nil)
		}
	}()

	result, err := handler(ctx, event)
	if err != nil {
		env = envelopeFromError(err)
		ev := toolLog.Error()
		if env.StatusCode < http.StatusInternalServerError {
			ev = toolLog.Warn()
		}
		ev.Err(err).
			Int("status", env.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("tool failed")
		return env
	}

	env, err = encode(result.StatusCode, result.Body)
	if err != nil {
		toolLog.Error().Err(err).Msg("encode tool result failed")
		return ErrorEnvelope(http.StatusInternalServerError, err.Error(), nil)
	}

	toolLog.Info().
		Int("status", env.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("tool completed")
	return env
}

func envelopeFromError(err error) Envelope {
	status := http.StatusInternalServerError
	var coder StatusCoder
	if errors.As(err, &coder) {
		status = coder.StatusCode()
	}

	var details map[string]any
	var detailer Detailer
	if errors.As(err, &detailer) {
		details = detailer.Details()
	}

	return ErrorEnvelope(status, err.Error(), details)
}

// ErrorEnvelope builds an envelope whose body is {"error": msg} merged with
// details.
func ErrorEnvelope(status int, msg string, details map[string]any) Envelope {
	body := make(map[string]any, len(details)+1)
	for k, v := range details {
		body[k] = v
	}
	body["error"] = msg

	env, err := encode(status, body)
	if err != nil {
		return Envelope{StatusCode: status, Body: `{"error":"internal error"}`}
	}
	return env
}

func encode(status int, body any) (Envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode body: %w", err)
	}
	return Envelope{StatusCode: status, Body: string(raw)}, nil
}

func nonNil(event map[string]any) map[string]any {
	if event == nil {
		return map[string]any{}
	}
	return event
}
