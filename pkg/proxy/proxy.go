// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/dependents-proxy/pkg/config"
	"github.com/go-core-stack/dependents-proxy/pkg/router"
	"github.com/go-core-stack/dependents-proxy/pkg/tools"
)

// Proxy is the inbound HTTP surface in front of the tool router.
type Proxy struct {
	// cfg keeps runtime knobs such as the client context field name.
	cfg config.Config
	// router resolves and executes tool calls.
	router *router.Router
	// catalog is served on /tools and registered with the MCP server.
	catalog []tools.Descriptor
	// logger emits structured logs for observability.
	logger zerolog.Logger
	// newID assigns invocation identifiers.
	newID func() string

	mux chi.Router
}

// New wires the HTTP routes, including the MCP endpoint, around rt.
func New(cfg config.Config, rt *router.Router, catalog []tools.Descriptor) (http.Handler, error) {
	p := &Proxy{
		cfg:     cfg,
		router:  rt,
		catalog: catalog,
		logger:  log.With().Str("component", "proxy").Logger(),
		newID:   uuid.NewString,
	}

	mcpServer, err := newMCPServer(rt, catalog)
	if err != nil {
		return nil, fmt.Errorf("build mcp server: %w", err)
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(p.accessLog)

	mux.Post("/invoke", p.serveInvoke)
	mux.Post("/invoke/{tool}", p.serveInvoke)
	mux.Get("/tools", p.serveCatalog)
	mux.Get("/healthz", p.serveHealth)
	mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))

	p.mux = mux
	return p, nil
}

// ServeHTTP dispatches to the chi router.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

// serveInvoke handles one Lambda-style invocation. The transport status is
// always 200; the call outcome travels in the envelope.
func (p *Proxy) serveInvoke(w http.ResponseWriter, r *http.Request) {
	id := p.newID()
	w.Header().Set(HeaderInvocationID, id)

	logger := p.logger.With().Str("invocation_id", id).Logger()
	ctx := logger.WithContext(r.Context())

	name := chi.URLParam(r, "tool")
	if name == "" {
		var err error
		name, err = toolNameFromHeaders(r.Header, p.cfg.ToolNameField)
		if err != nil {
			logger.Warn().Err(err).Msg("rejecting invocation with invalid client context")
			p.writeJSON(w, http.StatusOK, router.ErrorEnvelope(http.StatusBadRequest, err.Error(), nil))
			return
		}
	}

	event, err := decodeEvent(r.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("rejecting invocation with invalid event")
		p.writeJSON(w, http.StatusOK, router.ErrorEnvelope(http.StatusBadRequest, err.Error(), nil))
		return
	}

	p.writeJSON(w, http.StatusOK, p.router.Route(ctx, event, name))
}

func (p *Proxy) serveCatalog(w http.ResponseWriter, r *http.Request) {
	p.writeJSON(w, http.StatusOK, map[string]any{
		"tools": p.catalog,
		"count": len(p.catalog),
	})
}

func (p *Proxy) serveHealth(w http.ResponseWriter, r *http.Request) {
	p.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tools":  len(p.router.Names()),
	})
}

// accessLog records one line per request once the response is written.
func (p *Proxy) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		p.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}

func (p *Proxy) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		p.logger.Error().Err(err).Msg("write response failed")
	}
}
