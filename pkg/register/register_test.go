// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package register

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-core-stack/dependents-proxy/pkg/auth"
	"github.com/go-core-stack/dependents-proxy/pkg/config"
)

func newTestClient(t *testing.T, srv *httptest.Server, attempts int) *Client {
	t.Helper()
	controlURL, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse control url: %v", err)
	}
	c := New(config.Registration{
		ControlURL:     controlURL,
		GatewayID:      "gw-1",
		TargetName:     "dependents-api-proxy",
		TargetEndpoint: "https://proxy.internal/invoke",
		APIKey:         "key",
		APISecret:      "secret",
		PollInterval:   time.Millisecond,
		PollAttempts:   attempts,
		RequestTimeout: time.Second,
	})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestRegisterWaitsForReady(t *testing.T) {
	var (
		polls    int32
		received Target
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(auth.HeaderSignature) == "" || r.Header.Get(auth.HeaderAPIKey) != "key" {
			http.Error(w, "unsigned", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/gateways/gw-1/targets":
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(TargetStatus{TargetID: "t-1", Status: "CREATING"})
		case r.Method == http.MethodGet && r.URL.Path == "/gateways/gw-1/targets/t-1":
			status := "CREATING"
			if atomic.AddInt32(&polls, 1) >= 3 {
				status = StatusReady
			}
			_ = json.NewEncoder(w).Encode(TargetStatus{TargetID: "t-1", Status: status})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 5)
	status, err := c.Register(context.Background(), NewTarget("dependents-api-proxy", "https://proxy.internal/invoke"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if status.Status != StatusReady || status.TargetID != "t-1" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if atomic.LoadInt32(&polls) != 3 {
		t.Fatalf("expected 3 polls, got %d", polls)
	}
	if received.Name != "dependents-api-proxy" || len(received.Tools) != 8 {
		t.Fatalf("unexpected registration body: %+v", received)
	}
}

func TestRegisterReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(TargetStatus{TargetID: "t-2", Status: "CREATING"})
			return
		}
		_ = json.NewEncoder(w).Encode(TargetStatus{TargetID: "t-2", Status: StatusFailed, FailureReason: "invalid schema"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 5)
	_, err := c.Register(context.Background(), NewTarget("dependents-api-proxy", "https://proxy.internal/invoke"))
	if err == nil || !strings.Contains(err.Error(), "invalid schema") {
		t.Fatalf("expected failure reason, got %v", err)
	}
}

func TestRegisterGivesUp(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&polls, 1)
		}
		_ = json.NewEncoder(w).Encode(TargetStatus{TargetID: "t-3", Status: "CREATING"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 2)
	_, err := c.Register(context.Background(), NewTarget("dependents-api-proxy", "https://proxy.internal/invoke"))
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if atomic.LoadInt32(&polls) != 2 {
		t.Fatalf("expected 2 polls, got %d", polls)
	}
}

func TestRegisterSurfacesControlPlaneErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict: target exists", http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 1)
	_, err := c.Register(context.Background(), NewTarget("dependents-api-proxy", "https://proxy.internal/invoke"))
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("expected 409 error, got %v", err)
	}
}
