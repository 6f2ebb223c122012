// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string   { return e.msg }
func (e *statusErr) StatusCode() int { return e.status }
func (e *statusErr) Details() map[string]any {
	return map[string]any{"location": "http://other"}
}

func newTestRouter(t *testing.T, calls *int) *Router {
	t.Helper()
	routes := []Route{
		{Name: "list_persons", Handler: func(ctx context.Context, args map[string]any) (Result, error) {
			*calls++
			return Result{StatusCode: http.StatusOK, Body: map[string]any{"items": []any{}, "limit": args["limit"]}}, nil
		}},
		{Name: "get_person", Handler: func(ctx context.Context, args map[string]any) (Result, error) {
			*calls++
			return Result{}, &statusErr{status: http.StatusBadRequest, msg: "person_id is required"}
		}},
		{Name: "delete_person", Handler: func(ctx context.Context, args map[string]any) (Result, error) {
			*calls++
			return Result{}, fmt.Errorf("perform upstream request: %w", errors.New("connection refused"))
		}},
		{Name: "update_person", Handler: func(ctx context.Context, args map[string]any) (Result, error) {
			*calls++
			panic("boom")
		}},
	}
	r, err := New(routes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func decodeBody(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
		t.Fatalf("envelope body is not JSON: %q", env.Body)
	}
	return body
}

func TestRouteStripsNamespacePrefix(t *testing.T) {
	var calls int
	r := newTestRouter(t, &calls)

	bare := r.Route(context.Background(), map[string]any{"limit": float64(5)}, "list_persons")
	prefixed := r.Route(context.Background(), map[string]any{"limit": float64(5)}, "dependents-api-proxy___list_persons")

	if bare != prefixed {
		t.Fatalf("prefixed route differs: %+v vs %+v", bare, prefixed)
	}
	if bare.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", bare.StatusCode)
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestResolveUsesLastDelimiter(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := map[string]string{
		"list_persons":          "list_persons",
		"a___b___get_person":    "get_person",
		"ns___":                 "",
		"":                      "",
		"under_score_only_tool": "under_score_only_tool",
	}
	for in, want := range cases {
		if got := r.Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouteUnknownToolNeverInvokesHandler(t *testing.T) {
	var calls int
	r := newTestRouter(t, &calls)

	env := r.Route(context.Background(), map[string]any{}, "ns___drop_tables")

	if env.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", env.StatusCode)
	}
	if body := decodeBody(t, env); body["error"] != "unknown tool: drop_tables" {
		t.Fatalf("unexpected error body: %v", body)
	}
	if calls != 0 {
		t.Fatalf("handler invoked for unknown tool")
	}
}

func TestRouteMissingToolName(t *testing.T) {
	var calls int
	r := newTestRouter(t, &calls)

	for _, raw := range []string{"", "dependents-api-proxy___"} {
		env := r.Route(context.Background(), nil, raw)
		if env.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", raw, env.StatusCode)
		}
	}
	if calls != 0 {
		t.Fatalf("handler invoked without tool name")
	}
}

func TestRouteMapsErrorStatusAndDetails(t *testing.T) {
	var calls int
	r := newTestRouter(t, &calls)

	env := r.Route(context.Background(), map[string]any{}, "get_person")

	if env.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", env.StatusCode)
	}
	body := decodeBody(t, env)
	if body["error"] != "person_id is required" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
	if body["location"] != "http://other" {
		t.Fatalf("details not merged: %v", body)
	}
}

func TestRouteConvertsFailuresTo500(t *testing.T) {
	var calls int
	r := newTestRouter(t, &calls)

	env := r.Route(context.Background(), map[string]any{"person_id": "p1"}, "delete_person")

	if env.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", env.StatusCode)
	}
	if body := decodeBody(t, env); !strings.Contains(body["error"].(string), "connection refused") {
		t.Fatalf("failure message missing: %v", body)
	}
}

func TestRouteRecoversHandlerPanic(t *testing.T) {
	var calls int
	r := newTestRouter(t, &calls)

	env := r.Route(context.Background(), map[string]any{"person_id": "p1"}, "update_person")

	if env.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", env.StatusCode)
	}
	if body := decodeBody(t, env); body["error"] != "boom" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestNewRejectsDuplicateAndEmptyNames(t *testing.T) {
	h := func(context.Context, map[string]any) (Result, error) { return Result{}, nil }

	if _, err := New([]Route{{Name: "a", Handler: h}, {Name: "a", Handler: h}}); err == nil {
		t.Fatal("expected duplicate route error")
	}
	if _, err := New([]Route{{Name: "", Handler: h}}); err == nil {
		t.Fatal("expected empty name error")
	}
	if _, err := New([]Route{{Name: "a"}}); err == nil {
		t.Fatal("expected missing handler error")
	}
}

func TestWithDelimiter(t *testing.T) {
	r, err := New(nil, WithDelimiter("::"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.Resolve("ns::get_person"); got != "get_person" {
		t.Fatalf("unexpected resolution: %q", got)
	}
}
