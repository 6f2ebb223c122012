// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package dependents is the backend adapter for the dependents REST API. It
// translates tool calls into single upstream requests and interprets the
// responses into results or typed errors.
package dependents

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/dependents-proxy/pkg/config"
)

// maxBodyBytes caps how much of an upstream response is buffered.
const maxBodyBytes = 8 << 20

// Response is a successful upstream answer.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Client performs requests against the dependents API.
type Client struct {
	// base is the literal network endpoint, e.g. an internal load balancer.
	base *url.URL
	// host is sent as the Host header so the upstream routes to the right service.
	host    string
	timeout time.Duration
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a Client with a pooled transport. Certificate
// verification is only skipped when cfg.InsecureSkipVerify is set.
func NewClient(cfg config.Config) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, // nolint:gosec -- opt-in for the private network segment
		},
	}

	client := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
		// Redirects are reported, never followed.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	base := *cfg.Upstream
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawPath = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:    &base,
		host:    cfg.UpstreamHost,
		timeout: cfg.RequestTimeout,
		client:  client,
		logger:  log.With().Str("component", "dependents").Logger(),
	}
}

// Person is the create payload for a person.
type Person struct {
	ExternalID  string `json:"externalId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Type        string `json:"type"`
}

// Dependent is the create payload for a dependent relationship.
type Dependent struct {
	DependentID  string `json:"dependentId"`
	Relationship string `json:"relationship,omitempty"`
}

// ListOptions carries the optional query parameters of list calls. Empty
// fields are left out of the query.
type ListOptions struct {
	Limit         string
	Offset        string
	Type          string
	Status        string
	PrimaryUserID string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"limit":         o.Limit,
		"offset":        o.Offset,
		"type":          o.Type,
		"status":        o.Status,
		"primaryUserId": o.PrimaryUserID,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// CreatePerson issues POST /people.
func (c *Client) CreatePerson(ctx context.Context, p Person) (Response, error) {
	return c.doJSON(ctx, http.MethodPost, peoplePath(), nil, p)
}

// ListPersons issues GET /people.
func (c *Client) ListPersons(ctx context.Context, opts ListOptions) (Response, error) {
	return c.doJSON(ctx, http.MethodGet, peoplePath(), opts.values(), nil)
}

// GetPerson issues GET /people/{id}.
func (c *Client) GetPerson(ctx context.Context, personID string) (Response, error) {
	return c.doJSON(ctx, http.MethodGet, peoplePath(personID), nil, nil)
}

// UpdatePerson issues PATCH /people/{id} with a partial body keyed by the
// upstream's field names.
func (c *Client) UpdatePerson(ctx context.Context, personID string, patch map[string]any) (Response, error) {
	return c.doJSON(ctx, http.MethodPatch, peoplePath(personID), nil, patch)
}

// DeletePerson issues DELETE /people/{id} and returns the upstream status.
func (c *Client) DeletePerson(ctx context.Context, personID string) (int, error) {
	status, _, err := c.do(ctx, http.MethodDelete, peoplePath(personID), nil, nil)
	return status, err
}

// ListDependents issues GET /people/{id}/dependents.
func (c *Client) ListDependents(ctx context.Context, primaryUserID string, opts ListOptions) (Response, error) {
	return c.doJSON(ctx, http.MethodGet, peoplePath(primaryUserID, "dependents"), opts.values(), nil)
}

// CreateDependent issues POST /people/{id}/dependents.
func (c *Client) CreateDependent(ctx context.Context, primaryUserID string, d Dependent) (Response, error) {
	return c.doJSON(ctx, http.MethodPost, peoplePath(primaryUserID, "dependents"), nil, d)
}

// DeleteDependent issues DELETE /people/{id}/dependents/{dependentID}.
func (c *Client) DeleteDependent(ctx context.Context, primaryUserID, dependentID string) (int, error) {
	status, _, err := c.do(ctx, http.MethodDelete, peoplePath(primaryUserID, "dependents", dependentID), nil, nil)
	return status, err
}

// peoplePath builds an escaped path below /people.
func peoplePath(segments ...string) string {
	var b strings.Builder
	b.WriteString("/people")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// doJSON performs the call and requires a JSON body on success.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) (Response, error) {
	status, payload, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return Response{}, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		c.logger.Error().
			Str("method", method).
			Str("path", path).
			Str("response_text", snippet(payload)).
			Msg("failed to parse upstream JSON response")
		return Response{}, &MalformedResponseError{Snippet: snippet(payload), Err: err}
	}

	return Response{Status: status, Body: raw}, nil
}

// do sends exactly one request and converts redirect and non-2xx answers
// into errors. It returns the status and the buffered body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target, err := url.Parse(c.base.String() + path)
	if err != nil {
		return 0, nil, fmt.Errorf("build upstream url: %w", err)
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.host != "" {
		req.Host = c.host
	}

	event := c.logger.With().
		Str("method", method).
		Str("path", path).
		Logger()

	resp, err := c.client.Do(req)
	if err != nil {
		event.Error().Err(err).Dur("duration", time.Since(start)).Msg("upstream request failed")
		return 0, nil, &TransportError{Timeout: isTimeout(err), Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			event.Error().Err(closeErr).Msg("close upstream response body failed")
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return 0, nil, &TransportError{Timeout: isTimeout(err), Err: fmt.Errorf("read upstream body: %w", err)}
	}
	if len(payload) > maxBodyBytes {
		event.Error().
			Int("status", resp.StatusCode).
			Int("limit_bytes", maxBodyBytes).
			Msg("upstream response too large")
		return resp.StatusCode, nil, &ResponseTooLargeError{Status: resp.StatusCode, Limit: maxBodyBytes}
	}

	event.Info().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("upstream responded")

	switch {
	case isRedirect(resp.StatusCode):
		location := resp.Header.Get("Location")
		event.Warn().Str("location", location).Msg("upstream returned redirect")
		return resp.StatusCode, nil, &RedirectError{Status: resp.StatusCode, Location: location}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		event.Warn().
			Int("status", resp.StatusCode).
			Str("upstream_body", snippet(payload)).
			Msg("upstream returned error")
		return resp.StatusCode, nil, &StatusError{Status: resp.StatusCode, Text: snippet(payload)}
	}

	return resp.StatusCode, payload, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
