// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package register binds the proxy's tools to a gateway control plane. A
// target is created once and then polled until the gateway reports it ready.
package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/dependents-proxy/pkg/auth"
	"github.com/go-core-stack/dependents-proxy/pkg/config"
	"github.com/go-core-stack/dependents-proxy/pkg/tools"
)

// Target states reported by the control plane.
const (
	StatusReady  = "READY"
	StatusFailed = "FAILED"
)

// ErrNotReady is returned when polling gives up before the target is ready.
var ErrNotReady = errors.New("target did not become ready")

// Target is the registration request body.
type Target struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Endpoint    string             `json:"endpoint"`
	Tools       []tools.Descriptor `json:"tools"`
}

// TargetStatus is the control plane's view of a target.
type TargetStatus struct {
	TargetID      string `json:"targetId"`
	Status        string `json:"status"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Client talks to the gateway control plane.
type Client struct {
	cfg    config.Registration
	client *http.Client
	signer *auth.Signer
	logger zerolog.Logger
	// sleep waits between polls; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a registration client.
func New(cfg config.Registration) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		signer: auth.NewSigner(cfg.APIKey, cfg.APISecret),
		logger: log.With().Str("component", "register").Str("gateway_id", cfg.GatewayID).Logger(),
		sleep:  sleepContext,
	}
}

// NewTarget builds the registration body for the full tool catalog.
func NewTarget(name, endpoint string) Target {
	return Target{
		Name:        name,
		Description: "Proxy for the dependents API: person and dependent relationship tools",
		Endpoint:    endpoint,
		Tools:       tools.Catalog(),
	}
}

// Register creates the target and waits until it is READY.
func (c *Client) Register(ctx context.Context, target Target) (TargetStatus, error) {
	created, err := c.createTarget(ctx, target)
	if err != nil {
		return TargetStatus{}, err
	}

	c.logger.Info().
		Str("target_id", created.TargetID).
		Int("tools", len(target.Tools)).
		Msg("target created; waiting for READY")

	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		status, err := c.getTarget(ctx, created.TargetID)
		if err != nil {
			return TargetStatus{}, err
		}

		c.logger.Info().
			Int("attempt", attempt).
			Str("status", status.Status).
			Msg("polled target status")

		switch status.Status {
		case StatusReady:
			return status, nil
		case StatusFailed:
			return status, fmt.Errorf("target %s failed: %s", status.TargetID, status.FailureReason)
		}

		if attempt < c.cfg.PollAttempts {
			if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
				return TargetStatus{}, err
			}
		}
	}

	return TargetStatus{}, fmt.Errorf("%w after %d attempts", ErrNotReady, c.cfg.PollAttempts)
}

func (c *Client) createTarget(ctx context.Context, target Target) (TargetStatus, error) {
	body, err := json.Marshal(target)
	if err != nil {
		return TargetStatus{}, fmt.Errorf("encode target: %w", err)
	}
	var out TargetStatus
	if err := c.call(ctx, http.MethodPost, c.targetsURL(), body, &out); err != nil {
		return TargetStatus{}, fmt.Errorf("create target: %w", err)
	}
	if out.TargetID == "" {
		return TargetStatus{}, errors.New("create target: response carried no targetId")
	}
	return out, nil
}

func (c *Client) getTarget(ctx context.Context, id string) (TargetStatus, error) {
	var out TargetStatus
	if err := c.call(ctx, http.MethodGet, c.targetsURL(id), nil, &out); err != nil {
		return TargetStatus{}, fmt.Errorf("get target %s: %w", id, err)
	}
	if out.TargetID == "" {
		out.TargetID = id
	}
	return out, nil
}

func (c *Client) targetsURL(id ...string) string {
	elems := []string{"gateways", url.PathEscape(c.cfg.GatewayID), "targets"}
	for _, s := range id {
		elems = append(elems, url.PathEscape(s))
	}
	return c.cfg.ControlURL.JoinPath(elems...).String()
}

func (c *Client) call(ctx context.Context, method, target string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.signer.AttachSignature(req); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Error().Err(closeErr).Msg("close control plane response body failed")
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("control plane returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
