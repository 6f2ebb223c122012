// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envListenAddr             = "PROXY_LISTEN_ADDR"
	envLogLevel               = "PROXY_LOG_LEVEL"
	envToolNameField          = "PROXY_TOOL_NAME_FIELD"
	envToolDelimiter          = "PROXY_TOOL_DELIMITER"
	envServerReadTimeout      = "PROXY_SERVER_READ_TIMEOUT"
	envServerWriteTimeout     = "PROXY_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout      = "PROXY_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown       = "PROXY_GRACEFUL_SHUTDOWN"
	envUpstreamURL            = "DEPENDENTS_API_URL"
	envLegacyUpstreamURL      = "NLB_ENDPOINT"
	envUpstreamHost           = "DEPENDENTS_API_HOST"
	envRequestTimeout         = "DEPENDENTS_REQUEST_TIMEOUT"
	envInsecureSkipVerify     = "DEPENDENTS_INSECURE_SKIP_VERIFY"
	defaultListenAddr         = "127.0.0.1:8080"
	defaultLogLevel           = "info"
	defaultToolNameField      = "bedrockAgentCoreToolName"
	defaultToolDelimiter      = "___"
	defaultUpstreamURL        = "http://dependents-api.internal"
	defaultUpstreamHost       = "dependents-api.internal"
	defaultRequestTimeout     = 10 * time.Second
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
)

// Config captures runtime settings for the dependents proxy.
type Config struct {
	ListenAddr string
	LogLevel   string

	// Upstream is the literal network endpoint used to reach the dependents
	// API, typically an internal load balancer.
	Upstream *url.URL
	// UpstreamHost is sent as the Host header on every upstream call and
	// names the logical service the upstream routes on.
	UpstreamHost       string
	RequestTimeout     time.Duration
	InsecureSkipVerify bool

	// ToolNameField is the key under the client context "custom" object that
	// carries the tool name on Lambda-style invocations.
	ToolNameField string
	ToolDelimiter string

	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	upstreamRaw := getString(envUpstreamURL, getString(envLegacyUpstreamURL, defaultUpstreamURL))
	upstream, err := parseAbsoluteURL(envUpstreamURL, upstreamRaw)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:              getString(envListenAddr, defaultListenAddr),
		LogLevel:                strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		Upstream:                upstream,
		UpstreamHost:            getString(envUpstreamHost, defaultUpstreamHost),
		RequestTimeout:          getDuration(envRequestTimeout, defaultRequestTimeout),
		InsecureSkipVerify:      getBool(envInsecureSkipVerify, false),
		ToolNameField:           getString(envToolNameField, defaultToolNameField),
		ToolDelimiter:           getString(envToolDelimiter, defaultToolDelimiter),
		ServerReadTimeout:       getDuration(envServerReadTimeout, defaultServerReadTimeout),
		ServerWriteTimeout:      getDuration(envServerWriteTimeout, defaultServerWriteTimeout),
		ServerIdleTimeout:       getDuration(envServerIdleTimeout, defaultServerIdleTimeout),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulShutdown),
	}

	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", envRequestTimeout)
	}

	return cfg, nil
}

func parseAbsoluteURL(name, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%s must be absolute (scheme://host)", name)
	}
	return u, nil
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

var errMissing = errors.New("is required")
