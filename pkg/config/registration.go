// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	envControlURL          = "GATEWAY_CONTROL_URL"
	envGatewayID           = "GATEWAY_ID"
	envTargetName          = "GATEWAY_TARGET_NAME"
	envTargetEndpoint      = "GATEWAY_TARGET_ENDPOINT"
	envGatewayAPIKey       = "GATEWAY_API_KEY"
	envGatewayAPISecret    = "GATEWAY_API_SECRET"
	envPollInterval        = "GATEWAY_POLL_INTERVAL"
	envPollAttempts        = "GATEWAY_POLL_ATTEMPTS"
	defaultTargetName      = "dependents-api-proxy"
	defaultPollInterval    = 5 * time.Second
	defaultPollAttempts    = 30
	defaultRegisterTimeout = 15 * time.Second
)

// Registration captures settings for binding the proxy's tools to a gateway
// control plane.
type Registration struct {
	ControlURL     *url.URL
	GatewayID      string
	TargetName     string
	TargetEndpoint string
	APIKey         string
	APISecret      string
	PollInterval   time.Duration
	PollAttempts   int
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadRegistration reads the registration settings from the environment.
func LoadRegistration() (Registration, error) {
	controlRaw := strings.TrimSpace(getString(envControlURL, ""))
	if controlRaw == "" {
		return Registration{}, fmt.Errorf("%s %w", envControlURL, errMissing)
	}
	control, err := parseAbsoluteURL(envControlURL, controlRaw)
	if err != nil {
		return Registration{}, err
	}

	reg := Registration{
		ControlURL:     control,
		GatewayID:      getString(envGatewayID, ""),
		TargetName:     getString(envTargetName, defaultTargetName),
		TargetEndpoint: getString(envTargetEndpoint, ""),
		APIKey:         getString(envGatewayAPIKey, ""),
		APISecret:      getString(envGatewayAPISecret, ""),
		PollInterval:   getDuration(envPollInterval, defaultPollInterval),
		PollAttempts:   getInt(envPollAttempts, defaultPollAttempts),
		RequestTimeout: defaultRegisterTimeout,
		LogLevel:       strings.ToLower(getString(envLogLevel, defaultLogLevel)),
	}

	for name, val := range map[string]string{
		envGatewayID:        reg.GatewayID,
		envTargetEndpoint:   reg.TargetEndpoint,
		envGatewayAPIKey:    reg.APIKey,
		envGatewayAPISecret: reg.APISecret,
	} {
		if val == "" {
			return Registration{}, fmt.Errorf("%s %w", name, errMissing)
		}
	}
	if reg.PollAttempts <= 0 {
		return Registration{}, fmt.Errorf("%s must be positive", envPollAttempts)
	}

	return reg, nil
}
