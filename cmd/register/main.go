// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Command register binds the dependents proxy to a gateway as a tool target
// and waits until the gateway reports the target ready.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/dependents-proxy/pkg/config"
	"github.com/go-core-stack/dependents-proxy/pkg/register"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	cfg, err := config.LoadRegistration()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load registration configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("invalid log level")
	}
	log.Logger = log.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := register.NewTarget(cfg.TargetName, cfg.TargetEndpoint)
	log.Info().
		Str("control_url", cfg.ControlURL.String()).
		Str("gateway_id", cfg.GatewayID).
		Str("target", target.Name).
		Str("endpoint", target.Endpoint).
		Msg("registering tool target")

	status, err := register.New(cfg).Register(ctx, target)
	if err != nil {
		ev := log.Error().Err(err)
		if errors.Is(err, register.ErrNotReady) {
			ev = ev.Dur("poll_interval", cfg.PollInterval).Int("poll_attempts", cfg.PollAttempts)
		}
		ev.Msg("registration failed")
		stop()
		os.Exit(1)
	}

	log.Info().
		Str("target_id", status.TargetID).
		Str("status", status.Status).
		Msg("tool target ready")
}
