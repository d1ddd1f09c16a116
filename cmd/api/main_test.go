package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pet-health-tracker/internal/platform/logger"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := NewConfig()
	cfg.ListenAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, run(ctx, cfg, logger.NewNop()))
}

func TestRun_AnalyticsWithoutKeyFails(t *testing.T) {
	cfg := NewConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.AnalyticsURL = "http://localhost:1"

	err := run(context.Background(), cfg, logger.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "analytics sink")
}
