//go:build integration
// +build integration

package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"logomotion/config"
	"logomotion/credential"
	"logomotion/gemini"
)

// TestIntegration_LogoToVideo runs the full pipeline against the live API.
func TestIntegration_LogoToVideo(t *testing.T) {
	if os.Getenv(credential.APIKeyEnv) == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	cfg := config.Default()
	cfg.OutputDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg, zaptest.NewLogger(t), credential.NewEnvHost(nil))
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.gate.Selected())
	require.NoError(t, a.ctrl.GenerateLogo(ctx, "A minimalist geometric fox head, flat orange and white"))

	var statuses []string
	err = a.ctrl.Animate(ctx, "The fox winks and the background glows softly", gemini.AspectLandscape, func(s string) {
		statuses = append(statuses, s)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, statuses)
	assert.Equal(t, gemini.FetchingStatus, statuses[len(statuses)-1])

	out := t.TempDir()
	path, err := a.ctrl.SaveVideo(out)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
