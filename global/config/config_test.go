package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("no-such-file")
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.AuthTimeout)
	assert.Equal(t, 5, cfg.Backend.BreakerFailures)
	assert.Equal(t, 120*time.Second, cfg.Relay.SessionTTL)
	assert.Equal(t, 0, cfg.Relay.MaxPerUser)
	assert.Equal(t, 256, cfg.Relay.SendQueue)
	assert.Equal(t, 100, cfg.Relay.RateLimitEvents)
	assert.Equal(t, 20, cfg.Relay.RateLimitBurst)
	assert.Equal(t, 60*time.Second, cfg.Relay.RateLimitWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Presence.TypingTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RELAYGATE_SERVER_ADDR", ":9999")
	t.Setenv("RELAYGATE_BACKEND_BASEURL", "http://backend:8000")
	t.Setenv("RELAYGATE_RELAY_MAXPERUSER", "3")

	cfg, err := Load("no-such-file")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "http://backend:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 3, cfg.Relay.MaxPerUser)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  addr: ":7070"
backend:
  baseUrl: "http://api.internal:8080"
  authTimeout: 2s
relay:
  sessionTtl: 45s
  maxPerUser: 2
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relaygate.yaml"), yaml, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("relaygate")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "http://api.internal:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Backend.AuthTimeout)
	assert.Equal(t, 45*time.Second, cfg.Relay.SessionTTL)
	assert.Equal(t, 2, cfg.Relay.MaxPerUser)
	assert.Equal(t, "debug", cfg.Log.Level)

	// unset keys keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Relay.SweepEvery)
}

func TestLoadBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relaygate.yaml"), []byte("{{not yaml"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load("relaygate")
	assert.Error(t, err)
}
