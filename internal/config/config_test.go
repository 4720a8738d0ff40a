package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.BindAddr)
	assert.Equal(t, DefaultPortMin, cfg.PortMin)
	assert.Equal(t, DefaultPortMax, cfg.PortMax)
	assert.Equal(t, DefaultHeartbeatInterval, cfg.HeartbeatInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POKER_PORT_MIN", "4000")
	t.Setenv("POKER_PORT_MAX", "4010")
	t.Setenv("POKER_LOG_LEVEL", "debug")
	t.Setenv("POKER_RELAY_URL", "wss://relay.example")
	t.Setenv("POKER_HEARTBEAT_INTERVAL", "10s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.PortMin)
	assert.Equal(t, 4010, cfg.PortMax)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "wss://relay.example", cfg.RelayURL)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
}

func TestLoad_BadHeartbeat(t *testing.T) {
	t.Setenv("POKER_HEARTBEAT_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("POKER_HEARTBEAT_INTERVAL", "-5s")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("POKER_PORT_MIN", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EmptyRange(t *testing.T) {
	t.Setenv("POKER_PORT_MIN", "5000")
	t.Setenv("POKER_PORT_MAX", "4000")
	_, err := Load()
	assert.Error(t, err)
}
