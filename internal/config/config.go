// Package config loads process configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults. The port range is scanned at startup until a free listener is
// found, matching the share URLs the desktop client prints.
const (
	DefaultPortMin = 3030
	DefaultPortMax = 3050

	DefaultHeartbeatInterval = 30 * time.Second
)

type Config struct {
	// HTTP listener
	BindAddr string
	PortMin  int
	PortMax  int

	// Relay; an empty URL means the default public relay
	RelayURL          string
	HeartbeatInterval time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Jira (optional; the credential vault can populate these at runtime)
	JiraBaseURL  string
	JiraEmail    string
	JiraAPIToken string

	// Credential vault location override
	DataDir string
}

// Load reads .env (if present) and the environment. Missing values fall
// back to defaults; malformed numbers are errors.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:          getenv("POKER_BIND_ADDR", "0.0.0.0"),
		PortMin:           DefaultPortMin,
		PortMax:           DefaultPortMax,
		RelayURL:          os.Getenv("POKER_RELAY_URL"),
		HeartbeatInterval: DefaultHeartbeatInterval,
		LogLevel:          getenv("POKER_LOG_LEVEL", "info"),
		LogFormat:         getenv("POKER_LOG_FORMAT", "json"),
		JiraBaseURL:       os.Getenv("JIRA_BASE_URL"),
		JiraEmail:         os.Getenv("JIRA_EMAIL"),
		JiraAPIToken:      os.Getenv("JIRA_API_TOKEN"),
		DataDir:           os.Getenv("POKER_DATA_DIR"),
	}

	var err error
	if cfg.PortMin, err = getenvInt("POKER_PORT_MIN", cfg.PortMin); err != nil {
		return Config{}, err
	}
	if cfg.PortMax, err = getenvInt("POKER_PORT_MAX", cfg.PortMax); err != nil {
		return Config{}, err
	}
	if cfg.PortMin > cfg.PortMax {
		return Config{}, fmt.Errorf("port range %d-%d is empty", cfg.PortMin, cfg.PortMax)
	}
	if cfg.HeartbeatInterval, err = getenvDuration("POKER_HEARTBEAT_INTERVAL", cfg.HeartbeatInterval); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s=%q: interval must be positive", key, v)
	}
	return d, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return n, nil
}
