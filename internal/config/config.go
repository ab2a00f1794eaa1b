// Package config holds thoth's configuration: YAML file under the state
// directory with THOTH_* environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all thoth configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Backend is the remote THOTH API.
	Backend BackendConfig `yaml:"backend"`

	// Chat configures the fixed model parameters sent with every query.
	Chat ChatConfig `yaml:"chat"`

	// Heartbeat configures the liveness loop.
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig configures the HTTP client.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// ChatConfig configures chat queries.
type ChatConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// HeartbeatConfig configures the liveness loop.
type HeartbeatConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode bool `yaml:"debug_mode"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Name:    "thoth",
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL: "https://web-production-d7d37.up.railway.app",
			Timeout: "60s",
		},

		Chat: ChatConfig{
			Model:       "gpt-3.5-turbo",
			MaxTokens:   1024,
			Temperature: 0.7,
		},

		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Interval: "30s",
		},

		Logging: LoggingConfig{
			DebugMode: false,
		},
	}
}

// DefaultStateDir returns the per-user state directory (~/.thoth).
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".thoth"
	}
	return filepath.Join(home, ".thoth")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultStateDir(), "config.yaml")
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("THOTH_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("THOTH_BACKEND_TIMEOUT"); v != "" {
		c.Backend.Timeout = v
	}
	if v := os.Getenv("THOTH_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("THOTH_HEARTBEAT_INTERVAL"); v != "" {
		c.Heartbeat.Interval = v
	}
	if v := os.Getenv("THOTH_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// GetBackendTimeout parses the backend timeout with a 60s fallback.
func (c *Config) GetBackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetHeartbeatInterval parses the heartbeat interval with a 30s fallback.
func (c *Config) GetHeartbeatInterval() time.Duration {
	d, err := time.ParseDuration(c.Heartbeat.Interval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("chat.model is required")
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be positive")
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be between 0 and 2")
	}
	return nil
}
