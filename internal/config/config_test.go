package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Chat.Model != "gpt-3.5-turbo" {
		t.Errorf("model = %q, want gpt-3.5-turbo", cfg.Chat.Model)
	}
	if cfg.Chat.MaxTokens != 1024 {
		t.Errorf("max_tokens = %d, want 1024", cfg.Chat.MaxTokens)
	}
	if cfg.Chat.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", cfg.Chat.Temperature)
	}
	if cfg.GetHeartbeatInterval() != 30*time.Second {
		t.Errorf("heartbeat interval = %v, want 30s", cfg.GetHeartbeatInterval())
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Backend.BaseURL == "" {
		t.Fatal("expected default backend URL")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "http://localhost:9000"
	cfg.Heartbeat.Interval = "5s"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Backend.BaseURL != "http://localhost:9000" {
		t.Errorf("base_url = %q", loaded.Backend.BaseURL)
	}
	if loaded.GetHeartbeatInterval() != 5*time.Second {
		t.Errorf("interval = %v, want 5s", loaded.GetHeartbeatInterval())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("THOTH_BACKEND_URL", "http://override:8080")
	t.Setenv("THOTH_DEBUG", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Backend.BaseURL != "http://override:8080" {
		t.Errorf("env override ignored: %q", cfg.Backend.BaseURL)
	}
	if !cfg.Logging.DebugMode {
		t.Error("THOTH_DEBUG ignored")
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Timeout = "bogus"
	cfg.Heartbeat.Interval = "-1s"
	if cfg.GetBackendTimeout() != 60*time.Second {
		t.Error("backend timeout fallback broken")
	}
	if cfg.GetHeartbeatInterval() != 30*time.Second {
		t.Error("heartbeat interval fallback broken")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"missing model", func(c *Config) { c.Chat.Model = "" }},
		{"zero max tokens", func(c *Config) { c.Chat.MaxTokens = 0 }},
		{"temperature out of range", func(c *Config) { c.Chat.Temperature = 3.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("\t:::not yaml"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
