package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Home.Location != "Austin, TX" {
		t.Errorf("location = %q, want Austin, TX", cfg.Home.Location)
	}
	if cfg.Calls.FollowUpDelay != 15*time.Second {
		t.Errorf("follow-up delay = %v, want 15s", cfg.Calls.FollowUpDelay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AURA_PORT", "9090")
	t.Setenv("AURA_FOLLOW_UP_DELAY", "5s")
	t.Setenv("VAPI_API_KEY", "secret")

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.Calls.FollowUpDelay != 5*time.Second {
		t.Errorf("follow-up delay = %v, want 5s", cfg.Calls.FollowUpDelay)
	}
	if cfg.Voice.APIKey != "secret" {
		t.Errorf("voice key = %q, want secret", cfg.Voice.APIKey)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aura.yaml")
	content := "port: 7070\nhome:\n  location: \"Houston, TX\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("AURA_CONFIG_FILE", path)

	cfg := Load()
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want 7070 from file", cfg.Port)
	}
	if cfg.Home.Location != "Houston, TX" {
		t.Errorf("location = %q, want Houston, TX from file", cfg.Home.Location)
	}
	// Fields the file omits keep their env/default values.
	if cfg.Home.HomeID != "aura-demo-home-01" {
		t.Errorf("home_id = %q, want default", cfg.Home.HomeID)
	}
}
