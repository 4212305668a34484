package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
)

func TestDefaultMatchesAgentDefaults(t *testing.T) {
	got := Default().Agent()
	want := agent.DefaultConfig()
	want.TurnTimeout = 2 * time.Second

	if got != want {
		t.Fatalf("default agent config mismatch:\n got %+v\nwant %+v", got, want)
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENT_DB", "/tmp/x.db")
	t.Setenv("AGENT_LISTEN", ":9999")
	cfg := Default()
	if cfg.Server.DBPath != "/tmp/x.db" || cfg.Server.Listen != ":9999" {
		t.Fatalf("env not applied: %+v", cfg.Server)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	data := "bidding:\n  max_repeats: 3\nsession:\n  seed: 7\nlog:\n  format: json\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bidding.MaxRepeats != 3 || cfg.Session.Seed != 7 || cfg.Log.Format != "json" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Bidding.LateFallbackTarget != 0.625 || cfg.Acceptance.AcceptAbove != 0.9 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default level, got %q", cfg.Log.Level)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	cfg := Default()
	cfg.Acceptance.AcceptAbove = 0.85
	cfg.Session.Capacity = 4
	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("bidding: [unclosed"), 0o600)
	if _, err := Load(bad); err == nil {
		t.Fatal("expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("acceptance:\n  accept_above: 1.5\n"), 0o600)
	if _, err := Load(invalid); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative increment", func(c *Config) { c.Opponent.Increment = -0.1 }},
		{"negative tolerance", func(c *Config) { c.Opponent.Tolerance = -1 }},
		{"zero repeats", func(c *Config) { c.Bidding.MaxRepeats = 0 }},
		{"zero window", func(c *Config) { c.Bidding.ReciprocityWindow = 0 }},
		{"chance above one", func(c *Config) { c.Bidding.LateReciprocityChance = 1.1 }},
		{"zero capacity", func(c *Config) { c.Session.Capacity = 0 }},
		{"negative timeout", func(c *Config) { c.Session.TurnTimeoutMS = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
