// Package config loads the agent's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/acceptance"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidding"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
	"gopkg.in/yaml.v3"
)

// #region config
type Config struct {
	Opponent struct {
		Increment float64 `yaml:"increment"`
		Tolerance float64 `yaml:"tolerance"`
	} `yaml:"opponent"`
	Bidding struct {
		MaxRepeats             int     `yaml:"max_repeats"`
		ReciprocityWindow      int     `yaml:"reciprocity_window"`
		ReciprocityMinHistory  int     `yaml:"reciprocity_min_history"`
		LateThreshold          float64 `yaml:"late_threshold"`
		EarlyReciprocityChance float64 `yaml:"early_reciprocity_chance"`
		LateReciprocityChance  float64 `yaml:"late_reciprocity_chance"`
		LateFallbackTarget     float64 `yaml:"late_fallback_target"`
	} `yaml:"bidding"`
	Acceptance struct {
		AcceptAbove float64 `yaml:"accept_above"`
	} `yaml:"acceptance"`
	Session struct {
		Seed          uint64 `yaml:"seed"`
		TurnTimeoutMS int    `yaml:"turn_timeout_ms"`
		Capacity      int    `yaml:"capacity"`
	} `yaml:"session"`
	Server struct {
		Listen string `yaml:"listen"`
		DBPath string `yaml:"db_path"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the standard configuration. DB path and listen address
// honour AGENT_DB and AGENT_LISTEN.
func Default() Config {
	o := opponent.DefaultConfig()
	b := bidding.DefaultConfig()
	a := acceptance.DefaultConfig()

	cfg := Config{}
	cfg.Opponent.Increment = o.Increment
	cfg.Opponent.Tolerance = o.Tolerance
	cfg.Bidding.MaxRepeats = b.MaxRepeats
	cfg.Bidding.ReciprocityWindow = b.ReciprocityWindow
	cfg.Bidding.ReciprocityMinHistory = b.ReciprocityMinHistory
	cfg.Bidding.LateThreshold = b.LateThreshold
	cfg.Bidding.EarlyReciprocityChance = b.EarlyReciprocityChance
	cfg.Bidding.LateReciprocityChance = b.LateReciprocityChance
	cfg.Bidding.LateFallbackTarget = b.LateFallbackTarget
	cfg.Acceptance.AcceptAbove = a.AcceptAbove
	cfg.Session.Seed = 0
	cfg.Session.TurnTimeoutMS = 2000
	cfg.Session.Capacity = 256
	cfg.Server.Listen = envOr("AGENT_LISTEN", "localhost:50061")
	cfg.Server.DBPath = envOr("AGENT_DB", "negotiations.db")
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// #endregion config

// #region load
// Load reads path over the defaults; keys absent from the file keep them.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Write stores cfg as YAML.
func Write(path string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

// #endregion load

// #region validate
var ErrInvalid = errors.New("invalid config")

// Validate rejects values the decision components cannot work with.
func (c Config) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"bidding.early_reciprocity_chance", c.Bidding.EarlyReciprocityChance},
		{"bidding.late_reciprocity_chance", c.Bidding.LateReciprocityChance},
		{"bidding.late_threshold", c.Bidding.LateThreshold},
		{"bidding.late_fallback_target", c.Bidding.LateFallbackTarget},
		{"acceptance.accept_above", c.Acceptance.AcceptAbove},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%w: %s=%v outside [0,1]", ErrInvalid, p.name, p.v)
		}
	}
	switch {
	case c.Opponent.Increment < 0:
		return fmt.Errorf("%w: opponent.increment=%v negative", ErrInvalid, c.Opponent.Increment)
	case c.Opponent.Tolerance < 0:
		return fmt.Errorf("%w: opponent.tolerance=%v negative", ErrInvalid, c.Opponent.Tolerance)
	case c.Bidding.MaxRepeats < 1:
		return fmt.Errorf("%w: bidding.max_repeats=%d below 1", ErrInvalid, c.Bidding.MaxRepeats)
	case c.Bidding.ReciprocityWindow < 1:
		return fmt.Errorf("%w: bidding.reciprocity_window=%d below 1", ErrInvalid, c.Bidding.ReciprocityWindow)
	case c.Session.Capacity < 1:
		return fmt.Errorf("%w: session.capacity=%d below 1", ErrInvalid, c.Session.Capacity)
	case c.Session.TurnTimeoutMS < 0:
		return fmt.Errorf("%w: session.turn_timeout_ms=%d negative", ErrInvalid, c.Session.TurnTimeoutMS)
	}
	return nil
}

// #endregion validate

// #region agent
// Agent converts the file layout into a session configuration.
func (c Config) Agent() agent.Config {
	return agent.Config{
		Opponent: opponent.Config{
			Increment: c.Opponent.Increment,
			Tolerance: c.Opponent.Tolerance,
		},
		Bidding: bidding.Config{
			MaxRepeats:             c.Bidding.MaxRepeats,
			ReciprocityWindow:      c.Bidding.ReciprocityWindow,
			ReciprocityMinHistory:  c.Bidding.ReciprocityMinHistory,
			LateThreshold:          c.Bidding.LateThreshold,
			EarlyReciprocityChance: c.Bidding.EarlyReciprocityChance,
			LateReciprocityChance:  c.Bidding.LateReciprocityChance,
			LateFallbackTarget:     c.Bidding.LateFallbackTarget,
		},
		Acceptance: acceptance.Config{
			AcceptAbove: c.Acceptance.AcceptAbove,
		},
		Seed:        c.Session.Seed,
		TurnTimeout: time.Duration(c.Session.TurnTimeoutMS) * time.Millisecond,
	}
}

// #endregion agent

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
