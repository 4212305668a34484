package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/acceptance"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidding"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/eval"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	SessionID       string                  `json:"session_id,omitempty"`
	Profile         profile.File            `json:"profile"`
	Config          FixtureConfig           `json:"config"`
	FirstMove       bool                    `json:"first_move"`
	Turns           []FixtureTurn           `json:"turns"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureTurn is one recorded step: when it happened and what was received.
type FixtureTurn struct {
	Time     float64           `json:"time"`
	Received map[string]string `json:"received,omitempty"`
}

// FixtureExpectedResult captures the expected action per turn. Counter is
// checked only when present.
type FixtureExpectedResult struct {
	Turn    int               `json:"turn"`
	Action  string            `json:"action"`
	Counter map[string]string `json:"counter,omitempty"`
}

// FixtureConfig bundles all sub-configs for a replay run.
type FixtureConfig struct {
	Seed       uint64                  `json:"seed"`
	Opponent   FixtureOpponentConfig   `json:"opponent"`
	Bidding    FixtureBiddingConfig    `json:"bidding"`
	Acceptance FixtureAcceptanceConfig `json:"acceptance"`
}

// FixtureOpponentConfig mirrors opponent.Config with JSON tags.
type FixtureOpponentConfig struct {
	Increment float64 `json:"increment"`
	Tolerance float64 `json:"tolerance"`
}

// FixtureBiddingConfig mirrors bidding.Config with JSON tags.
type FixtureBiddingConfig struct {
	MaxRepeats             int     `json:"max_repeats"`
	ReciprocityWindow      int     `json:"reciprocity_window"`
	ReciprocityMinHistory  int     `json:"reciprocity_min_history"`
	LateThreshold          float64 `json:"late_threshold"`
	EarlyReciprocityChance float64 `json:"early_reciprocity_chance"`
	LateReciprocityChance  float64 `json:"late_reciprocity_chance"`
	LateFallbackTarget     float64 `json:"late_fallback_target"`
}

// FixtureAcceptanceConfig mirrors acceptance.Config with JSON tags.
type FixtureAcceptanceConfig struct {
	AcceptAbove float64 `json:"accept_above"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture stores f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ToInteraction converts a FixtureTurn to a domain Interaction.
func (ft *FixtureTurn) ToInteraction(dom *domain.Domain) (Interaction, error) {
	in := Interaction{Time: ft.Time}
	if len(ft.Received) == 0 {
		return in, nil
	}
	b, err := dom.NewBid(ft.Received)
	if err != nil {
		return Interaction{}, fmt.Errorf("received bid: %w", err)
	}
	in.Received = b
	return in, nil
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig(firstMove bool) ReplayConfig {
	return ReplayConfig{
		Agent: agent.Config{
			Opponent: opponent.Config{
				Increment: fc.Opponent.Increment,
				Tolerance: fc.Opponent.Tolerance,
			},
			Bidding: bidding.Config{
				MaxRepeats:             fc.Bidding.MaxRepeats,
				ReciprocityWindow:      fc.Bidding.ReciprocityWindow,
				ReciprocityMinHistory:  fc.Bidding.ReciprocityMinHistory,
				LateThreshold:          fc.Bidding.LateThreshold,
				EarlyReciprocityChance: fc.Bidding.EarlyReciprocityChance,
				LateReciprocityChance:  fc.Bidding.LateReciprocityChance,
				LateFallbackTarget:     fc.Bidding.LateFallbackTarget,
			},
			Acceptance: acceptance.Config{
				AcceptAbove: fc.Acceptance.AcceptAbove,
			},
			Seed: fc.Seed,
		},
		EvalConfig: eval.EvalConfig{
			WeightTolerance: fc.Opponent.Tolerance,
			MaxRepeats:      fc.Bidding.MaxRepeats,
		},
		FirstMove: firstMove,
	}
}

// Load resolves everything a replay run needs from the fixture.
func (f *Fixture) Load() (*profile.LinearAdditive, []Interaction, ReplayConfig, error) {
	space, err := f.Profile.Build()
	if err != nil {
		return nil, nil, ReplayConfig{}, fmt.Errorf("fixture profile: %w", err)
	}
	interactions := make([]Interaction, len(f.Turns))
	for i := range f.Turns {
		in, err := f.Turns[i].ToInteraction(space.Domain())
		if err != nil {
			return nil, nil, ReplayConfig{}, fmt.Errorf("fixture turn %d: %w", i+1, err)
		}
		interactions[i] = in
	}
	return space, interactions, f.Config.ToReplayConfig(f.FirstMove), nil
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromConfig is the inverse of ToReplayConfig.
func FixtureFromConfig(cfg agent.Config) FixtureConfig {
	return FixtureConfig{
		Seed: cfg.Seed,
		Opponent: FixtureOpponentConfig{
			Increment: cfg.Opponent.Increment,
			Tolerance: cfg.Opponent.Tolerance,
		},
		Bidding: FixtureBiddingConfig{
			MaxRepeats:             cfg.Bidding.MaxRepeats,
			ReciprocityWindow:      cfg.Bidding.ReciprocityWindow,
			ReciprocityMinHistory:  cfg.Bidding.ReciprocityMinHistory,
			LateThreshold:          cfg.Bidding.LateThreshold,
			EarlyReciprocityChance: cfg.Bidding.EarlyReciprocityChance,
			LateReciprocityChance:  cfg.Bidding.LateReciprocityChance,
			LateFallbackTarget:     cfg.Bidding.LateFallbackTarget,
		},
		Acceptance: FixtureAcceptanceConfig{
			AcceptAbove: cfg.Acceptance.AcceptAbove,
		},
	}
}

// FixtureFromStore rebuilds a fixture from a recorded session. Expected
// results pin both the action and, for counters, the bid sent.
func FixtureFromStore(sess store.SessionRecord, turns []store.TurnRecord) (*Fixture, error) {
	f := &Fixture{
		Description: fmt.Sprintf("session %s (%s) exported %s", sess.SessionID, sess.Domain,
			time.Now().UTC().Format(time.RFC3339)),
		SessionID: sess.SessionID,
	}
	if err := json.Unmarshal([]byte(sess.ProfileJSON), &f.Profile); err != nil {
		return nil, fmt.Errorf("session profile: %w", err)
	}
	cfg := agent.DefaultConfig()
	if sess.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(sess.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("session config: %w", err)
		}
	}
	f.Config = FixtureFromConfig(cfg)
	f.FirstMove = len(turns) > 0 && turns[0].ReceivedJSON == ""

	for _, t := range turns {
		ft := FixtureTurn{Time: t.Time}
		if t.ReceivedJSON != "" {
			if err := json.Unmarshal([]byte(t.ReceivedJSON), &ft.Received); err != nil {
				return nil, fmt.Errorf("turn %d received: %w", t.Turn, err)
			}
		}
		exp := FixtureExpectedResult{Turn: t.Turn, Action: "counter"}
		if t.Accepted {
			exp.Action = "accept"
		} else if t.CounterJSON != "" {
			if err := json.Unmarshal([]byte(t.CounterJSON), &exp.Counter); err != nil {
				return nil, fmt.Errorf("turn %d counter: %w", t.Turn, err)
			}
		}
		f.Turns = append(f.Turns, ft)
		f.ExpectedResults = append(f.ExpectedResults, exp)
	}
	return f, nil
}

// #endregion fixture-export
