// Package bidding chooses the counter-offer the agent proposes each turn.
package bidding

import (
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
)

// #region config
// Config holds the concession and reciprocity parameters.
type Config struct {
	MaxRepeats             int     // a bid proposed this often is skipped by ranking (default 5)
	ReciprocityWindow      int     // recent opponent offers averaged (default 3)
	ReciprocityMinHistory  int     // offers observed before reciprocity engages (default 8)
	LateThreshold          float64 // normalized time from which late behaviour applies (default 0.7)
	EarlyReciprocityChance float64 // chance of reciprocity before LateThreshold (default 0.5)
	LateReciprocityChance  float64 // chance of reciprocity from LateThreshold (default 2/3)
	LateFallbackTarget     float64 // target used when late reciprocity is not drawn (default 0.625)
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		MaxRepeats:             5,
		ReciprocityWindow:      3,
		ReciprocityMinHistory:  8,
		LateThreshold:          0.7,
		EarlyReciprocityChance: 0.5,
		LateReciprocityChance:  2.0 / 3.0,
		LateFallbackTarget:     0.625,
	}
}

// #endregion config

// #region proposal
// Override names a behaviour that replaced the scheduled bid.
type Override string

const (
	OverrideNone         Override = ""
	OverrideReciprocity  Override = "reciprocity"
	OverrideLateFallback Override = "late_fallback"
)

// Proposal is the bid chosen for one turn and how it was reached.
type Proposal struct {
	Bid               domain.Bid
	Time              float64
	Target            float64 // scheduled target for Time
	SearchTarget      float64 // threshold Bid was searched above
	Utility           float64 // own utility of Bid
	OpponentUtility   float64 // estimated opponent utility of Bid
	Mode              bidspace.Mode
	Override          Override
	ReciprocityTarget float64 // set when reciprocity was evaluated
	TimesProposed     int     // ledger count after recording Bid
}

// #endregion proposal
