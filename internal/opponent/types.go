// Package opponent estimates the counterpart's preferences from the bids it
// proposes: issue weights from how often an issue is held unchanged, value
// scores from how often each value is offered.
package opponent

import "github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"

// #region config
// Config holds the learning parameters of the frequency model.
type Config struct {
	Increment float64 // weight added to an issue held unchanged (default 0.1)
	Tolerance float64 // renormalize only when the weight sum exceeds 1 by more (default 0.001)
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		Increment: 0.1,
		Tolerance: 0.001,
	}
}

// #endregion config

// #region snapshot
// IssueEstimate is the estimate held for one issue.
type IssueEstimate struct {
	Name        string             `json:"name"`
	Weight      float64            `json:"weight"`
	ValueScores map[string]float64 `json:"value_scores"`
	Occurrences map[string]int     `json:"occurrences"`
}

// Snapshot is a read-only copy of the model state.
type Snapshot struct {
	Observed int             `json:"observed"`
	Issues   []IssueEstimate `json:"issues"`
}

// #endregion snapshot

// Estimator ranks candidate bids by estimated opponent utility.
type Estimator interface {
	Utility(b domain.Bid) float64
}
