package eval

import "github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"

// #region eval-config
// EvalConfig holds thresholds for per-turn validation.
type EvalConfig struct {
	WeightTolerance float64 // allowed |sum(weights) - 1|
	MaxRepeats      int     // ledger cap for ranked proposals
}

// DefaultEvalConfig returns thresholds matching the default agent.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		WeightTolerance: 0.001,
		MaxRepeats:      5,
	}
}

// #endregion eval-config

// #region turn-observation
// TurnObservation is what one agent turn exposes for checking.
type TurnObservation struct {
	Weights           []float64 // opponent issue weights after the update
	GeneratedUtility  float64
	GeneratedEstimate float64 // opponent estimate of the generated bid
	SearchTarget      float64
	Mode              bidspace.Mode
	TimesProposed     int
}

// #endregion turn-observation

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of per-turn validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
