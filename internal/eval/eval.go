package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
)

// #region eval-harness
// EvalHarness checks the invariants every agent turn must keep.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run validates one turn. above_target and, outside ranked mode,
// times_proposed are informational and never fail the turn.
func (h *EvalHarness) Run(obs TurnObservation) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value float64, pass, blocking bool, format string, args ...any) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass && blocking {
			failReasons = append(failReasons, fmt.Sprintf(format, args...))
		}
	}

	// 1. Opponent weights form a distribution
	sum, lowest := weightStats(obs.Weights)
	check("weight_sum", sum, math.Abs(sum-1) <= h.config.WeightTolerance, true,
		"weight sum %.6f outside 1±%.4f", sum, h.config.WeightTolerance)
	check("weight_min", lowest, lowest >= 0, true,
		"negative weight %.6f", lowest)

	// 2. Utilities stay in the unit interval
	check("opponent_estimate", obs.GeneratedEstimate, inUnit(obs.GeneratedEstimate), true,
		"opponent estimate %.6f outside [0,1]", obs.GeneratedEstimate)
	check("own_utility", obs.GeneratedUtility, inUnit(obs.GeneratedUtility), true,
		"own utility %.6f outside [0,1]", obs.GeneratedUtility)

	// 3. The bid clears its threshold unless the space had nothing above it
	check("above_target", obs.GeneratedUtility-obs.SearchTarget,
		obs.GeneratedUtility > obs.SearchTarget, obs.Mode != bidspace.ModeBest,
		"own utility %.4f not above target %.4f (%s)", obs.GeneratedUtility, obs.SearchTarget, obs.Mode)

	// 4. Ranked bids respect the repetition cap
	check("times_proposed", float64(obs.TimesProposed), obs.TimesProposed <= h.config.MaxRepeats,
		obs.Mode == bidspace.ModeRanked,
		"ranked bid proposed %d times, cap %d", obs.TimesProposed, h.config.MaxRepeats)

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func weightStats(w []float64) (sum, lowest float64) {
	if len(w) == 0 {
		return 1, 0
	}
	lowest = w[0]
	for _, x := range w {
		sum += x
		lowest = math.Min(lowest, x)
	}
	return sum, lowest
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// #endregion helpers
