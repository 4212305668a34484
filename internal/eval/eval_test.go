package eval

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
)

func healthyTurn() TurnObservation {
	return TurnObservation{
		Weights:           []float64{0.5, 0.3, 0.2},
		GeneratedUtility:  0.8,
		GeneratedEstimate: 0.4,
		SearchTarget:      0.7,
		Mode:              bidspace.ModeRanked,
		TimesProposed:     2,
	}
}

func metric(t *testing.T, r EvalResult, name string) EvalMetric {
	t.Helper()
	for _, m := range r.Metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %s missing", name)
	return EvalMetric{}
}

func TestEvalPassesOnHealthyTurn(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	result := h.Run(healthyTurn())

	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if len(result.Metrics) != 6 {
		t.Fatalf("expected 6 metrics, got %d", len(result.Metrics))
	}
}

func TestEvalFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TurnObservation)
		metric string
	}{
		{"weight sum drift", func(o *TurnObservation) { o.Weights = []float64{0.6, 0.3, 0.2} }, "weight_sum"},
		{"negative weight", func(o *TurnObservation) { o.Weights = []float64{1.1, 0, -0.1} }, "weight_min"},
		{"estimate above one", func(o *TurnObservation) { o.GeneratedEstimate = 1.2 }, "opponent_estimate"},
		{"own utility negative", func(o *TurnObservation) { o.GeneratedUtility = -0.1; o.SearchTarget = -1 }, "own_utility"},
		{"ranked below target", func(o *TurnObservation) { o.GeneratedUtility = 0.7 }, "above_target"},
		{"ranked over cap", func(o *TurnObservation) { o.TimesProposed = 6 }, "times_proposed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := healthyTurn()
			tt.mutate(&obs)
			result := NewEvalHarness(DefaultEvalConfig()).Run(obs)
			if result.Passed {
				t.Fatal("expected fail")
			}
			if metric(t, result, tt.metric).Pass {
				t.Fatalf("expected %s to fail", tt.metric)
			}
			if !strings.HasPrefix(result.Reason, "eval failed") {
				t.Fatalf("unexpected reason %q", result.Reason)
			}
		})
	}
}

func TestEvalBestModeBelowTargetInformational(t *testing.T) {
	obs := healthyTurn()
	obs.Mode = bidspace.ModeBest
	obs.GeneratedUtility = 0.6
	result := NewEvalHarness(DefaultEvalConfig()).Run(obs)

	if !result.Passed {
		t.Fatalf("best-mode bid below target should not fail: %s", result.Reason)
	}
	if metric(t, result, "above_target").Pass {
		t.Fatal("above_target should still report pass=false")
	}
}

func TestEvalRandomModeOverCapInformational(t *testing.T) {
	obs := healthyTurn()
	obs.Mode = bidspace.ModeRandom
	obs.TimesProposed = 9
	result := NewEvalHarness(DefaultEvalConfig()).Run(obs)

	if !result.Passed {
		t.Fatalf("random fallback may exceed the cap: %s", result.Reason)
	}
}

func TestEvalMultipleFailuresCounted(t *testing.T) {
	obs := healthyTurn()
	obs.Weights = []float64{2, -0.5}
	obs.GeneratedEstimate = 3
	result := NewEvalHarness(DefaultEvalConfig()).Run(obs)

	if !strings.Contains(result.Reason, "3 checks") {
		t.Fatalf("expected 3 failing checks, got %q", result.Reason)
	}
}

func TestEvalNoWeights(t *testing.T) {
	obs := healthyTurn()
	obs.Weights = nil
	if r := NewEvalHarness(DefaultEvalConfig()).Run(obs); !r.Passed {
		t.Fatalf("empty weights treated as trivially normalized: %s", r.Reason)
	}
}
