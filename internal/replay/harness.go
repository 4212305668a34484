// Package replay re-runs a recorded negotiation through a fresh agent.
package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/clock"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/eval"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// #region types
// Interaction represents a single recorded turn for replay.
type Interaction struct {
	Time     float64
	Received domain.Bid // zero when nothing was received
}

// ReplayConfig bundles the agent and eval configs for a replay run.
type ReplayConfig struct {
	Agent      agent.Config
	EvalConfig eval.EvalConfig
	FirstMove  bool // the first interaction is the agent's opening move
}

// ReplayResult captures the outcome of replaying one interaction.
type ReplayResult struct {
	Turn     int
	Action   string // "accept" | "counter"
	Reason   string
	Decision agent.Decision
	Eval     eval.EvalResult
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns       int
	Accepts          int
	Counters         int
	EvalFailures     int
	Agreement        bool
	AgreementUtility float64
	DistinctBids     int
	FinalWeights     []float64
}

// Mismatch is a turn whose replayed result differs from the expected one.
type Mismatch struct {
	Turn     int
	Expected FixtureExpectedResult
	Actual   string
	Counter  map[string]string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("turn %d: expected %s %v, got %s %v",
		m.Turn, m.Expected.Action, m.Expected.Counter, m.Actual, m.Counter)
}

// #endregion types

// #region replay
// Replay feeds interactions through a new session on a manual clock set to
// each recorded time, checking eval invariants after every turn. It stops
// after the agent accepts.
func Replay(ctx context.Context, space profile.UtilitySpace, interactions []Interaction, config ReplayConfig) ([]ReplayResult, error) {
	clk := clock.NewManual()
	sess, err := agent.NewSession(space, nil, clk, config.Agent, agent.WithID("replay"))
	if err != nil {
		return nil, fmt.Errorf("replay session: %w", err)
	}
	evalInst := eval.NewEvalHarness(config.EvalConfig)

	results := make([]ReplayResult, 0, len(interactions))
	for i, inter := range interactions {
		clk.Set(inter.Time)

		var d agent.Decision
		if i == 0 && config.FirstMove {
			d, err = sess.Open(ctx)
		} else {
			d, err = sess.Receive(ctx, inter.Received)
		}
		if err != nil {
			return results, fmt.Errorf("replay turn %d: %w", i+1, err)
		}

		evalResult := evalInst.Run(eval.TurnObservation{
			Weights:           d.OpponentWeights,
			GeneratedUtility:  d.Proposal.Utility,
			GeneratedEstimate: d.Proposal.OpponentUtility,
			SearchTarget:      d.Proposal.SearchTarget,
			Mode:              d.Proposal.Mode,
			TimesProposed:     d.Proposal.TimesProposed,
		})
		results = append(results, ReplayResult{
			Turn:     d.Turn,
			Action:   d.Action(),
			Reason:   d.Acceptance.Reason,
			Decision: d,
			Eval:     evalResult,
		})
		if d.Accept {
			break
		}
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalTurns: len(results)}
	seen := make(map[string]bool)
	for _, r := range results {
		switch r.Action {
		case "accept":
			s.Accepts++
			s.Agreement = true
			s.AgreementUtility = r.Decision.Acceptance.ReceivedUtility
		case "counter":
			s.Counters++
			seen[r.Decision.Counter.Key()] = true
		}
		if !r.Eval.Passed {
			s.EvalFailures++
		}
		s.FinalWeights = r.Decision.OpponentWeights
	}
	s.DistinctBids = len(seen)
	return s
}

// Compare lists turns whose action, or counter-offer where one is expected,
// differs. Missing or surplus turns are mismatches too.
func Compare(results []ReplayResult, expected []FixtureExpectedResult) []Mismatch {
	var out []Mismatch
	for i, exp := range expected {
		if i >= len(results) {
			out = append(out, Mismatch{Turn: exp.Turn, Expected: exp, Actual: "missing"})
			continue
		}
		r := results[i]
		counter := r.Decision.Counter.Values()
		if r.Action != exp.Action || (exp.Counter != nil && !sameBid(exp.Counter, counter)) {
			out = append(out, Mismatch{Turn: r.Turn, Expected: exp, Actual: r.Action, Counter: counter})
		}
	}
	for _, r := range results[min(len(expected), len(results)):] {
		out = append(out, Mismatch{Turn: r.Turn, Actual: r.Action, Counter: r.Decision.Counter.Values()})
	}
	return out
}

func sameBid(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// #endregion replay
