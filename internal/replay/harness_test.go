package replay

import (
	"context"
	"testing"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/eval"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// helper: the standard agent with a fixed seed.
func defaultReplayConfig() ReplayConfig {
	cfg := agent.DefaultConfig()
	cfg.Seed = 1
	return ReplayConfig{Agent: cfg, EvalConfig: eval.DefaultEvalConfig()}
}

// helper: two-issue fruit space. apple/pear × box/bag, weights 0.7/0.3.
func fruitSpace(t *testing.T) *profile.LinearAdditive {
	t.Helper()
	space, err := profile.File{
		Domain: "fruit",
		Issues: []profile.IssueFile{
			{Name: "kind", Weight: 0.7, Values: []profile.ValueFile{{Value: "apple", Score: 1}, {Value: "pear", Score: 0}}},
			{Name: "pack", Weight: 0.3, Values: []profile.ValueFile{{Value: "box", Score: 1}, {Value: "bag", Score: 0}}},
		},
	}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return space
}

// helper: bid by values.
func fruit(t *testing.T, space *profile.LinearAdditive, kind, pack string) domain.Bid {
	t.Helper()
	b, err := space.Domain().NewBid(map[string]string{"kind": kind, "pack": pack})
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	return b
}

// 1. Weak offers are always countered and every turn passes eval.
func TestReplay_CountersWeakOffers(t *testing.T) {
	space := fruitSpace(t)
	weak := fruit(t, space, "pear", "bag")
	var interactions []Interaction
	for i := 0; i < 10; i++ {
		interactions = append(interactions, Interaction{Time: float64(i) / 10, Received: weak})
	}

	results, err := Replay(context.Background(), space, interactions, defaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Action != "counter" {
			t.Errorf("turn %d: expected counter, got %s", r.Turn, r.Action)
		}
		if !r.Eval.Passed {
			t.Errorf("turn %d: eval failed: %s", r.Turn, r.Eval.Reason)
		}
	}

	s := Summarize(results)
	if s.TotalTurns != 10 || s.Counters != 10 || s.Accepts != 0 || s.Agreement {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.DistinctBids == 0 || len(s.FinalWeights) != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

// 2. Replay stops at the accepted turn; later interactions are ignored.
func TestReplay_StopsAfterAccept(t *testing.T) {
	space := fruitSpace(t)
	interactions := []Interaction{
		{Time: 0.1, Received: fruit(t, space, "pear", "bag")},
		{Time: 0.2, Received: fruit(t, space, "apple", "box")},
		{Time: 0.3, Received: fruit(t, space, "pear", "bag")},
	}
	results, err := Replay(context.Background(), space, interactions, defaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Action != "accept" {
		t.Fatalf("expected accept on turn 2, got %s", results[1].Action)
	}
	if !results[1].Decision.Counter.IsZero() {
		t.Fatal("accepting turn carries no counter")
	}
}

// 3. First move: the opening interaction goes through Open.
func TestReplay_FirstMove(t *testing.T) {
	space := fruitSpace(t)
	config := defaultReplayConfig()
	config.FirstMove = true

	results, err := Replay(context.Background(), space, []Interaction{{Time: 0}}, config)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != 1 || results[0].Action != "counter" {
		t.Fatalf("unexpected results %+v", results)
	}
	if !results[0].Decision.Counter.Equal(fruit(t, space, "apple", "box")) {
		t.Fatalf("expected best bid as opener, got %s", results[0].Decision.Counter)
	}
}

// 4. A zero bid after the first move is replayed as no offer.
func TestReplay_EmptyReceived(t *testing.T) {
	space := fruitSpace(t)
	results, err := Replay(context.Background(), space, []Interaction{{Time: 0.4}}, defaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if results[0].Decision.Acceptance.Rule != "no_offer" {
		t.Fatalf("expected no_offer rule, got %s", results[0].Decision.Acceptance.Rule)
	}
}

// 5. Foreign-domain bids abort the replay with an error.
func TestReplay_ForeignBid(t *testing.T) {
	space := fruitSpace(t)
	other := fruitSpace(t)
	_, err := Replay(context.Background(), space,
		[]Interaction{{Time: 0.1, Received: fruit(t, other, "apple", "box")}}, defaultReplayConfig())
	if err == nil {
		t.Fatal("expected error for bid from another domain")
	}
}

// 6. Compare flags action and counter drift plus missing and surplus turns.
func TestCompare(t *testing.T) {
	space := fruitSpace(t)
	interactions := []Interaction{
		{Time: 0.1, Received: fruit(t, space, "pear", "bag")},
		{Time: 0.2, Received: fruit(t, space, "pear", "bag")},
	}
	results, err := Replay(context.Background(), space, interactions, defaultReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	got := results[0].Decision.Counter.Values()

	if m := Compare(results, []FixtureExpectedResult{
		{Turn: 1, Action: "counter", Counter: got},
		{Turn: 2, Action: "counter"},
	}); len(m) != 0 {
		t.Fatalf("expected no mismatches, got %v", m)
	}
	if m := Compare(results, []FixtureExpectedResult{{Turn: 1, Action: "accept"}}); len(m) != 2 {
		t.Fatalf("expected action mismatch plus surplus turn, got %v", m)
	}
	if m := Compare(results, []FixtureExpectedResult{
		{Turn: 1, Action: "counter", Counter: map[string]string{"kind": "pear", "pack": "bag"}},
		{Turn: 2, Action: "counter"},
		{Turn: 3, Action: "counter"},
	}); len(m) != 2 {
		t.Fatalf("expected counter drift plus missing turn, got %v", m)
	}
}
