package bidding

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// helper: 3 issues with graded scores so every threshold has candidates.
func testSpace(t *testing.T) *profile.LinearAdditive {
	t.Helper()
	dom, err := domain.New("laptop", map[string][]string{
		"brand":   {"acme", "globex", "initech", "umbrella"},
		"memory":  {"8", "16", "32"},
		"storage": {"256", "512", "1024"},
	})
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	la, err := profile.NewLinearAdditive(dom,
		map[string]float64{"brand": 0.5, "memory": 0.3, "storage": 0.2},
		map[string]map[string]float64{
			"brand":   {"acme": 1, "globex": 0.7, "initech": 0.4, "umbrella": 0},
			"memory":  {"8": 0, "16": 0.6, "32": 1},
			"storage": {"256": 0, "512": 0.5, "1024": 1},
		}, -1)
	if err != nil {
		t.Fatalf("NewLinearAdditive: %v", err)
	}
	return la
}

func newStrategy(t *testing.T, la *profile.LinearAdditive, cfg Config) (*Strategy, *opponent.Model) {
	t.Helper()
	model := opponent.NewModel(la.Domain(), opponent.DefaultConfig())
	s := NewStrategy(la, bidspace.Build(la), model, rand.New(rand.NewPCG(42, 7)), cfg)
	return s, model
}

func TestTargetUtilitySchedule(t *testing.T) {
	tests := []struct {
		t    float64
		want float64
	}{
		{0.0, 0.9},
		{0.15, 0.8},
		{0.3, 0.7},
		{0.45, 0.7},
		{0.6, 0.7},
		{0.8, 0.55},
		{1.0, 0.4},
	}
	for _, tt := range tests {
		if got := TargetUtility(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TargetUtility(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	// No jump at either boundary.
	for _, b := range []float64{0.3, 0.6} {
		if d := math.Abs(TargetUtility(b-1e-9) - TargetUtility(b)); d > 1e-6 {
			t.Errorf("discontinuity %v at %v", d, b)
		}
	}
}

func TestTargetUtilityMonotone(t *testing.T) {
	prev := TargetUtility(0)
	for i := 1; i <= 100; i++ {
		cur := TargetUtility(float64(i) / 100)
		if cur > prev+1e-12 {
			t.Fatalf("target rose at t=%v", float64(i)/100)
		}
		prev = cur
	}
}

func TestGenerateClearsTarget(t *testing.T) {
	la := testSpace(t)
	s, _ := newStrategy(t, la, DefaultConfig())
	for i := 0; i <= 20; i++ {
		tm := float64(i) / 20
		p := s.Generate(context.Background(), tm)
		if p.Bid.IsZero() {
			t.Fatalf("t=%v: no bid", tm)
		}
		if p.Utility <= p.Target {
			t.Fatalf("t=%v: utility %v not above target %v", tm, p.Utility, p.Target)
		}
		if got := la.Utility(p.Bid); math.Abs(got-p.Utility) > 1e-12 {
			t.Fatalf("reported utility %v differs from profile %v", p.Utility, got)
		}
	}
}

func TestGenerateRecordsLedger(t *testing.T) {
	la := testSpace(t)
	s, _ := newStrategy(t, la, DefaultConfig())
	p1 := s.Generate(context.Background(), 0)
	if p1.TimesProposed != 1 || s.Ledger().Count(p1.Bid) != 1 {
		t.Fatalf("first proposal should count 1, got %d", p1.TimesProposed)
	}
	p2 := s.Generate(context.Background(), 0)
	if p2.Bid.Equal(p1.Bid) && p2.TimesProposed != 2 {
		t.Fatalf("repeat proposal should count 2, got %d", p2.TimesProposed)
	}
	if s.Ledger().Total() != 2 {
		t.Fatalf("expected 2 proposals recorded, got %d", s.Ledger().Total())
	}
}

func TestGenerateRepetitionGuard(t *testing.T) {
	la := testSpace(t)
	s, model := newStrategy(t, la, DefaultConfig())

	// The opponent keeps asking for the same bid.
	ask, _ := la.Domain().NewBid(map[string]string{"brand": "umbrella", "memory": "8", "storage": "256"})
	model.Update(ask)

	// At t=0.3 well over a dozen bids clear the 0.7 plateau.
	seen := map[string]int{}
	for i := 0; i < 12; i++ {
		p := s.Generate(context.Background(), 0.3)
		seen[p.Bid.Key()]++
		if seen[p.Bid.Key()] > 5 {
			t.Fatalf("bid %s proposed %d times while an alternative exists", p.Bid, seen[p.Bid.Key()])
		}
	}
	if len(seen) < 2 {
		t.Fatalf("expected the guard to rotate bids, saw %v", seen)
	}
}

func TestReciprocityRaisesDemand(t *testing.T) {
	la := testSpace(t)
	cfg := DefaultConfig()
	cfg.EarlyReciprocityChance = 1
	s, model := newStrategy(t, la, cfg)

	// Eight stingy offers: own utility 0 each.
	stingy, _ := la.Domain().NewBid(map[string]string{"brand": "umbrella", "memory": "8", "storage": "256"})
	for i := 0; i < 8; i++ {
		model.Update(stingy)
	}
	p := s.Generate(context.Background(), 0.5)
	if p.Override != OverrideReciprocity {
		t.Fatalf("expected reciprocity override, got %q", p.Override)
	}
	if math.Abs(p.ReciprocityTarget-1) > 1e-9 {
		t.Fatalf("expected reciprocity target 1, got %v", p.ReciprocityTarget)
	}
	// Nothing is above 1, so the best bid in the space is used.
	if p.Mode != bidspace.ModeBest || math.Abs(p.Utility-1) > 1e-9 {
		t.Fatalf("expected best bid, got %s at %v", p.Mode, p.Utility)
	}
}

func TestReciprocityNeedsHistory(t *testing.T) {
	la := testSpace(t)
	cfg := DefaultConfig()
	cfg.EarlyReciprocityChance = 1
	s, model := newStrategy(t, la, cfg)
	stingy, _ := la.Domain().NewBid(map[string]string{"brand": "umbrella", "memory": "8", "storage": "256"})
	for i := 0; i < 7; i++ {
		model.Update(stingy)
	}
	if p := s.Generate(context.Background(), 0.5); p.Override != OverrideNone {
		t.Fatalf("7 offers should not engage reciprocity, got %q", p.Override)
	}
}

func TestReciprocityKeepsScheduledWhenGenerous(t *testing.T) {
	la := testSpace(t)
	cfg := DefaultConfig()
	cfg.EarlyReciprocityChance = 1
	s, model := newStrategy(t, la, cfg)
	generous, _ := la.Domain().NewBid(map[string]string{"brand": "acme", "memory": "32", "storage": "1024"})
	for i := 0; i < 8; i++ {
		model.Update(generous)
	}
	p := s.Generate(context.Background(), 0.5)
	if p.Override != OverrideNone {
		t.Fatalf("generous opponent should keep the scheduled bid, got %q", p.Override)
	}
	if p.ReciprocityTarget != 0 {
		t.Fatalf("expected reciprocity target 0, got %v", p.ReciprocityTarget)
	}
}

func TestLateFallbackTarget(t *testing.T) {
	la := testSpace(t)
	cfg := DefaultConfig()
	cfg.LateReciprocityChance = 0
	s, model := newStrategy(t, la, cfg)
	b, _ := la.Domain().NewBid(map[string]string{"brand": "initech", "memory": "16", "storage": "512"})
	for i := 0; i < 8; i++ {
		model.Update(b)
	}
	p := s.Generate(context.Background(), 0.95)
	if p.Override != OverrideLateFallback {
		t.Fatalf("expected late fallback, got %q", p.Override)
	}
	if p.Utility <= cfg.LateFallbackTarget {
		t.Fatalf("late fallback bid %v not above %v", p.Utility, cfg.LateFallbackTarget)
	}
}

func TestLedgerEntries(t *testing.T) {
	la := testSpace(t)
	l := NewLedger()
	var a, b domain.Bid
	a, _ = la.Domain().BidAt([]int{0, 0, 0})
	b, _ = la.Domain().BidAt([]int{1, 0, 0})
	l.Record(a)
	l.Record(b)
	l.Record(a)
	if l.Record(domain.Bid{}) != 0 {
		t.Fatal("null bid should not be recorded")
	}
	entries := l.Entries()
	if len(entries) != 2 || l.Distinct() != 2 {
		t.Fatalf("expected 2 distinct, got %d", len(entries))
	}
	if !entries[0].Bid.Equal(a) || entries[0].Count != 2 || entries[1].Count != 1 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestLedgerKeepsSeparatorValuesApart(t *testing.T) {
	dom, err := domain.New("separators", map[string][]string{
		"a": {"1;b=2", "1"},
		"b": {"3", "2;b=3"},
	})
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	x, _ := dom.NewBid(map[string]string{"a": "1;b=2", "b": "3"})
	y, _ := dom.NewBid(map[string]string{"a": "1", "b": "2;b=3"})

	l := NewLedger()
	for i := 0; i < 5; i++ {
		l.Record(x)
	}
	if got := l.Count(y); got != 0 {
		t.Fatalf("never-proposed bid counted %d times", got)
	}
	if l.Count(x) != 5 || l.Distinct() != 1 || l.Total() != 5 {
		t.Fatalf("unexpected ledger: count=%d distinct=%d total=%d", l.Count(x), l.Distinct(), l.Total())
	}
}
