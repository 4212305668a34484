package bidding

import (
	"context"
	"math/rand/v2"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// #region opponent-view
// OpponentView is what the strategy reads from the opponent model.
type OpponentView interface {
	opponent.Estimator
	Recent(n int) []domain.Bid
	Observed() int
}

// #endregion opponent-view

// #region schedule
// TargetUtility is the time-dependent concession curve: a gentle linear
// descent from 0.9 to a 0.7 plateau, then a steeper descent to 0.4 at t=1.
func TargetUtility(t float64) float64 {
	switch {
	case t < 0.3:
		return -(2.0/3.0)*t + 0.9
	case t < 0.6:
		return 0.7
	default:
		return -0.75*t + 1.15
	}
}

// #endregion schedule

// #region strategy
// Strategy produces one counter-offer per call and records it in its ledger.
type Strategy struct {
	space    profile.UtilitySpace
	opponent OpponentView
	searcher *bidspace.Searcher
	ledger   *Ledger
	rng      *rand.Rand
	config   Config
}

// NewStrategy wires a strategy. rng drives the reciprocity draws and the
// random fallback of the search.
func NewStrategy(space profile.UtilitySpace, ix *bidspace.Index, opp OpponentView, rng *rand.Rand, config Config) *Strategy {
	return &Strategy{
		space:    space,
		opponent: opp,
		searcher: bidspace.NewSearcher(ix, config.MaxRepeats, rng),
		ledger:   NewLedger(),
		rng:      rng,
		config:   config,
	}
}

// Ledger exposes the offer ledger.
func (s *Strategy) Ledger() *Ledger { return s.ledger }

// Generate returns the bid to propose at normalized time t. It always returns
// a bid; if ctx ends during the search the best candidate so far is used.
func (s *Strategy) Generate(ctx context.Context, t float64) Proposal {
	target := TargetUtility(t)
	sel := s.search(ctx, target)
	p := Proposal{Time: t, Target: target, SearchTarget: target}

	if s.opponent.Observed() >= s.config.ReciprocityMinHistory {
		if t < s.config.LateThreshold {
			if s.rng.Float64() < s.config.EarlyReciprocityChance {
				sel = s.reciprocate(ctx, sel, &p)
			}
		} else if s.rng.Float64() < s.config.LateReciprocityChance {
			sel = s.reciprocate(ctx, sel, &p)
		} else {
			sel = s.search(ctx, s.config.LateFallbackTarget)
			p.Override = OverrideLateFallback
			p.SearchTarget = s.config.LateFallbackTarget
		}
	}

	p.Bid = sel.Bid
	p.Utility = sel.Utility
	p.OpponentUtility = sel.OpponentUtility
	p.Mode = sel.Mode
	p.TimesProposed = s.ledger.Record(sel.Bid)
	return p
}

// reciprocate demands back what the opponent has recently withheld: the
// target is 1 minus the mean own utility of its last offers. The result
// replaces sel only when that target is above sel's utility.
func (s *Strategy) reciprocate(ctx context.Context, sel bidspace.Selection, p *Proposal) bidspace.Selection {
	recent := s.opponent.Recent(s.config.ReciprocityWindow)
	if len(recent) == 0 {
		return sel
	}
	var mean float64
	for _, b := range recent {
		mean += s.space.Utility(b)
	}
	mean /= float64(len(recent))
	rt := 1 - mean
	p.ReciprocityTarget = rt
	if rt <= sel.Utility {
		return sel
	}
	p.Override = OverrideReciprocity
	p.SearchTarget = rt
	return s.search(ctx, rt)
}

func (s *Strategy) search(ctx context.Context, target float64) bidspace.Selection {
	return s.searcher.GreaterThan(ctx, target, s.opponent, s.ledger)
}

// #endregion strategy
