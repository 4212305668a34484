package bidspace

import (
	"context"
	"math/rand/v2"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
)

// cancelCheckEvery bounds how many candidates are ranked between context checks.
const cancelCheckEvery = 1024

// #region selection-types
// Mode says how a bid was chosen.
type Mode string

const (
	ModeRanked   Mode = "ranked"    // highest opponent estimate among eligible candidates
	ModeRandom   Mode = "random"    // every candidate over-proposed: uniform pick
	ModeBest     Mode = "best"      // nothing above target: highest own utility
	ModeCanceled Mode = "cancelled" // context ended mid-ranking: best found so far
)

// Counter reports how many times a bid has already been proposed.
type Counter interface {
	Count(b domain.Bid) int
}

// Selection is the result of one threshold search.
type Selection struct {
	Bid             domain.Bid
	Utility         float64
	OpponentUtility float64
	Candidates      int
	Mode            Mode
}

// #endregion selection-types

// #region select
// Searcher picks, among bids above a target, the one the opponent model rates
// highest while skipping bids already proposed maxRepeats times.
type Searcher struct {
	index      *Index
	maxRepeats int
	rng        *rand.Rand
}

// NewSearcher wires a searcher over ix.
func NewSearcher(ix *Index, maxRepeats int, rng *rand.Rand) *Searcher {
	return &Searcher{index: ix, maxRepeats: maxRepeats, rng: rng}
}

// GreaterThan returns a bid with own utility strictly above target. It never
// fails: an empty candidate set yields the best bid in the space.
func (s *Searcher) GreaterThan(ctx context.Context, target float64, est opponent.Estimator, ledger Counter) Selection {
	candidates := s.index.Above(target)
	if len(candidates) == 0 {
		best := s.index.Best()
		return Selection{
			Bid:             best.Bid,
			Utility:         best.Utility,
			OpponentUtility: est.Utility(best.Bid),
			Mode:            ModeBest,
		}
	}

	var (
		found    bool
		chosen   Entry
		chosenOp float64
		mode     = ModeRanked
	)
	for i, c := range candidates {
		if i%cancelCheckEvery == 0 && i > 0 && ctx.Err() != nil {
			mode = ModeCanceled
			break
		}
		if ledger != nil && ledger.Count(c.Bid) >= s.maxRepeats {
			continue
		}
		op := est.Utility(c.Bid)
		if !found || op > chosenOp || (op == chosenOp && c.Ordinal < chosen.Ordinal) {
			found, chosen, chosenOp = true, c, op
		}
	}

	if !found {
		chosen = candidates[s.rng.IntN(len(candidates))]
		chosenOp = est.Utility(chosen.Bid)
		if mode != ModeCanceled {
			mode = ModeRandom
		}
	}
	return Selection{
		Bid:             chosen.Bid,
		Utility:         chosen.Utility,
		OpponentUtility: chosenOp,
		Candidates:      len(candidates),
		Mode:            mode,
	}
}

// #endregion select
