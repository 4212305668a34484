// Package simulate plays agents against each other on a rounds clock.
package simulate

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/agent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/clock"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/logging"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrDomainMismatch is returned when the two profiles do not describe the same issues.
var ErrDomainMismatch = errors.New("profiles describe different domains")

// #region types
// Match is one negotiation between two agents. A moves first.
type Match struct {
	Name   string
	A, B   *profile.LinearAdditive
	Rounds int // turns in total, both sides counted
	SeedA  uint64
	SeedB  uint64
}

// Result is how a match ended.
type Result struct {
	Name       string
	Outcome    string // "agreement" | "deadline" | "aborted"
	AcceptedBy string // "a" | "b" when Outcome is "agreement"
	Agreement  map[string]string
	UtilityA   float64
	UtilityB   float64
	Turns      int
	DistinctA  int // distinct bids proposed by each side
	DistinctB  int
	SessionA   string
	SessionB   string
}

// Runner plays matches with a shared agent configuration.
type Runner struct {
	Config   agent.Config
	Recorder agent.Recorder // optional
	Logger   *logrus.Logger // optional
}

// #endregion types

// #region run
type side struct {
	name    string
	space   *profile.LinearAdditive
	session *agent.Session
}

// Run plays one match to agreement, deadline or cancellation.
func (r *Runner) Run(ctx context.Context, m Match) (Result, error) {
	if err := sameIssues(m.A.Domain(), m.B.Domain()); err != nil {
		return Result{}, err
	}
	rounds := clock.NewRounds(m.Rounds)
	a, err := r.newSide("a", m.A, m.SeedA, rounds)
	if err != nil {
		return Result{}, err
	}
	b, err := r.newSide("b", m.B, m.SeedB, rounds)
	if err != nil {
		return Result{}, err
	}
	res := Result{Name: m.Name, SessionA: a.session.ID(), SessionB: b.session.ID()}

	first, err := a.session.Open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("match %s open: %w", m.Name, err)
	}
	rounds.Tick()
	res.Turns = 1
	offer := first.Counter
	mover, waiting := b, a

	for {
		if ctx.Err() != nil {
			return r.finish(res, a, b, agent.OutcomeAborted, domain.Bid{}), nil
		}
		if rounds.Done() {
			return r.finish(res, a, b, agent.OutcomeDeadline, domain.Bid{}), nil
		}
		in, err := mover.space.Domain().NewBid(offer.Values())
		if err != nil {
			return Result{}, fmt.Errorf("match %s translate: %w", m.Name, err)
		}
		d, err := mover.session.Receive(ctx, in)
		if err != nil {
			return Result{}, fmt.Errorf("match %s turn %d: %w", m.Name, res.Turns+1, err)
		}
		rounds.Tick()
		res.Turns++

		if d.Accept {
			if err := waiting.session.Finish(agent.OutcomeAcceptedByOpponent, domain.Bid{}); err != nil {
				return Result{}, fmt.Errorf("match %s finish: %w", m.Name, err)
			}
			res.DistinctA, _ = a.session.Proposals()
			res.DistinctB, _ = b.session.Proposals()
			res.Outcome = string(agent.OutcomeAgreement)
			res.AcceptedBy = mover.name
			res.Agreement = in.Values()
			res.UtilityA = utility(a.space, in)
			res.UtilityB = utility(b.space, in)
			r.logger().WithFields(logrus.Fields{
				"match":     m.Name,
				"turns":     res.Turns,
				"utility_a": res.UtilityA,
				"utility_b": res.UtilityB,
			}).Info("agreement")
			return res, nil
		}
		offer = d.Counter
		mover, waiting = waiting, mover
	}
}

func (r *Runner) newSide(name string, space *profile.LinearAdditive, seed uint64, clk clock.Clock) (*side, error) {
	cfg := r.Config
	cfg.Seed = seed
	opts := []agent.Option{agent.WithLogger(r.logger())}
	if r.Recorder != nil {
		opts = append(opts, agent.WithRecorder(r.Recorder))
	}
	s, err := agent.NewSession(space, bidspace.Build(space), clk, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("side %s: %w", name, err)
	}
	return &side{name: name, space: space, session: s}, nil
}

func (r *Runner) finish(res Result, a, b *side, outcome agent.Outcome, agreement domain.Bid) Result {
	for _, s := range []*side{a, b} {
		if err := s.session.Finish(outcome, agreement); err != nil {
			r.logger().WithError(err).WithField("side", s.name).Warn("finish")
		}
	}
	res.DistinctA, _ = a.session.Proposals()
	res.DistinctB, _ = b.session.Proposals()
	res.Outcome = string(outcome)
	res.UtilityA = max(a.space.ReservationValue(), 0)
	res.UtilityB = max(b.space.ReservationValue(), 0)
	return res
}

var discard = logging.Discard()

func (r *Runner) logger() *logrus.Logger {
	if r.Logger == nil {
		return discard
	}
	return r.Logger
}

// utility uses the same values under the side's own domain.
func utility(space *profile.LinearAdditive, b domain.Bid) float64 {
	own, err := space.Domain().NewBid(b.Values())
	if err != nil {
		return 0
	}
	return space.Utility(own)
}

func sameIssues(a, b *domain.Domain) error {
	if a.NumIssues() != b.NumIssues() {
		return ErrDomainMismatch
	}
	for i, is := range a.Issues() {
		other := b.Issue(i)
		if is.Name != other.Name || len(is.Values) != len(other.Values) {
			return ErrDomainMismatch
		}
		for _, v := range is.Values {
			if _, err := b.Ref(is.Name, v); err != nil {
				return ErrDomainMismatch
			}
		}
	}
	return nil
}

// #endregion run

// #region run-all
// RunAll plays matches concurrently, at most parallel at a time. Results
// keep the order of matches.
func (r *Runner) RunAll(ctx context.Context, matches []Match, parallel int) ([]Result, error) {
	results := make([]Result, len(matches))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, m := range matches {
		g.Go(func() error {
			res, err := r.Run(ctx, m)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// #endregion run-all

// #region summary
// Summary aggregates a batch of results.
type Summary struct {
	Matches      int
	Agreements   int
	MeanUtilityA float64
	MeanUtilityB float64
	MeanTurns    float64
	ReservationA float64
	ReservationB float64
	SpaceA       bidspace.Stats
	SpaceB       bidspace.Stats
}

// Summarize averages utilities over all matches; failed matches count at
// the reservation value, or 0 without one. The bid-space spread of each
// profile is reported alongside.
func Summarize(results []Result, a, b *profile.LinearAdditive) Summary {
	s := Summary{
		Matches:      len(results),
		ReservationA: a.ReservationValue(),
		ReservationB: b.ReservationValue(),
		SpaceA:       bidspace.Build(a).Stats(),
		SpaceB:       bidspace.Build(b).Stats(),
	}
	if len(results) == 0 {
		return s
	}
	for _, r := range results {
		if r.Outcome == string(agent.OutcomeAgreement) {
			s.Agreements++
		}
		s.MeanUtilityA += r.UtilityA
		s.MeanUtilityB += r.UtilityB
		s.MeanTurns += float64(r.Turns)
	}
	n := float64(len(results))
	s.MeanUtilityA /= n
	s.MeanUtilityB /= n
	s.MeanTurns /= n
	return s
}

// #endregion summary
