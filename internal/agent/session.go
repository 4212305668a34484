// Package agent runs one negotiation: it feeds each received offer through
// the opponent model, the bidding strategy and the acceptance strategy.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/acceptance"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidding"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidspace"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/clock"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/logging"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// #region options
// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the logger; sessions log nothing by default.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRecorder persists every turn.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithRand overrides the seeded random source.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// #endregion options

// #region session
// Session is the agent's side of one bilateral negotiation. It is safe for
// concurrent use; turns are serialized.
type Session struct {
	mu sync.Mutex

	id       string
	space    profile.UtilitySpace
	clock    clock.Clock
	config   Config
	rng      *rand.Rand
	logger   *logrus.Logger
	log      *logrus.Entry
	recorder Recorder

	opponent   *opponent.Model
	bidding    *bidding.Strategy
	acceptance *acceptance.Strategy

	turn        int
	lastCounter domain.Bid
	done        bool
	outcome     Outcome
}

// NewSession wires the decision components for one negotiation. ix may be
// nil, in which case the bid space is indexed here; pass a shared index to
// avoid re-sorting the space for every session on the same profile.
func NewSession(space profile.UtilitySpace, ix *bidspace.Index, clk clock.Clock, cfg Config, opts ...Option) (*Session, error) {
	if ix == nil {
		ix = bidspace.Build(space)
	}
	if ix.Domain() != space.Domain() {
		return nil, ErrIndexMismatch
	}

	s := &Session{
		space:  space,
		clock:  clk,
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.New().String()
	}
	if s.rng == nil {
		// Keep the drawn seed in the config so the recorded session replays.
		for s.config.Seed == 0 {
			s.config.Seed = rand.Uint64()
		}
		s.rng = rand.New(rand.NewPCG(s.config.Seed, s.config.Seed^0x9e3779b97f4a7c15))
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.log = s.logger.WithField("session_id", s.id)

	s.opponent = opponent.NewModel(space.Domain(), s.config.Opponent)
	s.bidding = bidding.NewStrategy(space, ix, s.opponent, s.rng, s.config.Bidding)
	s.acceptance = acceptance.NewStrategy(space, s.config.Acceptance)

	if s.recorder != nil {
		if err := s.recorder.CreateSession(s.sessionRecord()); err != nil {
			return nil, fmt.Errorf("record session: %w", err)
		}
	}
	s.log.WithField("domain", space.Domain().Name()).Debug("session opened")
	return s, nil
}

// #endregion session

// #region accessors
// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Config returns the session configuration, including the seed in use.
func (s *Session) Config() Config { return s.config }

// Domain returns the negotiated domain.
func (s *Session) Domain() *domain.Domain { return s.space.Domain() }

// Opponent returns a snapshot of the opponent model.
func (s *Session) Opponent() opponent.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent.Snapshot()
}

// Ledger returns the proposals made so far.
func (s *Session) Ledger() []bidding.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bidding.Ledger().Entries()
}

// Proposals returns how many distinct bids were proposed, and how many
// proposals were made in total.
func (s *Session) Proposals() (distinct, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.bidding.Ledger()
	return l.Distinct(), l.Total()
}

// Turn returns the number of decisions taken.
func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Done reports whether the session has ended, and how.
func (s *Session) Done() (bool, Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done, s.outcome
}

// #endregion accessors

// #region open
// Open makes the first move when the agent starts the negotiation.
func (s *Session) Open(ctx context.Context) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return Decision{}, ErrSessionClosed
	}
	if s.turn > 0 {
		return Decision{}, ErrAlreadyOpened
	}
	return s.step(ctx, domain.Bid{}), nil
}

// #endregion open

// #region receive
// Receive answers the opponent's offer: accept it, or counter. A zero bid
// is treated as no offer and always countered.
func (s *Session) Receive(ctx context.Context, bid domain.Bid) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return Decision{}, ErrSessionClosed
	}
	if !bid.IsZero() && bid.Domain() != s.space.Domain() {
		return Decision{}, ErrForeignBid
	}
	return s.step(ctx, bid), nil
}

func (s *Session) step(ctx context.Context, received domain.Bid) Decision {
	s.opponent.Update(received)
	t := s.clock.NormalizedTime()

	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}
	p := s.bidding.Generate(ctx, t)
	a := s.acceptance.Evaluate(received, p.Bid)

	s.turn++
	d := Decision{
		SessionID:       s.id,
		Turn:            s.turn,
		Time:            t,
		Accept:          a.Accept,
		Received:        received,
		Proposal:        p,
		Acceptance:      a,
		OpponentWeights: s.opponent.Weights(),
	}
	if !a.Accept {
		d.Counter = p.Bid
		s.lastCounter = p.Bid
	}

	s.log.WithFields(logrus.Fields{
		"turn":   d.Turn,
		"time":   t,
		"target": p.Target,
		"action": d.Action(),
		"mode":   p.Mode,
	}).Debug(a.Reason)

	s.recordTurn(d)
	if a.Accept {
		s.end(OutcomeAgreement, received)
	}
	return d
}

// #endregion receive

// #region finish
// Finish ends the session for a reason decided outside the agent. For
// OutcomeAcceptedByOpponent a zero agreement means the agent's last counter.
func (s *Session) Finish(outcome Outcome, agreement domain.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrSessionClosed
	}
	if outcome == OutcomeAcceptedByOpponent && agreement.IsZero() {
		agreement = s.lastCounter
	}
	s.end(outcome, agreement)
	return nil
}

func (s *Session) end(outcome Outcome, agreement domain.Bid) {
	s.done = true
	s.outcome = outcome
	s.log.WithFields(logrus.Fields{
		"outcome":   outcome,
		"agreement": agreement.String(),
		"utility":   s.space.Utility(agreement),
	}).Info("session finished")

	if s.recorder == nil {
		return
	}
	err := s.recorder.EndSession(s.id, store.SessionEnd{
		Outcome:          string(outcome),
		AgreementJSON:    bidJSON(agreement),
		AgreementUtility: s.space.Utility(agreement),
	})
	if err != nil {
		s.log.WithError(err).Warn("record session end")
	}
}

// #endregion finish

// #region recording
type fileExporter interface {
	ToFile() profile.File
}

func (s *Session) sessionRecord() store.SessionRecord {
	rec := store.SessionRecord{
		SessionID: s.id,
		Domain:    s.space.Domain().Name(),
	}
	if fe, ok := s.space.(fileExporter); ok {
		if b, err := json.Marshal(fe.ToFile()); err == nil {
			rec.ProfileJSON = string(b)
		}
	}
	if rec.ProfileJSON == "" {
		rec.ProfileJSON = "{}"
	}
	if b, err := json.Marshal(s.config); err == nil {
		rec.ConfigJSON = string(b)
	}
	return rec
}

func (s *Session) recordTurn(d Decision) {
	if s.recorder == nil {
		return
	}
	signals := logging.TurnSignals{
		Time:              d.Time,
		Received:          d.Received.Values(),
		Target:            d.Proposal.Target,
		SearchTarget:      d.Proposal.SearchTarget,
		Generated:         d.Proposal.Bid.Values(),
		GeneratedUtility:  d.Proposal.Utility,
		OpponentEstimate:  d.Proposal.OpponentUtility,
		SearchMode:        string(d.Proposal.Mode),
		Override:          string(d.Proposal.Override),
		ReciprocityTarget: d.Proposal.ReciprocityTarget,
		TimesProposed:     d.Proposal.TimesProposed,
		ReceivedUtility:   d.Acceptance.ReceivedUtility,
		AcceptRule:        string(d.Acceptance.Rule),
		OpponentWeights:   make(map[string]float64, len(d.OpponentWeights)),
	}
	for i, w := range d.OpponentWeights {
		signals.OpponentWeights[s.space.Domain().Issue(i).Name] = w
	}
	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		s.log.WithError(err).WithField("turn", d.Turn).Warn("encode turn signals")
		signalsJSON = nil
	}

	err = s.recorder.RecordTurn(store.TurnRecord{
		SessionID:       s.id,
		Turn:            d.Turn,
		Time:            d.Time,
		ReceivedJSON:    bidJSON(d.Received),
		ReceivedUtility: d.Acceptance.ReceivedUtility,
		CounterJSON:     bidJSON(d.Proposal.Bid),
		CounterUtility:  d.Proposal.Utility,
		Target:          d.Proposal.Target,
		Accepted:        d.Accept,
		Reason:          d.Acceptance.Reason,
		SignalsJSON:     string(signalsJSON),
	})
	if err != nil {
		s.log.WithError(err).WithField("turn", d.Turn).Warn("record turn")
	}
}

// bidJSON encodes a bid as an issue→value object; the zero bid is "".
func bidJSON(b domain.Bid) string {
	if b.IsZero() {
		return ""
	}
	out, err := json.Marshal(b.Values())
	if err != nil {
		return ""
	}
	return string(out)
}

// #endregion recording
