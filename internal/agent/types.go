package agent

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/acceptance"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/bidding"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/opponent"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/store"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrAlreadyOpened = errors.New("session already made its first move")
	ErrForeignBid    = errors.New("bid belongs to another domain")
	ErrIndexMismatch = errors.New("bid index built for another domain")
)

// #region config
// Config bundles the parameters of the three decision components.
type Config struct {
	Opponent    opponent.Config   `json:"opponent"`
	Bidding     bidding.Config    `json:"bidding"`
	Acceptance  acceptance.Config `json:"acceptance"`
	Seed        uint64            `json:"seed"`         // 0 draws one at session start
	TurnTimeout time.Duration     `json:"turn_timeout"` // bound on one bid search; 0 is unbounded
}

// DefaultConfig returns the standard agent.
func DefaultConfig() Config {
	return Config{
		Opponent:   opponent.DefaultConfig(),
		Bidding:    bidding.DefaultConfig(),
		Acceptance: acceptance.DefaultConfig(),
	}
}

// #endregion config

// #region outcome
// Outcome is how a session ended.
type Outcome string

const (
	OutcomeAgreement          Outcome = "agreement"            // the agent accepted an offer
	OutcomeAcceptedByOpponent Outcome = "accepted_by_opponent" // the opponent accepted the agent's bid
	OutcomeDeadline           Outcome = "deadline"
	OutcomeAborted            Outcome = "aborted"
)

// #endregion outcome

// #region decision
// Decision is the agent's answer for one turn.
type Decision struct {
	SessionID       string
	Turn            int
	Time            float64
	Accept          bool
	Received        domain.Bid // zero on the opening move
	Counter         domain.Bid // zero when Accept
	Proposal        bidding.Proposal
	Acceptance      acceptance.Decision
	OpponentWeights []float64 // after the update
}

// Action is "accept" or "counter".
func (d Decision) Action() string {
	if d.Accept {
		return "accept"
	}
	return "counter"
}

// #endregion decision

// #region recorder
// Recorder persists session transcripts. *store.Store satisfies it.
type Recorder interface {
	CreateSession(rec store.SessionRecord) error
	RecordTurn(rec store.TurnRecord) error
	EndSession(sessionID string, end store.SessionEnd) error
}

// #endregion recorder
