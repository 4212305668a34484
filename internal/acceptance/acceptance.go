// Package acceptance decides whether to take the opponent's latest offer.
package acceptance

import (
	"fmt"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// #region config
// Config holds the acceptance thresholds.
type Config struct {
	AcceptAbove float64 // offers strictly above this are always taken (default 0.9)
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{AcceptAbove: 0.9}
}

// #endregion config

// #region decision
// Rule names the clause that produced a decision.
type Rule string

const (
	RuleNoOffer   Rule = "no_offer"
	RuleThreshold Rule = "threshold"
	RuleNext      Rule = "next"
	RuleCounter   Rule = "counter"
)

// Decision is the outcome of one acceptance check.
type Decision struct {
	Accept           bool
	Rule             Rule
	ReceivedUtility  float64
	GeneratedUtility float64
	Reason           string
}

// #endregion decision

// #region strategy
// Strategy accepts an offer if it is valuable on its own or if the agent's
// own next bid would be no better. It holds no per-turn state.
type Strategy struct {
	space  profile.UtilitySpace
	config Config
}

// NewStrategy creates an acceptance strategy over the agent's own utility.
func NewStrategy(space profile.UtilitySpace, config Config) *Strategy {
	return &Strategy{space: space, config: config}
}

// IsAccepted reports whether received should be accepted instead of sending generated.
func (s *Strategy) IsAccepted(received, generated domain.Bid) bool {
	return s.Evaluate(received, generated).Accept
}

// Evaluate is IsAccepted with the utilities and the deciding rule.
func (s *Strategy) Evaluate(received, generated domain.Bid) Decision {
	if received.IsZero() {
		return Decision{Rule: RuleNoOffer, Reason: "no offer received"}
	}
	ru := s.space.Utility(received)
	gu := s.space.Utility(generated)
	d := Decision{ReceivedUtility: ru, GeneratedUtility: gu}

	switch {
	case ru > s.config.AcceptAbove:
		d.Accept, d.Rule = true, RuleThreshold
		d.Reason = fmt.Sprintf("received %.4f above %.4f", ru, s.config.AcceptAbove)
	case gu <= ru:
		d.Accept, d.Rule = true, RuleNext
		d.Reason = fmt.Sprintf("own bid %.4f no better than received %.4f", gu, ru)
	default:
		d.Rule = RuleCounter
		d.Reason = fmt.Sprintf("own bid %.4f beats received %.4f", gu, ru)
	}
	return d
}

// #endregion strategy
