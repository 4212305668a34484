// Package profile implements the agent's own linear-additive utility space.
package profile

import (
	"errors"
	"fmt"
	"math"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
)

// #region errors
var (
	ErrInvalidWeights = errors.New("issue weights must be non-negative and sum to 1")
	ErrInvalidScore   = errors.New("value score outside [0,1]")
)

const weightTolerance = 1e-6

// #endregion errors

// #region utility-space
// UtilitySpace is the read-only view of a party's own preferences.
type UtilitySpace interface {
	Domain() *domain.Domain
	Utility(b domain.Bid) float64
}

// #endregion utility-space

// #region linear-additive
// LinearAdditive scores a bid as the weighted sum of per-issue value scores.
type LinearAdditive struct {
	dom         *domain.Domain
	weights     []float64
	scores      [][]float64
	reservation float64
}

// NewLinearAdditive builds a utility space. weights and scores are keyed by
// issue name (and value name); unspecified value scores default to 0.
// reservation is -1 when the profile has none.
func NewLinearAdditive(dom *domain.Domain, weights map[string]float64, scores map[string]map[string]float64, reservation float64) (*LinearAdditive, error) {
	la := &LinearAdditive{
		dom:         dom,
		weights:     make([]float64, dom.NumIssues()),
		scores:      make([][]float64, dom.NumIssues()),
		reservation: reservation,
	}
	var sum float64
	for i, is := range dom.Issues() {
		w, ok := weights[is.Name]
		if !ok || w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidWeights, is.Name, w)
		}
		la.weights[i] = w
		sum += w

		la.scores[i] = make([]float64, len(is.Values))
		for j, v := range is.Values {
			s := scores[is.Name][v]
			if s < 0 || s > 1 || math.IsNaN(s) {
				return nil, fmt.Errorf("%w: %s=%s: %v", ErrInvalidScore, is.Name, v, s)
			}
			la.scores[i][j] = s
		}
	}
	for name := range weights {
		if _, ok := dom.IssueIndex(name); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownIssue, name)
		}
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("%w: sum=%.6f", ErrInvalidWeights, sum)
	}
	return la, nil
}

// Domain returns the domain this space is defined over.
func (la *LinearAdditive) Domain() *domain.Domain { return la.dom }

// Utility returns Σ weight(issue) × score(issue, value). The null bid and
// bids from another domain score 0.
func (la *LinearAdditive) Utility(b domain.Bid) float64 {
	if b.IsZero() || b.Domain() != la.dom {
		return 0
	}
	var u float64
	for i := range la.weights {
		u += la.Contribution(b.Ref(i))
	}
	return u
}

// Contribution returns weight × score for one (issue, value) pair.
func (la *LinearAdditive) Contribution(ref domain.ValueRef) float64 {
	if ref.Issue < 0 || ref.Issue >= len(la.weights) {
		return 0
	}
	row := la.scores[ref.Issue]
	if ref.Value < 0 || ref.Value >= len(row) {
		return 0
	}
	return la.weights[ref.Issue] * row[ref.Value]
}

// Weight returns the weight of issue i.
func (la *LinearAdditive) Weight(i int) float64 { return la.weights[i] }

// ReservationValue returns the utility of the reservation outcome, or -1.
func (la *LinearAdditive) ReservationValue() float64 { return la.reservation }

// #endregion linear-additive
