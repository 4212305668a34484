package opponent

import "github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"

// #region model
// Model is the opponent model for one negotiation. Update is the only
// mutation; every other method is a pure read.
type Model struct {
	dom    *domain.Domain
	config Config

	weights     []float64
	occurrences [][]int
	maxSeen     []int // per issue; 0 until the issue has an observation
	scores      [][]float64

	history []domain.Bid
}

// NewModel starts a model with uniform weights and zero value scores.
func NewModel(dom *domain.Domain, config Config) *Model {
	n := dom.NumIssues()
	m := &Model{
		dom:         dom,
		config:      config,
		weights:     make([]float64, n),
		occurrences: make([][]int, n),
		maxSeen:     make([]int, n),
		scores:      make([][]float64, n),
	}
	for i, is := range dom.Issues() {
		m.weights[i] = 1 / float64(n)
		m.occurrences[i] = make([]int, len(is.Values))
		m.scores[i] = make([]float64, len(is.Values))
	}
	return m
}

// #endregion model

// #region update
// Update folds one received opponent bid into the estimate. The null bid and
// bids from another domain are ignored.
func (m *Model) Update(b domain.Bid) {
	if b.IsZero() || b.Domain() != m.dom {
		return
	}

	// Weights compare against the previous bid, so this runs before append.
	if len(m.history) > 0 {
		last := m.history[len(m.history)-1]
		var total float64
		for i := range m.weights {
			if b.Choice(i) == last.Choice(i) {
				m.weights[i] += m.config.Increment
			}
			total += m.weights[i]
		}
		m.normalize(total)
	}

	m.history = append(m.history, b)

	for i := range m.occurrences {
		v := b.Choice(i)
		m.occurrences[i][v]++
		if m.occurrences[i][v] > m.maxSeen[i] {
			m.maxSeen[i] = m.occurrences[i][v]
		}
	}
	for i := range m.scores {
		if m.maxSeen[i] == 0 {
			continue
		}
		max := float64(m.maxSeen[i])
		for v, c := range m.occurrences[i] {
			m.scores[i][v] = float64(c) / max
		}
	}
}

// normalize removes any excess over 1 evenly from every issue. An issue that
// would drop below zero is clamped and its shortfall is taken from the issues
// that still have weight.
func (m *Model) normalize(total float64) {
	excess := total - 1
	if excess <= m.config.Tolerance {
		return
	}
	share := excess / float64(len(m.weights))
	for i := range m.weights {
		m.weights[i] -= share
	}
	for {
		var deficit float64
		positive := 0
		for i, w := range m.weights {
			switch {
			case w < 0:
				deficit -= w
				m.weights[i] = 0
			case w > 0:
				positive++
			}
		}
		if deficit == 0 || positive == 0 {
			return
		}
		s := deficit / float64(positive)
		for i, w := range m.weights {
			if w > 0 {
				m.weights[i] = w - s
			}
		}
	}
}

// #endregion update

// #region queries
// Utility returns the estimated opponent utility of b: Σ weight × value score.
// Unobserved values score 0; the null bid scores 0.
func (m *Model) Utility(b domain.Bid) float64 {
	if b.IsZero() || b.Domain() != m.dom {
		return 0
	}
	var u float64
	for i, w := range m.weights {
		u += w * m.scores[i][b.Choice(i)]
	}
	return u
}

// ValueScore returns the estimated score of one value, 0 if never observed.
func (m *Model) ValueScore(ref domain.ValueRef) float64 {
	if ref.Issue < 0 || ref.Issue >= len(m.scores) {
		return 0
	}
	row := m.scores[ref.Issue]
	if ref.Value < 0 || ref.Value >= len(row) {
		return 0
	}
	return row[ref.Value]
}

// Weights returns a copy of the issue weights in domain order.
func (m *Model) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// History returns the received bids, oldest first.
func (m *Model) History() []domain.Bid {
	out := make([]domain.Bid, len(m.history))
	copy(out, m.history)
	return out
}

// Recent returns up to n of the latest received bids, oldest first.
func (m *Model) Recent(n int) []domain.Bid {
	if n > len(m.history) {
		n = len(m.history)
	}
	if n <= 0 {
		return nil
	}
	out := make([]domain.Bid, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}

// Observed returns the number of bids folded in.
func (m *Model) Observed() int { return len(m.history) }

// Snapshot copies the current estimate.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{Observed: len(m.history), Issues: make([]IssueEstimate, len(m.weights))}
	for i, is := range m.dom.Issues() {
		est := IssueEstimate{
			Name:        is.Name,
			Weight:      m.weights[i],
			ValueScores: make(map[string]float64, len(is.Values)),
			Occurrences: make(map[string]int, len(is.Values)),
		}
		for v, name := range is.Values {
			est.ValueScores[name] = m.ValueScore(domain.ValueRef{Issue: i, Value: v})
			est.Occurrences[name] = m.occurrences[i][v]
		}
		s.Issues[i] = est
	}
	return s
}

// #endregion queries
