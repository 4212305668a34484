package bidding

import "github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"

// #region ledger
// Ledger counts how often each bid has been proposed. It only grows.
type Ledger struct {
	counts map[string]int
	order  []domain.Bid
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{counts: make(map[string]int)}
}

// Record adds one proposal of b and returns its new count.
func (l *Ledger) Record(b domain.Bid) int {
	if b.IsZero() {
		return 0
	}
	k := b.Key()
	if _, ok := l.counts[k]; !ok {
		l.order = append(l.order, b)
	}
	l.counts[k]++
	return l.counts[k]
}

// Count returns how often b has been proposed.
func (l *Ledger) Count(b domain.Bid) int { return l.counts[b.Key()] }

// Distinct returns the number of distinct bids proposed.
func (l *Ledger) Distinct() int { return len(l.order) }

// Total returns the number of proposals recorded.
func (l *Ledger) Total() int {
	n := 0
	for _, c := range l.counts {
		n += c
	}
	return n
}

// LedgerEntry is one row of a ledger listing.
type LedgerEntry struct {
	Bid   domain.Bid
	Count int
}

// Entries lists bids in first-proposed order.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, len(l.order))
	for i, b := range l.order {
		out[i] = LedgerEntry{Bid: b, Count: l.counts[b.Key()]}
	}
	return out
}

// #endregion ledger
