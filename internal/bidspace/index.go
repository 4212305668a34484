// Package bidspace indexes the full bid space by the agent's own utility so
// threshold queries do not re-enumerate the domain every turn.
package bidspace

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// #region types
// Entry is one bid with its own utility and canonical enumeration ordinal.
type Entry struct {
	Bid     domain.Bid
	Ordinal int
	Utility float64
}

// Index holds every bid of a domain sorted by ascending own utility; equal
// utilities keep enumeration order.
type Index struct {
	dom     *domain.Domain
	entries []Entry
}

// #endregion types

// #region build
// Build enumerates the space once and sorts it.
func Build(space profile.UtilitySpace) *Index {
	dom := space.Domain()
	entries := make([]Entry, 0, dom.Size())
	dom.All(func(ord int, b domain.Bid) bool {
		entries = append(entries, Entry{Bid: b, Ordinal: ord, Utility: space.Utility(b)})
		return true
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Utility < entries[j].Utility
	})
	return &Index{dom: dom, entries: entries}
}

// Domain returns the indexed domain.
func (ix *Index) Domain() *domain.Domain { return ix.dom }

// Len returns the number of bids indexed.
func (ix *Index) Len() int { return len(ix.entries) }

// #endregion build

// #region queries
// Above returns every bid whose own utility is strictly greater than target,
// ascending. The slice is shared; callers must not modify it.
func (ix *Index) Above(target float64) []Entry {
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Utility > target
	})
	return ix.entries[i:]
}

// Best returns the bid with the highest own utility; ties go to the earliest
// in enumeration order.
func (ix *Index) Best() Entry {
	if len(ix.entries) == 0 {
		return Entry{}
	}
	top := ix.entries[len(ix.entries)-1].Utility
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Utility >= top
	})
	return ix.entries[i]
}

// ClosestTo returns the bid whose own utility is nearest to u. On equal
// distance the earlier enumeration ordinal wins.
func (ix *Index) ClosestTo(u float64) Entry {
	if len(ix.entries) == 0 {
		return Entry{}
	}
	best := ix.entries[0]
	for _, e := range ix.entries[1:] {
		d, bd := math.Abs(u-e.Utility), math.Abs(u-best.Utility)
		if d < bd || (d == bd && e.Ordinal < best.Ordinal) {
			best = e
		}
	}
	return best
}

// InRange returns the bids with own utility in [u-lower, u+upper], ascending.
func (ix *Index) InRange(u, lower, upper float64) []Entry {
	lo := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Utility >= u-lower
	})
	hi := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Utility > u+upper
	})
	if lo >= hi {
		return nil
	}
	return ix.entries[lo:hi]
}

// MinMax returns the lowest and highest own utility in the space.
func (ix *Index) MinMax() (float64, float64) {
	if len(ix.entries) == 0 {
		return 0, 0
	}
	return ix.entries[0].Utility, ix.entries[len(ix.entries)-1].Utility
}

// MeanStdev returns the mean and population standard deviation of own utility.
func (ix *Index) MeanStdev() (float64, float64) {
	if len(ix.entries) == 0 {
		return 0, 0
	}
	var sum float64
	for _, e := range ix.entries {
		sum += e.Utility
	}
	mean := sum / float64(len(ix.entries))
	var sq float64
	for _, e := range ix.entries {
		sq += (e.Utility - mean) * (e.Utility - mean)
	}
	return mean, math.Sqrt(sq / float64(len(ix.entries)))
}

// Stats summarizes own utility over the whole space.
type Stats struct {
	Bids  int
	Min   float64
	Max   float64
	Mean  float64
	Stdev float64
}

// Stats returns the size and own-utility spread of the space.
func (ix *Index) Stats() Stats {
	st := Stats{Bids: len(ix.entries)}
	st.Min, st.Max = ix.MinMax()
	st.Mean, st.Stdev = ix.MeanStdev()
	return st
}

// #endregion queries
