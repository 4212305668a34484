package domain

import (
	"slices"
	"strings"
)

// #region bid
// Bid assigns exactly one value to every issue of a domain. The zero Bid is
// the null bid: it belongs to no domain and every lookup on it is empty.
type Bid struct {
	dom    *Domain
	choice []int
	key    string
}

// IsZero reports whether b is the null bid.
func (b Bid) IsZero() bool { return b.dom == nil }

// Domain returns the owning domain, nil for the null bid.
func (b Bid) Domain() *Domain { return b.dom }

// Key is the value positions joined by commas. It identifies a bid within
// its domain whatever the value names contain.
func (b Bid) Key() string { return b.key }

// Equal reports whether both bids belong to the same domain and assign the
// same values.
func (b Bid) Equal(o Bid) bool { return b.dom == o.dom && slices.Equal(b.choice, o.choice) }

// Choice returns the value position chosen for issue i, or -1.
func (b Bid) Choice(i int) int {
	if b.dom == nil || i < 0 || i >= len(b.choice) {
		return -1
	}
	return b.choice[i]
}

// Ref returns the (issue, value) ref chosen for issue i.
func (b Bid) Ref(i int) ValueRef { return ValueRef{Issue: i, Value: b.Choice(i)} }

// Value returns the value assigned to the named issue.
func (b Bid) Value(issue string) (string, bool) {
	if b.dom == nil {
		return "", false
	}
	i, ok := b.dom.byName[issue]
	if !ok {
		return "", false
	}
	return b.dom.issues[i].Values[b.choice[i]], true
}

// Values returns a fresh issue-to-value map.
func (b Bid) Values() map[string]string {
	if b.dom == nil {
		return nil
	}
	out := make(map[string]string, len(b.choice))
	for i, c := range b.choice {
		out[b.dom.issues[i].Name] = b.dom.issues[i].Values[c]
	}
	return out
}

// String implements fmt.Stringer.
func (b Bid) String() string {
	if b.dom == nil {
		return "<none>"
	}
	var sb strings.Builder
	for i, c := range b.choice {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(b.dom.issues[i].Name)
		sb.WriteByte('=')
		sb.WriteString(b.dom.issues[i].Values[c])
	}
	return sb.String()
}

// #endregion bid
