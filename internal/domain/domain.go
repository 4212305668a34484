package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// #region domain
// Domain is an immutable mapping from issue name to its permissible values.
// Issues are kept in name order; values keep the order they were declared in.
type Domain struct {
	name    string
	issues  []Issue
	byName  map[string]int
	valueAt []map[string]int
}

// New builds a domain from issue name to value list. Duplicate values are dropped.
func New(name string, issues map[string][]string) (*Domain, error) {
	if len(issues) == 0 {
		return nil, ErrEmptyDomain
	}
	names := make([]string, 0, len(issues))
	for n := range issues {
		names = append(names, n)
	}
	sort.Strings(names)

	d := &Domain{
		name:    name,
		issues:  make([]Issue, 0, len(names)),
		byName:  make(map[string]int, len(names)),
		valueAt: make([]map[string]int, 0, len(names)),
	}
	for i, n := range names {
		idx := make(map[string]int)
		var vals []string
		for _, v := range issues[n] {
			if _, dup := idx[v]; dup {
				continue
			}
			idx[v] = len(vals)
			vals = append(vals, v)
		}
		if len(vals) == 0 {
			return nil, fmt.Errorf("issue %q has no values", n)
		}
		d.issues = append(d.issues, Issue{Name: n, Values: vals})
		d.byName[n] = i
		d.valueAt = append(d.valueAt, idx)
	}
	return d, nil
}

// Name returns the domain name.
func (d *Domain) Name() string { return d.name }

// NumIssues returns the number of issues.
func (d *Domain) NumIssues() int { return len(d.issues) }

// Issues returns the issues in canonical order. Callers must not mutate it.
func (d *Domain) Issues() []Issue { return d.issues }

// Issue returns the issue at position i.
func (d *Domain) Issue(i int) Issue { return d.issues[i] }

// IssueIndex returns the position of the named issue.
func (d *Domain) IssueIndex(name string) (int, bool) {
	i, ok := d.byName[name]
	return i, ok
}

// Ref resolves an (issue, value) pair.
func (d *Domain) Ref(issue, value string) (ValueRef, error) {
	i, ok := d.byName[issue]
	if !ok {
		return ValueRef{}, fmt.Errorf("%w: %s", ErrUnknownIssue, issue)
	}
	v, ok := d.valueAt[i][value]
	if !ok {
		return ValueRef{}, fmt.Errorf("%w: %s=%s", ErrUnknownValue, issue, value)
	}
	return ValueRef{Issue: i, Value: v}, nil
}

// Size returns the number of distinct bids in the domain.
func (d *Domain) Size() int {
	n := 1
	for _, is := range d.issues {
		n *= len(is.Values)
	}
	return n
}

// #endregion domain

// #region bid-construction
// NewBid builds a bid from issue name to value. Every issue must be assigned.
func (d *Domain) NewBid(values map[string]string) (Bid, error) {
	choice := make([]int, len(d.issues))
	for i := range choice {
		choice[i] = -1
	}
	for issue, value := range values {
		ref, err := d.Ref(issue, value)
		if err != nil {
			return Bid{}, err
		}
		choice[ref.Issue] = ref.Value
	}
	for i, c := range choice {
		if c < 0 {
			return Bid{}, fmt.Errorf("%w: missing %s", ErrIncompleteBid, d.issues[i].Name)
		}
	}
	return d.bidFromChoice(choice), nil
}

// BidAt builds the bid with the given value position per issue.
func (d *Domain) BidAt(choice []int) (Bid, error) {
	if len(choice) != len(d.issues) {
		return Bid{}, fmt.Errorf("%w: got %d of %d", ErrIncompleteBid, len(choice), len(d.issues))
	}
	for i, c := range choice {
		if c < 0 || c >= len(d.issues[i].Values) {
			return Bid{}, fmt.Errorf("%w: position %d for %s", ErrUnknownValue, c, d.issues[i].Name)
		}
	}
	cp := make([]int, len(choice))
	copy(cp, choice)
	return d.bidFromChoice(cp), nil
}

func (d *Domain) bidFromChoice(choice []int) Bid {
	var sb strings.Builder
	for i, c := range choice {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(c))
	}
	return Bid{dom: d, choice: choice, key: sb.String()}
}

// #endregion bid-construction

// #region enumeration
// All enumerates the full bid space in canonical order: the last issue varies
// fastest. The callback returns false to stop early.
func (d *Domain) All(fn func(ordinal int, b Bid) bool) {
	choice := make([]int, len(d.issues))
	for ord := 0; ; ord++ {
		cp := make([]int, len(choice))
		copy(cp, choice)
		if !fn(ord, d.bidFromChoice(cp)) {
			return
		}
		i := len(choice) - 1
		for ; i >= 0; i-- {
			choice[i]++
			if choice[i] < len(d.issues[i].Values) {
				break
			}
			choice[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// #endregion enumeration
