// Package domain holds the negotiation domain and bid value objects.
package domain

import "errors"

// #region errors
var (
	ErrUnknownIssue  = errors.New("unknown issue")
	ErrUnknownValue  = errors.New("unknown value")
	ErrIncompleteBid = errors.New("bid does not assign every issue")
	ErrEmptyDomain   = errors.New("domain has no issues")
)

// #endregion errors

// #region value-ref
// ValueRef addresses one value of one issue by position in the domain.
// Positions are fixed for the lifetime of a Domain, so refs order and hash
// the same way everywhere.
type ValueRef struct {
	Issue int
	Value int
}

// #endregion value-ref

// #region issue
// Issue is a negotiable attribute with a fixed, ordered set of discrete values.
type Issue struct {
	Name   string
	Values []string
}

// #endregion issue
