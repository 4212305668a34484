package domain

import (
	"errors"
	"testing"
)

func testDomain(t *testing.T) *Domain {
	t.Helper()
	d, err := New("holiday", map[string][]string{
		"location": {"beach", "city", "mountain"},
		"duration": {"short", "long"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNewSortsIssues(t *testing.T) {
	d := testDomain(t)
	if d.NumIssues() != 2 {
		t.Fatalf("expected 2 issues, got %d", d.NumIssues())
	}
	if d.Issue(0).Name != "duration" || d.Issue(1).Name != "location" {
		t.Fatalf("unexpected order: %s, %s", d.Issue(0).Name, d.Issue(1).Name)
	}
	if d.Size() != 6 {
		t.Fatalf("expected size 6, got %d", d.Size())
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New("x", nil); !errors.Is(err, ErrEmptyDomain) {
		t.Fatalf("expected ErrEmptyDomain, got %v", err)
	}
	if _, err := New("x", map[string][]string{"a": {}}); err == nil {
		t.Fatal("expected error for issue without values")
	}
}

func TestNewBidEquality(t *testing.T) {
	d := testDomain(t)
	a, err := d.NewBid(map[string]string{"location": "city", "duration": "long"})
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	b, _ := d.BidAt([]int{1, 1})
	if !a.Equal(b) {
		t.Fatalf("expected %s == %s", a, b)
	}
	c, _ := d.BidAt([]int{0, 1})
	if a.Equal(c) {
		t.Fatal("expected different bids")
	}
	if v, ok := a.Value("location"); !ok || v != "city" {
		t.Fatalf("unexpected location %q", v)
	}
}

func TestNewBidErrors(t *testing.T) {
	d := testDomain(t)
	tests := []struct {
		name string
		in   map[string]string
		want error
	}{
		{"unknown issue", map[string]string{"location": "city", "duration": "long", "food": "x"}, ErrUnknownIssue},
		{"unknown value", map[string]string{"location": "moon", "duration": "long"}, ErrUnknownValue},
		{"incomplete", map[string]string{"location": "city"}, ErrIncompleteBid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.NewBid(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestZeroBid(t *testing.T) {
	var b Bid
	if !b.IsZero() {
		t.Fatal("zero bid should be null")
	}
	if b.Choice(0) != -1 {
		t.Fatal("null bid choice should be -1")
	}
	if _, ok := b.Value("location"); ok {
		t.Fatal("null bid has no values")
	}
	if b.String() != "<none>" {
		t.Fatalf("unexpected string %q", b.String())
	}
}

func TestAllEnumeratesInOrder(t *testing.T) {
	d := testDomain(t)
	var keys []string
	d.All(func(ord int, b Bid) bool {
		if ord != len(keys) {
			t.Fatalf("ordinal %d out of sequence", ord)
		}
		keys = append(keys, b.String())
		return true
	})
	if len(keys) != 6 {
		t.Fatalf("expected 6 bids, got %d", len(keys))
	}
	if keys[0] != "duration=short;location=beach" || keys[1] != "duration=short;location=city" {
		t.Fatalf("unexpected order: %v", keys[:2])
	}

	count := 0
	d.All(func(int, Bid) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Fatalf("expected early stop after 2, got %d", count)
	}
}

func collidingDomain(t *testing.T) *Domain {
	t.Helper()
	d, err := New("separators", map[string][]string{
		"a": {"1;b=2", "1"},
		"b": {"3", "2;b=3"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestBidIdentityIgnoresSeparatorsInValues(t *testing.T) {
	d := collidingDomain(t)
	x, err := d.NewBid(map[string]string{"a": "1;b=2", "b": "3"})
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	y, err := d.NewBid(map[string]string{"a": "1", "b": "2;b=3"})
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	if x.String() != y.String() {
		t.Fatalf("expected both bids to render alike, got %q and %q", x.String(), y.String())
	}
	if x.Equal(y) {
		t.Fatal("bids with different values must not be equal")
	}
	if x.Key() == y.Key() {
		t.Fatalf("bids share key %q", x.Key())
	}

	again, _ := d.BidAt([]int{0, 0})
	if !x.Equal(again) || x.Key() != again.Key() {
		t.Fatal("same values must give an equal bid")
	}

	other := collidingDomain(t)
	foreign, _ := other.BidAt([]int{0, 0})
	if x.Equal(foreign) {
		t.Fatal("bids of different domains must not be equal")
	}
}
