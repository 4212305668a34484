package clock

import (
	"testing"
	"time"
)

func TestDeadline(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	d := NewDeadlineAt(start, 10*time.Second, func() time.Time { return now })

	if got := d.NormalizedTime(); got != 0 {
		t.Fatalf("expected 0 at start, got %f", got)
	}
	now = start.Add(2500 * time.Millisecond)
	if got := d.NormalizedTime(); got != 0.25 {
		t.Fatalf("expected 0.25, got %f", got)
	}
	if got := d.Remaining(); got != 7500*time.Millisecond {
		t.Fatalf("expected 7.5s remaining, got %v", got)
	}
	now = start.Add(time.Minute)
	if got := d.NormalizedTime(); got != 1 {
		t.Fatalf("expected clamp to 1, got %f", got)
	}
	if d.Remaining() != 0 {
		t.Fatal("expected no time remaining")
	}
}

func TestDeadlineZeroDuration(t *testing.T) {
	d := NewDeadlineAt(time.Now(), 0, time.Now)
	if d.NormalizedTime() != 1 {
		t.Fatal("zero duration should be expired")
	}
}

func TestRounds(t *testing.T) {
	r := NewRounds(4)
	if r.NormalizedTime() != 0 {
		t.Fatal("expected 0 before any tick")
	}
	r.Tick()
	if r.NormalizedTime() != 0.25 {
		t.Fatalf("expected 0.25, got %f", r.NormalizedTime())
	}
	for i := 0; i < 10; i++ {
		r.Tick()
	}
	if !r.Done() || r.NormalizedTime() != 1 {
		t.Fatalf("expected done at 1, got %f", r.NormalizedTime())
	}
}

func TestFixedClamps(t *testing.T) {
	if Fixed(-1).NormalizedTime() != 0 || Fixed(2).NormalizedTime() != 1 || Fixed(0.4).NormalizedTime() != 0.4 {
		t.Fatal("fixed clock should clamp to [0,1]")
	}
}

func TestManualNeverMovesBack(t *testing.T) {
	m := NewManual()
	if m.NormalizedTime() != 0 {
		t.Fatal("expected 0 at start")
	}
	m.Set(0.5)
	m.Set(0.3)
	if m.NormalizedTime() != 0.5 {
		t.Fatalf("expected 0.5, got %f", m.NormalizedTime())
	}
	m.Set(7)
	if m.NormalizedTime() != 1 {
		t.Fatalf("expected clamp to 1, got %f", m.NormalizedTime())
	}
}
