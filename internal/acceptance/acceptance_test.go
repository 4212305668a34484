package acceptance

import (
	"testing"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/profile"
)

// helper: one issue whose value names are their own utility.
func testStrategy(t *testing.T) (*Strategy, *domain.Domain) {
	t.Helper()
	vals := []string{"0.0", "0.5", "0.7", "0.9", "0.95", "1.0"}
	dom, err := domain.New("single", map[string][]string{"u": vals})
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	la, err := profile.NewLinearAdditive(dom, map[string]float64{"u": 1},
		map[string]map[string]float64{"u": {"0.0": 0, "0.5": 0.5, "0.7": 0.7, "0.9": 0.9, "0.95": 0.95, "1.0": 1}}, -1)
	if err != nil {
		t.Fatalf("NewLinearAdditive: %v", err)
	}
	return NewStrategy(la, DefaultConfig()), dom
}

func bid(t *testing.T, d *domain.Domain, u string) domain.Bid {
	t.Helper()
	b, err := d.NewBid(map[string]string{"u": u})
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	return b
}

func TestIsAccepted(t *testing.T) {
	s, d := testStrategy(t)
	tests := []struct {
		name      string
		received  string
		generated string
		want      bool
		rule      Rule
	}{
		{"high offer beats better counter", "0.95", "1.0", true, RuleThreshold},
		{"exactly 0.9 is not the threshold", "0.9", "1.0", false, RuleCounter},
		{"equal utilities accept", "0.7", "0.7", true, RuleNext},
		{"received better than counter", "0.7", "0.5", true, RuleNext},
		{"counter better", "0.5", "0.7", false, RuleCounter},
		{"zero offer against zero counter", "0.0", "0.0", true, RuleNext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g := bid(t, d, tt.received), bid(t, d, tt.generated)
			dec := s.Evaluate(r, g)
			if dec.Accept != tt.want || dec.Rule != tt.rule {
				t.Fatalf("got accept=%v rule=%s, want %v %s", dec.Accept, dec.Rule, tt.want, tt.rule)
			}
			if s.IsAccepted(r, g) != tt.want {
				t.Fatal("IsAccepted disagrees with Evaluate")
			}
		})
	}
}

func TestNullReceivedNeverAccepted(t *testing.T) {
	s, d := testStrategy(t)
	for _, g := range []domain.Bid{{}, bid(t, d, "0.0"), bid(t, d, "1.0")} {
		if s.IsAccepted(domain.Bid{}, g) {
			t.Fatalf("null offer accepted against %s", g)
		}
	}
	if dec := s.Evaluate(domain.Bid{}, domain.Bid{}); dec.Rule != RuleNoOffer {
		t.Fatalf("expected no_offer rule, got %s", dec.Rule)
	}
}

func TestNullGeneratedAcceptsAnyOffer(t *testing.T) {
	s, d := testStrategy(t)
	// A missing counter scores 0, so any offer is at least as good.
	if !s.IsAccepted(bid(t, d, "0.0"), domain.Bid{}) {
		t.Fatal("expected accept when there is nothing to counter with")
	}
}
