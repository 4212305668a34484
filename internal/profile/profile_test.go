package profile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"gopkg.in/yaml.v3"
)

const holidayYAML = `
domain: holiday
reservation_value: 0.3
issues:
  - name: location
    weight: 0.6
    values:
      - {value: beach, score: 1.0}
      - {value: city, score: 0.5}
      - {value: mountain, score: 0.0}
  - name: duration
    weight: 0.4
    values:
      - {value: short, score: 0.25}
      - {value: long, score: 1.0}
`

func TestParseAndUtility(t *testing.T) {
	la, err := Parse([]byte(holidayYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b, err := la.Domain().NewBid(map[string]string{"location": "city", "duration": "long"})
	if err != nil {
		t.Fatalf("NewBid: %v", err)
	}
	// 0.6*0.5 + 0.4*1.0
	if got := la.Utility(b); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("expected 0.7, got %f", got)
	}
	if la.ReservationValue() != 0.3 {
		t.Fatalf("expected reservation 0.3, got %f", la.ReservationValue())
	}
}

func TestParseJSON(t *testing.T) {
	js := `{"domain":"d","issues":[{"name":"a","weight":1,"values":[{"value":"x","score":1},{"value":"y","score":0}]}]}`
	la, err := Parse([]byte(js))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if la.ReservationValue() != -1 {
		t.Fatalf("expected -1 reservation, got %f", la.ReservationValue())
	}
}

func TestUtilityNullAndForeignBid(t *testing.T) {
	la, _ := Parse([]byte(holidayYAML))
	if got := la.Utility(domain.Bid{}); got != 0 {
		t.Fatalf("expected 0 for null bid, got %f", got)
	}
	other, _ := Parse([]byte(holidayYAML))
	b, _ := other.Domain().BidAt([]int{1, 0})
	if got := la.Utility(b); got != 0 {
		t.Fatalf("expected 0 for foreign bid, got %f", got)
	}
}

func TestInvalidProfiles(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "weights do not sum to one",
			body: `{"issues":[{"name":"a","weight":0.5,"values":[{"value":"x","score":1}]}]}`,
			want: ErrInvalidWeights,
		},
		{
			name: "negative weight",
			body: `{"issues":[{"name":"a","weight":1.5,"values":[{"value":"x","score":1}]},{"name":"b","weight":-0.5,"values":[{"value":"x","score":1}]}]}`,
			want: ErrInvalidWeights,
		},
		{
			name: "score above one",
			body: `{"issues":[{"name":"a","weight":1,"values":[{"value":"x","score":1.2}]}]}`,
			want: ErrInvalidScore,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadAndToFileRoundTrip(t *testing.T) {
	la, err := Parse([]byte(holidayYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := yaml.Marshal(la.ToFile())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	la.Domain().All(func(_ int, b domain.Bid) bool {
		rb, err := back.Domain().NewBid(b.Values())
		if err != nil {
			t.Fatalf("NewBid: %v", err)
		}
		if math.Abs(la.Utility(b)-back.Utility(rb)) > 1e-12 {
			t.Fatalf("utility mismatch for %s", b)
		}
		return true
	})
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
