package profile

import (
	"fmt"
	"os"

	"github.com/danielpatrickdp/bilateral-agent/go-agent/internal/domain"
	"gopkg.in/yaml.v3"
)

// #region file-types
// File is the on-disk profile layout. JSON files parse too.
type File struct {
	Domain           string      `yaml:"domain" json:"domain"`
	ReservationValue *float64    `yaml:"reservation_value,omitempty" json:"reservation_value,omitempty"`
	Issues           []IssueFile `yaml:"issues" json:"issues"`
}

// IssueFile declares one issue, its weight and its value scores.
type IssueFile struct {
	Name   string      `yaml:"name" json:"name"`
	Weight float64     `yaml:"weight" json:"weight"`
	Values []ValueFile `yaml:"values" json:"values"`
}

// ValueFile is one value and its score in [0,1].
type ValueFile struct {
	Value string  `yaml:"value" json:"value"`
	Score float64 `yaml:"score" json:"score"`
}

// #endregion file-types

// #region loader
// Load reads and builds a profile from a YAML or JSON file.
func Load(path string) (*LinearAdditive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	la, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return la, nil
}

// Parse builds a profile from YAML or JSON bytes.
func Parse(data []byte) (*LinearAdditive, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return f.Build()
}

// Build turns the file layout into a domain and utility space.
func (f File) Build() (*LinearAdditive, error) {
	issues := make(map[string][]string, len(f.Issues))
	weights := make(map[string]float64, len(f.Issues))
	scores := make(map[string]map[string]float64, len(f.Issues))
	for _, is := range f.Issues {
		if _, dup := issues[is.Name]; dup {
			return nil, fmt.Errorf("duplicate issue %q", is.Name)
		}
		vals := make([]string, 0, len(is.Values))
		sc := make(map[string]float64, len(is.Values))
		for _, v := range is.Values {
			vals = append(vals, v.Value)
			sc[v.Value] = v.Score
		}
		issues[is.Name] = vals
		weights[is.Name] = is.Weight
		scores[is.Name] = sc
	}
	dom, err := domain.New(f.Domain, issues)
	if err != nil {
		return nil, err
	}
	reservation := -1.0
	if f.ReservationValue != nil {
		reservation = *f.ReservationValue
	}
	return NewLinearAdditive(dom, weights, scores, reservation)
}

// #endregion loader

// #region snapshot
// ToFile renders a profile back into its file layout.
func (la *LinearAdditive) ToFile() File {
	f := File{Domain: la.dom.Name()}
	if la.reservation >= 0 {
		rv := la.reservation
		f.ReservationValue = &rv
	}
	for i, is := range la.dom.Issues() {
		issue := IssueFile{Name: is.Name, Weight: la.weights[i]}
		for j, v := range is.Values {
			issue.Values = append(issue.Values, ValueFile{Value: v, Score: la.scores[i][j]})
		}
		f.Issues = append(f.Issues, issue)
	}
	return f
}

// #endregion snapshot
