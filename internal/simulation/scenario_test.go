package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/models"
)

const sortingScenario = `
name: sorting
round_to: 1
min_out_val: 10
max_out_val: 20
versions:
  - name: quick
    const_coordinates: [1, 0.54]
    dynamic_intervals: [{min: 0, max: 10}]
    reliability: 0.95
  - name: merge
    const_coordinates: [1, 0.7]
    dynamic_intervals: [{min: 0, max: 10}]
    reliability_interval: {min: 0.8, max: 0.9}
`

func TestLoadScenarioBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sorting.yaml")
	if err := os.WriteFile(path, []byte(sortingScenario), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario() error = %v", err)
	}
	src := &scripted{t: t, floats: []float64{
		0.25, // quick dynamic coordinate -> 2.5
		0,    // merge reliability -> 0.8
		0.75, // merge dynamic coordinate -> 7.5
	}}

	m, err := s.Build(src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	src.drained(t)

	if m.Name != "sorting" || m.RoundTo != 1 || m.MinOutVal != 10 || m.MaxOutVal != 20 {
		t.Errorf("module = %v", m)
	}
	if m.ConstCount != 2 || m.DynamicCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", m.ConstCount, m.DynamicCount)
	}
	if len(m.Versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(m.Versions))
	}

	quick, merge := m.Versions[0], m.Versions[1]
	if got := quick.Coordinates(); !reflect.DeepEqual(got, []float64{1, 0.5, 2.5}) {
		t.Errorf("quick coordinates = %v, want [1 0.5 2.5]", got)
	}
	if quick.Reliability != 0.95 {
		t.Errorf("quick reliability = %v, want 0.95", quick.Reliability)
	}
	if got := merge.Coordinates(); !reflect.DeepEqual(got, []float64{1, 0.7, 7.5}) {
		t.Errorf("merge coordinates = %v, want [1 0.7 7.5]", got)
	}
	if merge.Reliability != 0.8 {
		t.Errorf("merge reliability = %v, want 0.8", merge.Reliability)
	}
	if got := m.DynamicIntervals["merge"]; !reflect.DeepEqual(got, []models.Interval{{Min: 0, Max: 10}}) {
		t.Errorf("merge intervals = %v", got)
	}
}

func TestScenarioDefaults(t *testing.T) {
	s, err := ParseScenario([]byte("name: bare\nversions: []\n"))
	if err != nil {
		t.Fatalf("ParseScenario() error = %v", err)
	}
	m, err := s.Build(models.NewRandomSource(1))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m.RoundTo != constants.DefaultRoundTo {
		t.Errorf("RoundTo = %d, want %d", m.RoundTo, constants.DefaultRoundTo)
	}
	if m.MinOutVal != constants.DefaultMinOutVal || m.MaxOutVal != constants.DefaultMaxOutVal {
		t.Errorf("range = [%v, %v], want defaults", m.MinOutVal, m.MaxOutVal)
	}
}

func TestScenarioBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "missing reliability",
			doc:  "name: x\nversions:\n  - name: a\n    const_coordinates: [1]\n",
			want: models.ErrInvalidInput,
		},
		{
			name: "reliability out of range",
			doc:  "name: x\nversions:\n  - name: a\n    const_coordinates: [1]\n    reliability: 1.5\n",
			want: models.ErrReliabilityRange,
		},
		{
			name: "coordinate count mismatch",
			doc: "name: x\nversions:\n" +
				"  - name: a\n    const_coordinates: [1, 2]\n    reliability: 0.9\n" +
				"  - name: b\n    const_coordinates: [1]\n    reliability: 0.9\n",
			want: models.ErrCoordinateMismatch,
		},
		{
			name: "inverted range",
			doc:  "name: x\nmin_out_val: 5\nmax_out_val: 1\nversions: []\n",
			want: models.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(tt.doc))
			if err != nil {
				t.Fatalf("ParseScenario() error = %v", err)
			}
			if _, err := s.Build(models.NewRandomSource(1)); !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseScenarioInvalidYAML(t *testing.T) {
	if _, err := ParseScenario([]byte("name: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}
