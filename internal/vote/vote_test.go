package vote

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nvandessel/voteanalysis/internal/models"
)

// fixedPicker always returns the same index and records how often it was asked.
type fixedPicker struct {
	index int
	calls int
	lastN int
}

func (p *fixedPicker) IntN(n int) int {
	p.calls++
	p.lastN = n
	return p.index % n
}

func results(answers ...float64) []models.IterationResult {
	out := make([]models.IterationResult, len(answers))
	for i, a := range answers {
		out[i] = models.IterationResult{
			VersionName:        string(rune('a' + i)),
			VersionCoordinates: []float64{float64(i)},
			Answer:             a,
		}
	}
	return out
}

func at(answer float64, coords ...float64) models.IterationResult {
	return models.IterationResult{Answer: answer, VersionCoordinates: coords}
}

func TestAverageMedian(t *testing.T) {
	tests := []struct {
		name       string
		answers    []float64
		wantAvg    float64
		wantMedian float64
	}{
		{"odd count", []float64{10, 20, 30}, 20, 20},
		{"even count", []float64{10, 20}, 15, 15},
		{"unsorted", []float64{30, 10, 20, 100}, 40, 25},
		{"single", []float64{7}, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := results(tt.answers...)
			avg, err := Average(in)
			if err != nil {
				t.Fatalf("Average() error = %v", err)
			}
			if avg != tt.wantAvg {
				t.Errorf("Average() = %v, want %v", avg, tt.wantAvg)
			}
			med, err := Median(in)
			if err != nil {
				t.Fatalf("Median() error = %v", err)
			}
			if med != tt.wantMedian {
				t.Errorf("Median() = %v, want %v", med, tt.wantMedian)
			}
		})
	}
}

func TestMedianDoesNotMutate(t *testing.T) {
	in := results(30, 10, 20)
	if _, err := Median(in); err != nil {
		t.Fatalf("Median() error = %v", err)
	}
	if got := []float64{in[0].Answer, in[1].Answer, in[2].Answer}; !reflect.DeepEqual(got, []float64{30, 10, 20}) {
		t.Errorf("input reordered to %v", got)
	}
}

func TestEmptyInput(t *testing.T) {
	p := &fixedPicker{}
	funcs := map[string]Func{
		"average":  Average,
		"median":   Median,
		"classic":  func(r []models.IterationResult) (float64, error) { return ClassicConsensus(r, p) },
		"modified": func(r []models.IterationResult) (float64, error) { return DiversityAwareConsensus(r, p) },
	}
	for name, fn := range funcs {
		t.Run(name, func(t *testing.T) {
			_, err := fn(nil)
			if !errors.Is(err, models.ErrEmptyInput) {
				t.Errorf("error = %v, want ErrEmptyInput", err)
			}
		})
	}
	if _, err := Classes(nil); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("Classes(nil) error = %v, want ErrEmptyInput", err)
	}
}

func TestClasses(t *testing.T) {
	classes, err := Classes(results(7, 5, 7, 9, 5, 7))
	if err != nil {
		t.Fatalf("Classes() error = %v", err)
	}
	var got [][2]float64
	for _, c := range classes {
		got = append(got, [2]float64{c.Answer, float64(c.Size())})
	}
	want := [][2]float64{{7, 3}, {5, 2}, {9, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("classes = %v, want %v", got, want)
	}
}

func TestClassicConsensus(t *testing.T) {
	tests := []struct {
		name      string
		answers   []float64
		pick      int
		want      float64
		wantCalls int
	}{
		{"clear majority", []float64{5, 5, 7}, 0, 5, 0},
		{"majority seen late", []float64{1, 2, 3, 3}, 0, 3, 0},
		{"tie takes picked class", []float64{4, 8}, 1, 8, 1},
		{"tie first class", []float64{4, 8, 8, 4}, 0, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fixedPicker{index: tt.pick}
			got, err := ClassicConsensus(results(tt.answers...), p)
			if err != nil {
				t.Fatalf("ClassicConsensus() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassicConsensus() = %v, want %v", got, tt.want)
			}
			if p.calls != tt.wantCalls {
				t.Errorf("picker called %d times, want %d", p.calls, tt.wantCalls)
			}
		})
	}
}

func TestDiversityAwareConsensus(t *testing.T) {
	tests := []struct {
		name      string
		in        []models.IterationResult
		pick      int
		want      float64
		wantCalls int
	}{
		{
			name: "larger class wins regardless of diversity",
			in:   []models.IterationResult{at(1, 0), at(1, 0.01), at(1, 0.02), at(2, 0), at(2, 9)},
			want: 1,
		},
		{
			name: "equal size, more diverse class wins",
			in:   []models.IterationResult{at(10, 0), at(10, 0.1), at(20, 0), at(20, 0.9)},
			want: 20,
		},
		{
			name: "more diverse class seen first still wins",
			in:   []models.IterationResult{at(20, 0), at(20, 0.9), at(10, 0), at(10, 0.1)},
			want: 20,
		},
		{
			name:      "size and diversity tied falls back to picker",
			in:        []models.IterationResult{at(10, 0), at(10, 0.5), at(20, 1), at(20, 1.5)},
			pick:      1,
			want:      20,
			wantCalls: 1,
		},
		{
			name:      "singletons tie at zero diversity",
			in:        []models.IterationResult{at(3, 0), at(4, 5), at(5, 9)},
			pick:      2,
			want:      5,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fixedPicker{index: tt.pick}
			got, err := DiversityAwareConsensus(tt.in, p)
			if err != nil {
				t.Fatalf("DiversityAwareConsensus() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DiversityAwareConsensus() = %v, want %v", got, tt.want)
			}
			if p.calls != tt.wantCalls {
				t.Errorf("picker called %d times, want %d", p.calls, tt.wantCalls)
			}
		})
	}
}

func TestDiversityAwareConsensusCoordinateMismatch(t *testing.T) {
	in := []models.IterationResult{at(1, 0, 0), at(1, 1)}
	if _, err := DiversityAwareConsensus(in, nil); !errors.Is(err, models.ErrCoordinateMismatch) {
		t.Errorf("error = %v, want ErrCoordinateMismatch", err)
	}
}

func TestClassDiversity(t *testing.T) {
	c := Class{Answer: 1, Members: []models.IterationResult{at(1, 0, 0), at(1, 3, 4), at(1, 1, 1)}}
	d, err := c.Diversity()
	if err != nil {
		t.Fatalf("Diversity() error = %v", err)
	}
	if d != 5 {
		t.Errorf("Diversity() = %v, want 5", d)
	}

	single := Class{Answer: 1, Members: []models.IterationResult{at(1, 3, 4)}}
	if d, _ := single.Diversity(); d != 0 {
		t.Errorf("single member Diversity() = %v, want 0", d)
	}
}
