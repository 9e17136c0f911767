package prompt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nvandessel/voteanalysis/internal/models"
	"github.com/nvandessel/voteanalysis/internal/simulation"
)

// Answer keys of VersionQuestions.
const (
	KeyName        = "name"
	KeyReliability = "reliability"
	KeyConst       = "const_coordinates"
	KeyIntervals   = "dynamic_intervals"
)

// VersionQuestions returns the questions needed to add a version to m. The
// constant coordinates are asked only for the first version; later versions
// reuse the coordinates of the first one, since they are shared.
func VersionQuestions(m *models.Module) []Question {
	qs := []Question{
		{Key: KeyName, Prompt: "Version name", Validate: required},
		{
			Key:      KeyReliability,
			Prompt:   "Reliability (0..1, or min-max to draw one)",
			Validate: func(s string) error { _, _, err := ParseReliability(s); return err },
		},
	}
	if len(m.Versions) == 0 {
		qs = append(qs,
			Question{
				Key:      KeyConst,
				Prompt:   "Constant diversity coordinates (comma separated)",
				Validate: func(s string) error { _, err := ParseFloats(s); return err },
			},
			Question{
				Key:      KeyIntervals,
				Prompt:   "Dynamic diversity intervals (min-max, comma separated)",
				Validate: func(s string) error { _, err := ParseIntervals(s); return err },
			},
		)
		return qs
	}
	if m.DynamicCount > 0 {
		n := m.DynamicCount
		qs = append(qs, Question{
			Key:    KeyIntervals,
			Prompt: fmt.Sprintf("Dynamic diversity intervals (%d, min-max, comma separated)", n),
			Validate: func(s string) error {
				ivs, err := ParseIntervals(s)
				if err != nil {
					return err
				}
				if len(ivs) != n {
					return fmt.Errorf("need %d intervals, got %d", n, len(ivs))
				}
				return nil
			},
		})
	}
	return qs
}

// VersionSpec turns answers to VersionQuestions into a version spec for m.
func VersionSpec(m *models.Module, answers map[string]string) (simulation.VersionSpec, error) {
	spec := simulation.VersionSpec{Name: answers[KeyName]}
	if err := required(spec.Name); err != nil {
		return spec, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	rel, iv, err := ParseReliability(answers[KeyReliability])
	if err != nil {
		return spec, err
	}
	spec.Reliability, spec.ReliabilityInterval = rel, iv

	if len(m.Versions) > 0 {
		spec.ConstCoordinates = append([]float64(nil), m.Versions[0].ConstCoordinates...)
	} else if spec.ConstCoordinates, err = ParseFloats(answers[KeyConst]); err != nil {
		return spec, err
	}
	if spec.DynamicIntervals, err = ParseIntervals(answers[KeyIntervals]); err != nil {
		return spec, err
	}
	return spec, nil
}

// AskVersion prompts for one version of m.
func AskVersion(m *models.Module, in io.Reader, out io.Writer) (simulation.VersionSpec, error) {
	answers, err := Ask(VersionQuestions(m), in, out)
	if err != nil {
		return simulation.VersionSpec{}, err
	}
	return VersionSpec(m, answers)
}

// ParseFloats parses a comma or space separated list of numbers. An empty
// string yields an empty list.
func ParseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", models.ErrInvalidInput, f)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseInterval parses "min-max" or "min:max". A negative max needs the
// colon form.
func ParseInterval(s string) (models.Interval, error) {
	s = strings.TrimSpace(s)
	sep := strings.Index(s, ":")
	if sep < 0 {
		sep = strings.Index(strings.TrimPrefix(s, "-"), "-")
		if sep >= 0 && strings.HasPrefix(s, "-") {
			sep++
		}
	}
	if sep <= 0 {
		return models.Interval{}, fmt.Errorf("%w: interval %q must look like min-max", models.ErrInvalidInput, s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(s[:sep]), 64)
	if err != nil {
		return models.Interval{}, fmt.Errorf("%w: interval %q: bad min", models.ErrInvalidInput, s)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(s[sep+1:]), 64)
	if err != nil {
		return models.Interval{}, fmt.Errorf("%w: interval %q: bad max", models.ErrInvalidInput, s)
	}
	if lo > hi {
		return models.Interval{}, fmt.Errorf("%w: interval %q: min exceeds max", models.ErrInvalidInput, s)
	}
	return models.Interval{Min: lo, Max: hi}, nil
}

// ParseIntervals parses a comma separated list of intervals.
func ParseIntervals(s string) ([]models.Interval, error) {
	var out []models.Interval
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		iv, err := ParseInterval(part)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

// ParseReliability accepts a fixed reliability or an interval to draw one
// from. Exactly one of the results is non-nil on success.
func ParseReliability(s string) (*float64, *models.Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, fmt.Errorf("%w: reliability is required", models.ErrInvalidInput)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 0 || v > 1 {
			return nil, nil, fmt.Errorf("%w (got %v)", models.ErrReliabilityRange, v)
		}
		return &v, nil, nil
	}
	iv, err := ParseInterval(s)
	if err != nil {
		return nil, nil, err
	}
	if iv.Min < 0 || iv.Max > 1 {
		return nil, nil, fmt.Errorf("%w (got %v-%v)", models.ErrReliabilityRange, iv.Min, iv.Max)
	}
	return nil, &iv, nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("a value is required")
	}
	return nil
}
