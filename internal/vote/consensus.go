package vote

import (
	"fmt"

	"github.com/nvandessel/voteanalysis/internal/models"
)

// Class is a set of results that reported exactly the same answer.
type Class struct {
	Answer  float64                  `json:"answer"`
	Members []models.IterationResult `json:"members"`
}

// Size returns the number of members.
func (c Class) Size() int {
	return len(c.Members)
}

// Diversity returns the largest coordinate distance between two members,
// or 0 for a single member.
func (c Class) Diversity() (float64, error) {
	var best float64
	for j := 0; j < len(c.Members); j++ {
		for k := j + 1; k < len(c.Members); k++ {
			d, err := models.EuclideanDistance(c.Members[j].VersionCoordinates, c.Members[k].VersionCoordinates)
			if err != nil {
				return 0, fmt.Errorf("class %v: %s/%s: %w", c.Answer, c.Members[j].VersionName, c.Members[k].VersionName, err)
			}
			if d > best {
				best = d
			}
		}
	}
	return best, nil
}

// Classes partitions results by exact answer equality. Classes keep the order
// in which their answer was first seen.
func Classes(results []models.IterationResult) ([]Class, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("consensus: %w", models.ErrEmptyInput)
	}
	var classes []Class
	index := make(map[float64]int)
	for _, r := range results {
		if i, ok := index[r.Answer]; ok {
			classes[i].Members = append(classes[i].Members, r)
			continue
		}
		index[r.Answer] = len(classes)
		classes = append(classes, Class{Answer: r.Answer, Members: []models.IterationResult{r}})
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("consensus: %w", models.ErrEmptyInput)
	}
	return classes, nil
}

// ClassicConsensus returns the answer of the largest class. Classes tied on
// size are settled by p; a nil p takes the first of them.
func ClassicConsensus(results []models.IterationResult, p Picker) (float64, error) {
	classes, err := Classes(results)
	if err != nil {
		return 0, err
	}

	tied := []Class{classes[0]}
	for _, c := range classes[1:] {
		switch {
		case c.Size() > tied[0].Size():
			tied = []Class{c}
		case c.Size() == tied[0].Size():
			tied = append(tied, c)
		}
	}
	return pick(tied, p).Answer, nil
}

// DiversityAwareConsensus returns the answer of the largest class. Among
// classes of equal size the one whose members are furthest apart wins.
// Classes tied on both are settled by p.
func DiversityAwareConsensus(results []models.IterationResult, p Picker) (float64, error) {
	classes, err := Classes(results)
	if err != nil {
		return 0, err
	}

	diversity := make([]float64, len(classes))
	for i, c := range classes {
		if diversity[i], err = c.Diversity(); err != nil {
			return 0, fmt.Errorf("diversity-aware consensus: %w", err)
		}
	}

	tied := []Class{classes[0]}
	bestSize, bestDiversity := classes[0].Size(), diversity[0]
	for i, c := range classes[1:] {
		d := diversity[i+1]
		switch {
		case c.Size() > bestSize, c.Size() == bestSize && d > bestDiversity:
			tied = []Class{c}
			bestSize, bestDiversity = c.Size(), d
		case c.Size() == bestSize && d == bestDiversity:
			tied = append(tied, c)
		}
	}
	return pick(tied, p).Answer, nil
}

func pick(tied []Class, p Picker) Class {
	if len(tied) == 1 || p == nil {
		return tied[0]
	}
	return tied[p.IntN(len(tied))]
}
