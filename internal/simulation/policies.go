package simulation

import (
	"github.com/nvandessel/voteanalysis/internal/constants"
	"github.com/nvandessel/voteanalysis/internal/models"
)

// clone fails every member together. One roll is compared against the
// smallest reliability in the group; on failure all members report the same
// drawn value.
func (r *run) clone(group []int, ref float64, iteration int) []models.IterationResult {
	minRel := 1.0
	for _, idx := range group {
		if rel := r.module.Versions[idx].Reliability; rel < minRel {
			minRel = rel
		}
	}

	answer := ref
	if roll := r.src.Float64(); roll > minRel {
		answer = r.drawOutput()
	}

	out := make([]models.IterationResult, 0, len(group))
	for _, idx := range group {
		out = append(out, r.result(idx, answer, ref, iteration))
	}
	return out
}

// similar shares one roll across the group. Members whose reliability is at
// least the roll pass; the rest scatter around a shared base error value.
// The base is the reference value when anyone passed.
func (r *run) similar(group []int, ref float64, iteration int) []models.IterationResult {
	roll := r.src.Float64()

	anyPassed := false
	for _, idx := range group {
		if r.module.Versions[idx].Reliability >= roll {
			anyPassed = true
			break
		}
	}

	base := ref
	if !anyPassed {
		base = r.drawOutput()
	}
	coefficient := models.Uniform(r.src, constants.SimilarCoefficientMin, constants.SimilarCoefficientMax)

	out := make([]models.IterationResult, 0, len(group))
	for _, idx := range group {
		answer := ref
		if r.module.Versions[idx].Reliability < roll {
			answer = r.drawError(base, coefficient)
		}
		out = append(out, r.result(idx, answer, ref, iteration))
	}
	return out
}

// partlySimilar draws a diversity threshold and splits the group by pairwise
// distance: pairs at or above the threshold are independent, pairs below it
// are dependent. Each member then rolls on its own. Failing dependent members
// share one error value; failing members that are only independent draw
// their own; anything else scatters around the shared dependent value.
func (r *run) partlySimilar(group []int, ref float64, iteration int) []models.IterationResult {
	threshold := r.src.Float64()

	dependent := make(map[int]bool, len(group))
	independent := make(map[int]bool, len(group))
	for _, a := range group {
		for _, b := range group {
			if a == b {
				continue
			}
			if r.matrix.At(a, b) >= threshold {
				independent[a] = true
				independent[b] = true
			} else {
				dependent[a] = true
				dependent[b] = true
			}
		}
	}

	failed := make([]bool, len(group))
	for i, idx := range group {
		failed[i] = r.src.Float64() > r.module.Versions[idx].Reliability
	}

	shared := r.drawOutput()

	out := make([]models.IterationResult, 0, len(group))
	for i, idx := range group {
		answer := ref
		if failed[i] {
			switch {
			case dependent[idx]:
				answer = shared
			case independent[idx]:
				answer = r.drawOutput()
			default:
				answer = r.drawError(shared, threshold)
			}
		}
		out = append(out, r.result(idx, answer, ref, iteration))
	}
	return out
}

// different rolls once per member and draws an independent error value for
// every member that fails.
func (r *run) different(group []int, ref float64, iteration int) []models.IterationResult {
	out := make([]models.IterationResult, 0, len(group))
	for _, idx := range group {
		answer := ref
		if r.src.Float64() > r.module.Versions[idx].Reliability {
			answer = r.drawOutput()
		}
		out = append(out, r.result(idx, answer, ref, iteration))
	}
	return out
}
