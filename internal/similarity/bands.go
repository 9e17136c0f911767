package similarity

import (
	"github.com/nvandessel/voteanalysis/internal/constants"
)

// Band classifies a version pair by its normalized distance.
type Band int

const (
	BandClone Band = iota
	BandSimilar
	BandPartlySimilar
	BandDifferent
)

// Bands lists every band in the order the generator applies their policies.
var Bands = []Band{BandClone, BandSimilar, BandPartlySimilar, BandDifferent}

func (b Band) String() string {
	switch b {
	case BandClone:
		return "clone"
	case BandSimilar:
		return "similar"
	case BandPartlySimilar:
		return "partly-similar"
	case BandDifferent:
		return "different"
	}
	return "unknown"
}

// BandFor returns the band a normalized distance falls into:
// clone [0, 0.05], similar (0.05, 0.4), partly similar [0.4, 0.6] and
// different above 0.6.
func BandFor(d float64) Band {
	switch {
	case d <= constants.CloneMaxDistance:
		return BandClone
	case d < constants.SimilarMaxDistance:
		return BandSimilar
	case d <= constants.PartlySimilarMaxDistance:
		return BandPartlySimilar
	default:
		return BandDifferent
	}
}

// Pair is an unordered version pair, I < J, with its normalized distance.
type Pair struct {
	I        int     `json:"i"`
	J        int     `json:"j"`
	Distance float64 `json:"distance"`
}

// Classification holds, per band, the pairs that fell into it and the group of
// version indices those pairs touch. Group members keep first-visit order.
type Classification struct {
	pairs  [4][]Pair
	groups [4][]int
}

// Classify visits every pair (j, k), j < k, of the matrix and assigns it to
// exactly one band. A version can belong to several band groups.
func Classify(m *Matrix) Classification {
	var c Classification
	var seen [4]map[int]bool
	for b := range seen {
		seen[b] = make(map[int]bool)
	}

	add := func(b Band, idx int) {
		if !seen[b][idx] {
			seen[b][idx] = true
			c.groups[b] = append(c.groups[b], idx)
		}
	}

	n := m.Len()
	for j := 0; j < n; j++ {
		for k := j + 1; k < n; k++ {
			d := m.At(j, k)
			b := BandFor(d)
			c.pairs[b] = append(c.pairs[b], Pair{I: j, J: k, Distance: d})
			add(b, j)
			add(b, k)
		}
	}
	return c
}

// Pairs returns the pairs classified into b.
func (c Classification) Pairs(b Band) []Pair {
	return c.pairs[b]
}

// Group returns the version indices touched by pairs in b.
func (c Classification) Group(b Band) []int {
	return c.groups[b]
}

// PairCount returns the total number of classified pairs.
func (c Classification) PairCount() int {
	n := 0
	for _, p := range c.pairs {
		n += len(p)
	}
	return n
}
