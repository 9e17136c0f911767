// Package similarity computes the normalized distance matrix over a module's
// versions and classifies version pairs into diversity bands.
//
// Nothing in this package draws random numbers: the same version list always
// yields the same matrix and the same classification.
package similarity

import (
	"fmt"

	"github.com/nvandessel/voteanalysis/internal/models"
)

// Matrix is the square pairwise distance matrix over an ordered version list.
// Cell (i, j) is the Euclidean distance between version i and version j divided
// by the largest cell. When every distance is zero the matrix is left as is and
// Normalized is false.
type Matrix struct {
	Cells      [][]float64 `json:"connectivity_matrix"`
	Normalized bool        `json:"normalized"`

	// MaxDistance is the raw distance the cells were divided by.
	MaxDistance float64 `json:"max_distance"`
}

// NewMatrix computes the normalized distance matrix for versions.
func NewMatrix(versions []*models.Version) (*Matrix, error) {
	n := len(versions)
	if n == 0 {
		return nil, fmt.Errorf("distance matrix: %w", models.ErrEmptyInput)
	}

	cells := make([][]float64, n)
	for i := range cells {
		cells[i] = make([]float64, n)
	}

	var maxDist float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := versions[i].DistanceTo(versions[j])
			if err != nil {
				return nil, fmt.Errorf("distance %s/%s: %w", versions[i].Name, versions[j].Name, err)
			}
			cells[i][j] = d
			cells[j][i] = d
			if d > maxDist {
				maxDist = d
			}
		}
	}

	m := &Matrix{Cells: cells, MaxDistance: maxDist}
	if maxDist == 0 {
		return m, nil
	}
	for i := range cells {
		for j := range cells[i] {
			cells[i][j] /= maxDist
		}
	}
	m.Normalized = true
	return m, nil
}

// Len returns the number of versions the matrix covers.
func (m *Matrix) Len() int {
	return len(m.Cells)
}

// At returns cell (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Cells[i][j]
}

// Rows returns a deep copy of the cells, suitable for attaching to results.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, len(m.Cells))
	for i, row := range m.Cells {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
