package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ReconstructionError returns Σᵢⱼ (X[i,j] − Xhat[i,j])².
func ReconstructionError(X, Xhat mat.Matrix) (float64, error) {
	r, c := X.Dims()
	hr, hc := Xhat.Dims()
	if r != hr || c != hc {
		return 0, opErrorf("ReconstructionError",
			fmt.Errorf("%dx%d vs %dx%d: %w", r, c, hr, hc, ErrDimensionMismatch))
	}
	var diff mat.Dense
	diff.Sub(X, Xhat)
	row := make([]float64, c)
	sum := 0.0
	for i := 0; i < r; i++ {
		mat.Row(row, i, &diff)
		sum += floats.Dot(row, row)
	}
	return sum, nil
}
