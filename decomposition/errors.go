package decomposition

import (
	"errors"
	"fmt"
)

var (
	// ErrBadComponents indicates a component count outside [1, min(n, d)].
	ErrBadComponents = errors.New("decomposition: invalid number of components")

	// ErrNotFitted indicates Transform/InverseTransform before Fit.
	ErrNotFitted = errors.New("decomposition: model not fitted")

	// ErrDimensionMismatch indicates an input whose width differs from the fit.
	ErrDimensionMismatch = errors.New("decomposition: dimension mismatch")

	// ErrTooFewSamples indicates fewer than two samples for a variance estimate.
	ErrTooFewSamples = errors.New("decomposition: need at least two samples")

	// ErrBadBatchCount indicates a chunk count outside [1, n].
	ErrBadBatchCount = errors.New("decomposition: invalid batch count")

	// ErrBatchTooSmall indicates a first chunk with fewer rows than components.
	ErrBatchTooSmall = errors.New("decomposition: first batch smaller than n_components")

	// ErrFactorization indicates that an SVD or eigen-decomposition failed.
	ErrFactorization = errors.New("decomposition: factorization failed")

	// ErrUnknownSolver indicates an unsupported PCA solver value.
	ErrUnknownSolver = errors.New("decomposition: unknown solver")
)

func opErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
