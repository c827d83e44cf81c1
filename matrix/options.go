// SPDX-License-Identifier: MIT

// Package matrix: numeric policy defaults (single source of truth).
package matrix

// Numeric policy.
const (
	// DefaultEpsilon is the tolerance used by symmetry checks and the Jacobi
	// convergence test when callers have no better estimate.
	DefaultEpsilon = 1e-9

	// DefaultValidateNaNInf toggles strict finite-value validation on Set.
	DefaultValidateNaNInf = true

	// DefaultEigenSweeps bounds Jacobi rotations as DefaultEigenSweeps*n*n.
	DefaultEigenSweeps = 30
)

// EigenIterations returns the rotation budget used for an n×n Jacobi solve
// under the default policy.
func EigenIterations(n int) int {
	if n < 1 {
		return 1
	}
	return DefaultEigenSweeps * n * n
}
