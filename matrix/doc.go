// Package matrix is the small dense numeric core used by the decomposition code.
//
// The package provides:
//
//   - Dense, a row-major float64 matrix with safe accessors (At/Set return
//     errors instead of panicking) and an optional NaN/Inf guard.
//   - Canonical kernels: Mul, Transpose, Scale.
//   - Column statistics: CenterColumns and the sample Covariance.
//   - Eigen, a deterministic Jacobi eigensolver for symmetric matrices.
//   - Bridges to gonum (FromGonum, ToGonum) so the heavy decompositions can run
//     on gonum routines while small problems stay inspectable here.
//
// Jacobi is O(n³) per sweep and only suitable for a few dozen features; the
// PCA solver exposes it for small inputs and for cross-checking gonum results.
//
// All failures are reported through the sentinels in errors.go and wrapped with
// an operation tag, so callers match them with errors.Is.
package matrix
