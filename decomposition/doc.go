// Package decomposition implements the projections used by the exercises:
// principal component analysis (PCA), its batched incremental variant
// (IncrementalPCA) and kernel PCA (KernelPCA).
//
// 🚀 What is inside?
//
//   - PCA: exact projection onto the top-k variance directions. Four solvers:
//     thin SVD of the centered data, eigen-decomposition of the covariance
//     (fast when samples ≫ features), the same through the package's own
//     Jacobi routine (small inputs, cross-checks), and an automatic choice.
//   - IncrementalPCA: folds contiguous row chunks into a running rank-k SVD
//     without keeping earlier chunks; supports projection and reconstruction.
//   - KernelPCA: eigen-decomposition of the double-centered Gram matrix for
//     any kernel.Params; out-of-sample rows are projected with the training
//     centering statistics.
//   - Batches and ReconstructionError: the chunking contract and the squared
//     error used to judge reconstructions.
//
// ✨ Conventions
//
//   - Rows are samples. Inputs are any gonum mat.Matrix; outputs are fresh
//     *mat.Dense values that never alias inputs.
//   - Components are sign-normalized: the largest-magnitude loading of every
//     component (eigenvector for KernelPCA) is positive, so repeated fits give
//     identical signs.
//   - Explained-variance ratios lie in [0,1] and are non-increasing.
//
// Errors are package sentinels wrapped with the failing operation; match them
// with errors.Is.
package decomposition
