// Package dimred is a small workbench for linear and kernel dimensionality
// reduction, with the data sets, classifiers and model selection needed to
// compare them end to end.
//
// 🚀 What is in the box?
//
//	• PCA with a choice of solver (thin SVD, covariance eigh, Jacobi)
//	• Incremental PCA that folds row batches into a running model
//	• Kernel PCA over linear, RBF, sigmoid, polynomial and cosine kernels
//	• Multinomial logistic regression (L-BFGS, L2 penalty)
//	• A kernel PCA → logistic regression pipeline and a concurrent,
//	  k-fold cross-validated grid search over it
//	• MNIST (IDX over HTTP or from disk) and a seeded Swiss roll generator
//	• PNG figures: digit grids, reconstructions, class and value scatters
//
// Packages:
//
//	matrix/          row-major Dense, covariance, Jacobi eigensolver, gonum bridge
//	dataset/         MNIST loader, Swiss roll, label binning
//	kernel/          kernel functions and Gram matrices
//	decomposition/   PCA, IncrementalPCA, KernelPCA, reconstruction error
//	linear/          LogisticRegression and Accuracy
//	pipeline/        reducer + classifier composition, kernel grids
//	modelselection/  KFold, StratifiedKFold and GridSearch
//	viz/             gonum/plot figures
//	cmd/dimred/      the command line runner
//
// Quick start:
//
//	go run ./cmd/dimred run --out figures
//
// prints the explained-variance ratio of the first two MNIST components and
// the best kernel PCA parameters found on the Swiss roll.
package dimred
