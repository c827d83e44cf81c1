// Package dataset loads and generates the inputs of the dimensionality-reduction
// exercises.
//
// Two sources are provided:
//
//   - MNIST: the 70 000 handwritten digits (28×28, intensities 0..255), read
//     from the four gzip-wrapped IDX files either over HTTP or from a local
//     directory. Training rows come first, then the 10 000 test rows, matching
//     the ordering of the "mnist_784" dataset.
//   - SwissRoll: a deterministic 3-D point cloud sampled from a rolled sheet,
//     with the roll parameter t as a continuous label.
//
// Helpers Linspace, Digitize and BinLabels turn the continuous label into the
// integer classes consumed by a classifier.
//
// All matrices are gonum *mat.Dense values; rows are samples. Loaded data is
// never mutated: Split returns views sharing the parent's storage.
package dataset
