package dataset

import "errors"

var (
	// ErrBadMagic indicates an IDX stream whose magic number is not the expected kind.
	ErrBadMagic = errors.New("dataset: unexpected IDX magic number")

	// ErrTruncated indicates an IDX stream that ended before its declared size.
	ErrTruncated = errors.New("dataset: truncated IDX stream")

	// ErrShapeMismatch indicates inconsistent image/label counts or image sizes.
	ErrShapeMismatch = errors.New("dataset: shape mismatch")

	// ErrFetch indicates a non-success HTTP response while downloading a file.
	ErrFetch = errors.New("dataset: fetch failed")

	// ErrSplitRange indicates a split index outside (0, n).
	ErrSplitRange = errors.New("dataset: split index out of range")

	// ErrIndexRange indicates a row index outside [0, n).
	ErrIndexRange = errors.New("dataset: row index out of range")

	// ErrClassMissing indicates that a requested class has no sample.
	ErrClassMissing = errors.New("dataset: class not present")

	// ErrBadSampleCount indicates a non-positive sample count.
	ErrBadSampleCount = errors.New("dataset: sample count must be > 0")

	// ErrBadNoise indicates a negative or non-finite noise level.
	ErrBadNoise = errors.New("dataset: noise must be finite and >= 0")

	// ErrBadBins indicates an invalid bin count or an unsorted edge vector.
	ErrBadBins = errors.New("dataset: invalid bins")

	// ErrEmptyInput indicates an empty value vector.
	ErrEmptyInput = errors.New("dataset: empty input")
)
