package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Batch is the half-open row range [Start, End) of one chunk.
type Batch struct {
	Start, End int
}

// Len returns the number of rows in the chunk.
func (b Batch) Len() int { return b.End - b.Start }

// Batches partitions n rows into c contiguous chunks in row order.
// The first c−1 chunks hold ⌊n/c⌋ rows; the last holds ⌊n/c⌋ + n mod c.
//
// Every row in [0, n) belongs to exactly one chunk. c must lie in [1, n].
func Batches(n, c int) ([]Batch, error) {
	if c < 1 || c > n {
		return nil, fmt.Errorf("Batches(n=%d, c=%d): %w", n, c, ErrBadBatchCount)
	}
	size := n / c
	out := make([]Batch, c)
	for i := range out {
		out[i] = Batch{Start: i * size, End: (i + 1) * size}
	}
	out[c-1].End = n
	return out, nil
}

type slicer interface {
	Slice(i, k, j, l int) mat.Matrix
}

// rowRange returns rows [start, end) of X, as a view when X supports slicing.
func rowRange(X mat.Matrix, start, end int) mat.Matrix {
	_, c := X.Dims()
	if s, ok := X.(slicer); ok {
		return s.Slice(start, end, 0, c)
	}
	out := mat.NewDense(end-start, c, nil)
	for i := start; i < end; i++ {
		for j := 0; j < c; j++ {
			out.Set(i-start, j, X.At(i, j))
		}
	}
	return out
}
