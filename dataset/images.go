package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Images is a labeled image matrix: one flattened image per row of X and the
// matching class in Labels. Height×Width equals the column count of X.
//
// Images values are immutable once loaded; Split and the accessors never
// write to X.
type Images struct {
	X      *mat.Dense
	Labels []int
	Height int
	Width  int
}

// Len returns the number of samples.
func (im *Images) Len() int { return len(im.Labels) }

// Split partitions the rows into [0, at) and [at, n) without copying.
// Returns ErrSplitRange unless 0 < at < n.
func (im *Images) Split(at int) (*Images, *Images, error) {
	n, c := im.X.Dims()
	if at <= 0 || at >= n {
		return nil, nil, fmt.Errorf("Split(%d) of %d rows: %w", at, n, ErrSplitRange)
	}

	head := &Images{
		X:      im.X.Slice(0, at, 0, c).(*mat.Dense),
		Labels: im.Labels[:at:at],
		Height: im.Height,
		Width:  im.Width,
	}
	tail := &Images{
		X:      im.X.Slice(at, n, 0, c).(*mat.Dense),
		Labels: im.Labels[at:],
		Height: im.Height,
		Width:  im.Width,
	}

	return head, tail, nil
}

// Image returns a copy of row i.
func (im *Images) Image(i int) ([]float64, error) {
	if i < 0 || i >= im.Len() {
		return nil, fmt.Errorf("Image(%d): %w", i, ErrIndexRange)
	}

	return mat.Row(nil, i, im.X), nil
}

// FirstOfEachClass returns, for every class in classes, the index of the first
// row labeled with it. Returns ErrClassMissing if any class has no sample.
func (im *Images) FirstOfEachClass(classes []int) ([]int, error) {
	first := make(map[int]int, len(classes))
	for i, l := range im.Labels {
		if _, seen := first[l]; !seen {
			first[l] = i
		}
	}

	out := make([]int, len(classes))
	for k, cls := range classes {
		idx, ok := first[cls]
		if !ok {
			return nil, fmt.Errorf("class %d: %w", cls, ErrClassMissing)
		}
		out[k] = idx
	}

	return out, nil
}
