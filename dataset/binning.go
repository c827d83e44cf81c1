package dataset

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Linspace returns num evenly spaced values over [start, stop], endpoint
// included. The last value is exactly stop. num==1 yields [start].
func Linspace(start, stop float64, num int) ([]float64, error) {
	if num < 1 {
		return nil, fmt.Errorf("Linspace(num=%d): %w", num, ErrBadBins)
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out, nil
	}

	floats.Span(out, start, stop)
	out[num-1] = stop

	return out, nil
}

// Digitize returns, for every x, the number of edges ≤ x: the index i with
// edges[i-1] ≤ x < edges[i]. Values below the first edge map to 0 and values
// at or above the last edge map to len(edges). edges must be non-decreasing.
func Digitize(x, edges []float64) ([]int, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("Digitize: no edges: %w", ErrBadBins)
	}
	if !sort.Float64sAreSorted(edges) {
		return nil, fmt.Errorf("Digitize: edges not sorted: %w", ErrBadBins)
	}

	out := make([]int, len(x))
	for k, v := range x {
		out[k] = sort.Search(len(edges), func(i int) bool { return edges[i] > v })
	}

	return out, nil
}

// BinLabels buckets a continuous label into integer classes using nEdges
// equally spaced edges between min(t) and max(t). The maximum value lands in
// its own class nEdges.
func BinLabels(t []float64, nEdges int) ([]int, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("BinLabels: %w", ErrEmptyInput)
	}
	edges, err := Linspace(floats.Min(t), floats.Max(t), nEdges)
	if err != nil {
		return nil, err
	}

	return Digitize(t, edges)
}
