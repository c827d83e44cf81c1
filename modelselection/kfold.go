// Package modelselection provides k-fold cross-validation splitters and an
// exhaustive grid search that evaluates (candidate, fold) pairs concurrently.
package modelselection

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrBadFolds indicates a fold count outside [2, n], or, for stratified
	// splits, larger than every class count.
	ErrBadFolds = errors.New("modelselection: invalid fold count")

	// ErrNoCandidates indicates an empty parameter grid.
	ErrNoCandidates = errors.New("modelselection: no candidates")

	// ErrNoFactory indicates a GridSearch without an estimator factory.
	ErrNoFactory = errors.New("modelselection: nil estimator factory")

	// ErrDimensionMismatch indicates a row count differing from the label count.
	ErrDimensionMismatch = errors.New("modelselection: dimension mismatch")
)

// Fold holds the row indices of one train/test split.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter produces the cross-validation folds for a label vector.
type Splitter interface {
	Folds(y []int) ([]Fold, error)
}

// KFold splits rows into K contiguous test folds without shuffling.
// The first n mod K folds hold one extra row.
type KFold struct {
	K int
}

// Split returns the K folds for n rows, in order.
func (kf KFold) Split(n int) ([]Fold, error) {
	if kf.K < 2 || kf.K > n {
		return nil, fmt.Errorf("KFold{K: %d}.Split(%d): %w", kf.K, n, ErrBadFolds)
	}
	folds := make([]Fold, kf.K)
	start := 0
	for i := range folds {
		size := n / kf.K
		if i < n%kf.K {
			size++
		}
		end := start + size

		test := make([]int, 0, size)
		train := make([]int, 0, n-size)
		for r := 0; r < n; r++ {
			if r >= start && r < end {
				test = append(test, r)
			} else {
				train = append(train, r)
			}
		}
		folds[i] = Fold{Train: train, Test: test}
		start = end
	}
	return folds, nil
}

// Folds implements Splitter; labels are ignored.
func (kf KFold) Folds(y []int) ([]Fold, error) { return kf.Split(len(y)) }

// StratifiedKFold splits rows into K test folds that preserve the class
// proportions of y, without shuffling.
//
// Labels are dealt round-robin over the folds in class order (classes ordered
// by first appearance), which fixes how many rows of each class every fold
// receives; within a class, rows are then assigned to folds in row order, the
// first rows to fold 0. Per class, test-fold counts differ by at most one.
type StratifiedKFold struct {
	K int
}

// Split returns the K folds for labels y. Test and train indices are in row order.
func (sk StratifiedKFold) Split(y []int) ([]Fold, error) {
	n, k := len(y), sk.K
	if k < 2 || k > n {
		return nil, fmt.Errorf("StratifiedKFold{K: %d}.Split(%d rows): %w", k, n, ErrBadFolds)
	}

	// Encode classes by first appearance.
	code := make(map[int]int)
	encoded := make([]int, n)
	var counts []int
	for i, label := range y {
		c, ok := code[label]
		if !ok {
			c = len(counts)
			code[label] = c
			counts = append(counts, 0)
		}
		encoded[i] = c
		counts[c]++
	}
	if k > slices.Max(counts) {
		return nil, fmt.Errorf("StratifiedKFold{K: %d}: largest class has %d rows: %w",
			k, slices.Max(counts), ErrBadFolds)
	}

	// alloc[c][f] counts the positions p of class c's block in the sorted
	// label order with p mod K == f.
	alloc := make([][]int, len(counts))
	pos := 0
	for c, cnt := range counts {
		alloc[c] = make([]int, k)
		for p := pos; p < pos+cnt; p++ {
			alloc[c][p%k]++
		}
		pos += cnt
	}

	testFold := make([]int, n)
	next := make([]int, len(counts)) // current fold per class
	for i, c := range encoded {
		for alloc[c][next[c]] == 0 {
			next[c]++
		}
		testFold[i] = next[c]
		alloc[c][next[c]]--
	}

	folds := make([]Fold, k)
	for i, f := range testFold {
		folds[f].Test = append(folds[f].Test, i)
	}
	for f := range folds {
		folds[f].Train = make([]int, 0, n-len(folds[f].Test))
		for i, tf := range testFold {
			if tf != f {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
	}
	return folds, nil
}

// Folds implements Splitter.
func (sk StratifiedKFold) Folds(y []int) ([]Fold, error) { return sk.Split(y) }
