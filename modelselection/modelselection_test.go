package modelselection_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/dimred/kernel"
	"github.com/katalvlaran/dimred/modelselection"
	"github.com/katalvlaran/dimred/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// constEstimator scores every fold with a fixed value.
type constEstimator struct {
	score float64
	fail  error
	fits  *atomic.Int64
}

func (e *constEstimator) Fit(mat.Matrix, []int) error {
	e.fits.Add(1)
	return e.fail
}

func (e *constEstimator) Score(mat.Matrix, []int) (float64, error) { return e.score, nil }

// classCounter fails Fit when the training labels miss a class.
type classCounter struct{ classes int }

func (c classCounter) Fit(_ mat.Matrix, y []int) error {
	seen := make(map[int]bool)
	for _, v := range y {
		seen[v] = true
	}
	if len(seen) != c.classes {
		return fmt.Errorf("trained on %d of %d classes", len(seen), c.classes)
	}
	return nil
}

func (classCounter) Score(mat.Matrix, []int) (float64, error) { return 1, nil }

func TestKFold_Split(t *testing.T) {
	folds, err := modelselection.KFold{K: 3}.Split(10)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, folds[0].Test)
	assert.Equal(t, []int{4, 5, 6}, folds[1].Test)
	assert.Equal(t, []int{7, 8, 9}, folds[2].Test)
	assert.Equal(t, []int{0, 1, 2, 3, 7, 8, 9}, folds[1].Train)

	seen := make([]int, 10)
	for _, f := range folds {
		assert.Len(t, f.Train, 10-len(f.Test))
		for _, r := range f.Test {
			seen[r]++
		}
	}
	for r, c := range seen {
		assert.Equal(t, 1, c, "row %d", r)
	}

	_, err = modelselection.KFold{K: 1}.Split(10)
	assert.ErrorIs(t, err, modelselection.ErrBadFolds)
	_, err = modelselection.KFold{K: 4}.Split(3)
	assert.ErrorIs(t, err, modelselection.ErrBadFolds)
}

func TestStratifiedKFold_Split(t *testing.T) {
	y := []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	folds, err := modelselection.StratifiedKFold{K: 3}.Split(y)
	require.NoError(t, err)
	require.Len(t, folds, 3)
	assert.Equal(t, []int{0, 1, 4, 5}, folds[0].Test)
	assert.Equal(t, []int{2, 6, 7}, folds[1].Test)
	assert.Equal(t, []int{3, 8, 9}, folds[2].Test)
	assert.Equal(t, []int{0, 1, 3, 4, 5, 8, 9}, folds[1].Train)
}

func TestStratifiedKFold_BalancesClassesOfSortedLabels(t *testing.T) {
	// 30 rows stored in label order: contiguous folds would hold one class each.
	y := make([]int, 30)
	for i := range y {
		y[i] = i / 10
	}
	folds, err := modelselection.StratifiedKFold{K: 3}.Split(y)
	require.NoError(t, err)

	want := []map[int]int{
		{0: 4, 1: 3, 2: 3},
		{0: 3, 1: 4, 2: 3},
		{0: 3, 1: 3, 2: 4},
	}
	seen := make([]int, len(y))
	for fi, f := range folds {
		testCounts := make(map[int]int)
		for _, r := range f.Test {
			testCounts[y[r]]++
			seen[r]++
		}
		trainClasses := make(map[int]bool)
		for _, r := range f.Train {
			trainClasses[y[r]] = true
		}
		assert.Len(t, trainClasses, 3, "fold %d", fi)
		assert.Equal(t, want[fi], testCounts, "fold %d", fi)
		assert.Len(t, f.Train, len(y)-len(f.Test))
	}
	for r, c := range seen {
		assert.Equal(t, 1, c, "row %d", r)
	}
}

func TestStratifiedKFold_ClassCountsDifferByAtMostOne(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	y := make([]int, 97)
	for i := range y {
		y[i] = 3 + rng.Intn(5)
	}
	const k = 4
	folds, err := modelselection.StratifiedKFold{K: k}.Split(y)
	require.NoError(t, err)
	require.Len(t, folds, k)

	perClass := make(map[int][]int)
	for fi, f := range folds {
		for _, r := range f.Test {
			if perClass[y[r]] == nil {
				perClass[y[r]] = make([]int, k)
			}
			perClass[y[r]][fi]++
		}
	}
	for label, counts := range perClass {
		lo, hi := counts[0], counts[0]
		for _, c := range counts {
			lo, hi = min(lo, c), max(hi, c)
		}
		assert.LessOrEqual(t, hi-lo, 1, "class %d: %v", label, counts)
	}
}

func TestStratifiedKFold_Errors(t *testing.T) {
	_, err := modelselection.StratifiedKFold{K: 1}.Split([]int{0, 1, 0, 1})
	assert.ErrorIs(t, err, modelselection.ErrBadFolds)
	_, err = modelselection.StratifiedKFold{K: 5}.Split([]int{0, 1, 0, 1})
	assert.ErrorIs(t, err, modelselection.ErrBadFolds)
	// every class smaller than K
	_, err = modelselection.StratifiedKFold{K: 3}.Split([]int{0, 0, 1, 1, 2, 2})
	assert.ErrorIs(t, err, modelselection.ErrBadFolds)
}

func TestGridSearch_EvaluatesEveryPairOnceAndPicksFirstMax(t *testing.T) {
	scores := []float64{0.2, 0.9, 0.5, 0.9, 0.1}
	var fits atomic.Int64
	var evals atomic.Int64
	perPair := make(map[[2]int]int)

	gs := &modelselection.GridSearch[int]{
		Candidates: []int{0, 1, 2, 3, 4},
		Factory: func(i int) (modelselection.Estimator, error) {
			return &constEstimator{score: scores[i], fits: &fits}, nil
		},
		CV:      modelselection.KFold{K: 3},
		Workers: 4,
		OnEvaluate: func(e modelselection.Evaluation) {
			evals.Add(1)
			perPair[[2]int{e.Candidate, e.Fold}]++ // serialised by GridSearch
		},
	}
	X := mat.NewDense(9, 1, nil)
	res, err := gs.Fit(context.Background(), X, make([]int, 9))
	require.NoError(t, err)

	assert.Equal(t, 15, res.Evaluations)
	assert.EqualValues(t, 15, evals.Load())
	assert.EqualValues(t, 16, fits.Load()) // plus the refit
	assert.Len(t, perPair, 15)
	for pair, c := range perPair {
		assert.Equal(t, 1, c, "%v", pair)
	}

	assert.Equal(t, 1, res.BestIndex)
	assert.Equal(t, 1, res.BestParams)
	assert.Equal(t, 0.9, res.BestScore)
	assert.Equal(t, []int{4, 1, 3, 1, 5}, []int{
		res.Candidates[0].Rank, res.Candidates[1].Rank, res.Candidates[2].Rank,
		res.Candidates[3].Rank, res.Candidates[4].Rank,
	})
	assert.Zero(t, res.Candidates[2].Std)
	require.NotNil(t, res.BestEstimator)
}

func TestGridSearch_DefaultSplitterIsStratified(t *testing.T) {
	y := make([]int, 30)
	for i := range y {
		y[i] = i / 10
	}
	gs := &modelselection.GridSearch[int]{
		Candidates: []int{0},
		Factory: func(int) (modelselection.Estimator, error) {
			return classCounter{classes: 3}, nil
		},
	}
	res, err := gs.Fit(context.Background(), mat.NewDense(30, 1, nil), y)
	require.NoError(t, err)
	assert.Equal(t, modelselection.DefaultFolds, res.Evaluations)

	gs.CV = modelselection.KFold{K: 3}
	_, err = gs.Fit(context.Background(), mat.NewDense(30, 1, nil), y)
	assert.Error(t, err)
}

func TestGridSearch_FailureAborts(t *testing.T) {
	boom := errors.New("boom")
	var fits atomic.Int64
	gs := &modelselection.GridSearch[int]{
		Candidates: []int{0, 1, 2},
		Factory: func(i int) (modelselection.Estimator, error) {
			e := &constEstimator{score: 1, fits: &fits}
			if i == 1 {
				e.fail = boom
			}
			return e, nil
		},
		Workers: 1,
	}
	_, err := gs.Fit(context.Background(), mat.NewDense(6, 1, nil), make([]int, 6))
	assert.ErrorIs(t, err, boom)
}

func TestGridSearch_Validation(t *testing.T) {
	factory := func(int) (modelselection.Estimator, error) { return nil, nil }
	X := mat.NewDense(6, 1, nil)

	_, err := (&modelselection.GridSearch[int]{Factory: factory}).Fit(context.Background(), X, make([]int, 6))
	assert.ErrorIs(t, err, modelselection.ErrNoCandidates)

	_, err = (&modelselection.GridSearch[int]{Candidates: []int{1}}).Fit(context.Background(), X, make([]int, 6))
	assert.ErrorIs(t, err, modelselection.ErrNoFactory)

	gs := &modelselection.GridSearch[int]{Candidates: []int{1}, Factory: factory}
	_, err = gs.Fit(context.Background(), X, make([]int, 5))
	assert.ErrorIs(t, err, modelselection.ErrDimensionMismatch)

	gs.CV = modelselection.KFold{K: 7}
	_, err = gs.Fit(context.Background(), X, make([]int, 6))
	assert.ErrorIs(t, err, modelselection.ErrBadFolds)
}

func TestGridSearch_CancelledContext(t *testing.T) {
	var fits atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gs := &modelselection.GridSearch[int]{
		Candidates: []int{0, 1},
		Factory: func(int) (modelselection.Estimator, error) {
			return &constEstimator{score: 1, fits: &fits}, nil
		},
	}
	_, err := gs.Fit(ctx, mat.NewDense(6, 1, nil), make([]int, 6))
	assert.ErrorIs(t, err, context.Canceled)
}

// roll returns a small noisy spiral with its parameter binned into 4 classes.
func roll(n int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 3, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		u := rng.Float64()
		t := 1.5 * math.Pi * (1 + 2*u)
		X.Set(i, 0, t*math.Cos(t))
		X.Set(i, 1, 21*rng.Float64())
		X.Set(i, 2, t*math.Sin(t))
		y[i] = int(4 * u)
	}
	return X, y
}

func TestGridSearch_KernelPCAPipeline(t *testing.T) {
	X, y := roll(60, 42)
	gammas := make([]float64, 10)
	floats.Span(gammas, 0.03, 0.05)
	grid := pipeline.KernelGrid([]kernel.Kind{kernel.Linear, kernel.RBF, kernel.Sigmoid}, gammas)
	require.Len(t, grid, 30)

	var evals atomic.Int64
	run := func(workers int) *modelselection.Result[pipeline.KPCAParams] {
		gs := &modelselection.GridSearch[pipeline.KPCAParams]{
			Candidates: grid,
			Factory: func(p pipeline.KPCAParams) (modelselection.Estimator, error) {
				return pipeline.NewKPCALogReg(2, p), nil
			},
			CV:         modelselection.StratifiedKFold{K: 3},
			Workers:    workers,
			OnEvaluate: func(modelselection.Evaluation) { evals.Add(1) },
		}
		res, err := gs.Fit(context.Background(), X, y)
		require.NoError(t, err)
		return res
	}

	res := run(4)
	assert.Equal(t, 90, res.Evaluations)
	assert.EqualValues(t, 90, evals.Load())
	assert.Contains(t, grid, res.BestParams)
	for _, c := range res.Candidates {
		assert.GreaterOrEqual(t, res.BestScore, c.Mean)
		assert.Len(t, c.FoldScores, 3)
	}
	assert.Equal(t, 1, res.Candidates[res.BestIndex].Rank)

	serial := run(1)
	assert.Equal(t, res.BestIndex, serial.BestIndex)
	for i := range res.Candidates {
		assert.Equal(t, res.Candidates[i].FoldScores, serial.Candidates[i].FoldScores)
	}
}
