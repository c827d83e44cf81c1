package pipeline_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/dimred/decomposition"
	"github.com/katalvlaran/dimred/kernel"
	"github.com/katalvlaran/dimred/linear"
	"github.com/katalvlaran/dimred/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// rings returns two concentric circles in 3-D (third column is noise), labelled 0 and 1.
func rings(perClass int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(2*perClass, 3, nil)
	y := make([]int, 2*perClass)
	for c, radius := range []float64{1, 4} {
		for i := 0; i < perClass; i++ {
			a := 2 * math.Pi * rng.Float64()
			r := c*perClass + i
			X.Set(r, 0, radius*math.Cos(a))
			X.Set(r, 1, radius*math.Sin(a))
			X.Set(r, 2, 0.1*rng.NormFloat64())
			y[r] = c
		}
	}
	return X, y
}

func TestKernelGrid_Order(t *testing.T) {
	grid := pipeline.KernelGrid(
		[]kernel.Kind{kernel.Linear, kernel.RBF},
		[]float64{0.1, 0.2},
	)
	assert.Equal(t, []pipeline.KPCAParams{
		{Kernel: kernel.Linear, Gamma: 0.1},
		{Kernel: kernel.RBF, Gamma: 0.1},
		{Kernel: kernel.Linear, Gamma: 0.2},
		{Kernel: kernel.RBF, Gamma: 0.2},
	}, grid)
}

func TestKPCAParams_Rendering(t *testing.T) {
	p := pipeline.KPCAParams{Kernel: kernel.RBF, Gamma: 0.03}
	assert.Equal(t, "{'kpca__gamma': 0.03, 'kpca__kernel': 'rbf'}", p.String())
	assert.Equal(t, map[string]any{"kpca__gamma": 0.03, "kpca__kernel": "rbf"}, p.Params())
	assert.Equal(t, kernel.New(kernel.RBF, 0.03), p.KernelParams())
}

func TestPipeline_RBFBeatsLinearOnRings(t *testing.T) {
	X, y := rings(60, 1)

	rbf := pipeline.NewKPCALogReg(2, pipeline.KPCAParams{Kernel: kernel.RBF, Gamma: 0.5})
	require.NoError(t, rbf.Fit(X, y))
	rbfScore, err := rbf.Score(X, y)
	require.NoError(t, err)

	lin := pipeline.NewKPCALogReg(2, pipeline.KPCAParams{Kernel: kernel.Linear})
	require.NoError(t, lin.Fit(X, y))
	linScore, err := lin.Score(X, y)
	require.NoError(t, err)

	assert.Greater(t, rbfScore, linScore)

	pred, err := rbf.Predict(X)
	require.NoError(t, err)
	assert.Len(t, pred, len(y))
}

func TestPipeline_Errors(t *testing.T) {
	X, y := rings(5, 2)

	var empty pipeline.Pipeline
	assert.ErrorIs(t, empty.Fit(X, y), pipeline.ErrIncomplete)
	_, err := empty.Predict(X)
	assert.ErrorIs(t, err, pipeline.ErrIncomplete)

	p := &pipeline.Pipeline{
		Reducer:    decomposition.NewKernelPCA(2, kernel.New(kernel.RBF, 1)),
		Classifier: linear.NewLogisticRegression(),
	}
	_, err = p.Score(X, y)
	assert.ErrorIs(t, err, decomposition.ErrNotFitted)

	err = p.Fit(X, make([]int, len(y)))
	assert.ErrorIs(t, err, linear.ErrSingleClass)
	assert.False(t, errors.Is(err, decomposition.ErrNotFitted))
}
