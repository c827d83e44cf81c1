// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"sort"
	"testing"

	"github.com/katalvlaran/dimred/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// hide wraps any Matrix to hide its concrete type and force the At-based paths.
type hide struct{ matrix.Matrix }

func mustDense(t *testing.T, r, c int, data []float64) *matrix.Dense {
	t.Helper()
	d, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)
	return d
}

func mustAt(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)
	return v
}

func TestNewDense_Validation(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDenseFrom(2, 2, []float64{1, 2, 3})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFrom(1, 2, []float64{1, math.NaN()})
	assert.ErrorIs(t, err, matrix.ErrNaNInf)
}

func TestDense_AtSetBounds(t *testing.T) {
	d := mustDense(t, 2, 2, []float64{1, 2, 3, 4})

	_, err := d.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	assert.ErrorIs(t, d.Set(0, -1, 1), matrix.ErrOutOfRange)
	assert.ErrorIs(t, d.Set(0, 0, math.Inf(1)), matrix.ErrNaNInf)

	require.NoError(t, d.Set(1, 1, 9))
	assert.Equal(t, 9.0, mustAt(t, d, 1, 1))

	row, err := d.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 9}, row)
	assert.Equal(t, "[1, 2]\n[3, 9]\n", d.String())
}

func TestDense_CloneIsIndependent(t *testing.T) {
	d := mustDense(t, 1, 2, []float64{1, 2})
	c := d.Clone()
	require.NoError(t, c.Set(0, 0, 42))
	assert.Equal(t, 1.0, mustAt(t, d, 0, 0))
}

func TestMul_DenseAndFallbackAgree(t *testing.T) {
	a := mustDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := mustDense(t, 3, 2, []float64{7, 8, 9, 10, 11, 12})

	fast, err := matrix.Mul(a, b)
	require.NoError(t, err)
	slow, err := matrix.Mul(hide{a}, hide{b})
	require.NoError(t, err)

	want := []float64{58, 64, 139, 154}
	for k, w := range want {
		assert.Equal(t, w, mustAt(t, fast, k/2, k%2))
		assert.Equal(t, w, mustAt(t, slow, k/2, k%2))
	}

	_, err = matrix.Mul(a, a)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.Mul(nil, a)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestTransposeAndScale(t *testing.T) {
	a := mustDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})

	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	assert.Equal(t, 3, at.Rows())
	assert.Equal(t, 2, at.Cols())
	assert.Equal(t, 4.0, mustAt(t, at, 0, 1))

	s, err := matrix.Scale(hide{a}, -2)
	require.NoError(t, err)
	assert.Equal(t, -12.0, mustAt(t, s, 1, 2))
}

func TestCenterColumns(t *testing.T) {
	X := mustDense(t, 2, 3, []float64{1, 2, 3, 10, 20, 30})

	Xc, means, err := matrix.CenterColumns(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5.5, 11, 16.5}, means, 1e-12)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 0, mustAt(t, Xc, 0, j)+mustAt(t, Xc, 1, j), 1e-12)
	}
}

func TestCovariance(t *testing.T) {
	X := mustDense(t, 3, 2, []float64{1, 2, 2, 4, 3, 6})

	cov, means, err := matrix.Covariance(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4}, means, 1e-12)
	assert.InDelta(t, 1.0, mustAt(t, cov, 0, 0), 1e-12)
	assert.InDelta(t, 2.0, mustAt(t, cov, 0, 1), 1e-12)
	assert.InDelta(t, 4.0, mustAt(t, cov, 1, 1), 1e-12)
	assert.Equal(t, mustAt(t, cov, 0, 1), mustAt(t, cov, 1, 0))

	_, _, err = matrix.Covariance(mustDense(t, 1, 2, []float64{1, 2}))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestEigen_KnownSpectrum(t *testing.T) {
	// Eigenvalues of [[2,1],[1,2]] are 1 and 3.
	A := mustDense(t, 2, 2, []float64{2, 1, 1, 2})

	vals, vecs, err := matrix.Eigen(A, 1e-12, matrix.EigenIterations(2))
	require.NoError(t, err)
	got := append([]float64(nil), vals...)
	sort.Float64s(got)
	assert.InDeltaSlice(t, []float64{1, 3}, got, 1e-10)

	// A·v = λ·v for every column.
	for k := 0; k < 2; k++ {
		for i := 0; i < 2; i++ {
			av := 0.0
			for j := 0; j < 2; j++ {
				av += mustAt(t, A, i, j) * mustAt(t, vecs, j, k)
			}
			assert.InDelta(t, vals[k]*mustAt(t, vecs, i, k), av, 1e-10)
		}
	}
}

func TestEigen_MatchesGonum(t *testing.T) {
	data := []float64{
		4, 1, 0.5, 0,
		1, 3, 0.2, 0.1,
		0.5, 0.2, 2, 0.3,
		0, 0.1, 0.3, 1,
	}
	A := mustDense(t, 4, 4, data)
	vals, _, err := matrix.Eigen(hide{A}, 1e-12, matrix.EigenIterations(4))
	require.NoError(t, err)
	sort.Float64s(vals)

	var es mat.EigenSym
	require.True(t, es.Factorize(mat.NewSymDense(4, data), false))
	assert.InDeltaSlice(t, es.Values(nil), vals, 1e-9)
}

func TestEigen_Errors(t *testing.T) {
	_, _, err := matrix.Eigen(mustDense(t, 2, 2, []float64{1, 2, 3, 4}), 1e-9, 10)
	assert.ErrorIs(t, err, matrix.ErrAsymmetry)

	_, _, err = matrix.Eigen(mustDense(t, 2, 3, make([]float64, 6)), 1e-9, 10)
	assert.ErrorIs(t, err, matrix.ErrNonSquare)

	A := mustDense(t, 3, 3, []float64{4, 1, 2, 1, 3, 1, 2, 1, 5})
	_, _, err = matrix.Eigen(A, 1e-15, 1)
	assert.ErrorIs(t, err, matrix.ErrMatrixEigenFailed)
}

func TestGonumRoundTrip(t *testing.T) {
	g := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	d, err := matrix.FromGonum(g)
	require.NoError(t, err)
	back, err := matrix.ToGonum(hide{d})
	require.NoError(t, err)
	assert.True(t, mat.Equal(g, back))

	// The copy must not alias the original buffer.
	back.Set(0, 0, 100)
	assert.Equal(t, 1.0, mustAt(t, d, 0, 0))

	_, err = matrix.ToGonum(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}
