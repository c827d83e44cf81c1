package decomposition

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// columnMeans returns the per-column mean of X.
func columnMeans(X mat.Matrix) []float64 {
	r, c := X.Dims()
	means := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			means[j] += X.At(i, j)
		}
	}
	for j := range means {
		means[j] /= float64(r)
	}
	return means
}

// centered returns X − mean as a fresh matrix.
func centered(X mat.Matrix, mean []float64) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j)-mean[j])
		}
	}
	return out
}

// addRowVector adds v to every row of M in place.
func addRowVector(M *mat.Dense, v []float64) {
	r, c := M.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			M.Set(i, j, M.At(i, j)+v[j])
		}
	}
}

// flipRows negates every row of V whose largest-magnitude entry is negative.
func flipRows(V *mat.Dense) {
	r, c := V.Dims()
	for i := 0; i < r; i++ {
		if signOfMaxAbs(mat.Row(nil, i, V)) < 0 {
			for j := 0; j < c; j++ {
				V.Set(i, j, -V.At(i, j))
			}
		}
	}
}

// flipCols negates every column of V whose largest-magnitude entry is negative.
func flipCols(V *mat.Dense) {
	r, c := V.Dims()
	for j := 0; j < c; j++ {
		if signOfMaxAbs(mat.Col(nil, j, V)) < 0 {
			for i := 0; i < r; i++ {
				V.Set(i, j, -V.At(i, j))
			}
		}
	}
}

// signOfMaxAbs returns the sign of the first entry of maximal magnitude.
func signOfMaxAbs(v []float64) float64 {
	best, idx := -1.0, 0
	for k, x := range v {
		if a := math.Abs(x); a > best {
			best, idx = a, k
		}
	}
	if len(v) == 0 || v[idx] >= 0 {
		return 1
	}
	return -1
}

// thinSVD factorizes A = U·diag(S)·Vᵀ and returns S (descending) and Vᵀ.
func thinSVD(A mat.Matrix) ([]float64, *mat.Dense, bool) {
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThinV); !ok {
		return nil, nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	vt := mat.DenseCopyOf(v.T())
	return svd.Values(nil), vt, true
}

// topEigen returns the k largest eigenpairs of a symmetric matrix in
// descending order: values and a (n×k) matrix of eigenvector columns.
// Ties keep the solver's order.
func topEigen(values []float64, vectors mat.Matrix, k int) ([]float64, *mat.Dense) {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	n, _ := vectors.Dims()
	outVals := make([]float64, k)
	outVecs := mat.NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		outVals[c] = values[order[c]]
		for i := 0; i < n; i++ {
			outVecs.Set(i, c, vectors.At(i, order[c]))
		}
	}
	return outVals, outVecs
}

// sqrtNonNeg returns √max(x, 0).
func sqrtNonNeg(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}
