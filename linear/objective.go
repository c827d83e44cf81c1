package linear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// objective is the penalised mean cross-entropy over a flat parameter vector
// laid out as [W row-major (d×K) | b (K)].
type objective struct {
	X       *mat.Dense
	y       []int
	n, d, k int
	c       float64
}

// probabilities returns the n×K softmax of X·W + b and the summed log-loss.
func (o *objective) probabilities(x []float64) (*mat.Dense, float64) {
	W := mat.NewDense(o.d, o.k, x[:o.d*o.k])
	b := x[o.d*o.k:]
	P := mat.NewDense(o.n, o.k, nil)
	P.Mul(o.X, W)
	loss := 0.0
	for i := 0; i < o.n; i++ {
		row := P.RawRowView(i)
		floats.Add(row, b)
		target := row[o.y[i]]
		lse := softmax(row)
		loss += lse - target
	}
	return P, loss
}

func (o *objective) loss(x []float64) float64 {
	_, ce := o.probabilities(x)
	w := x[:o.d*o.k]
	return ce/float64(o.n) + floats.Dot(w, w)/(2*o.c*float64(o.n))
}

func (o *objective) grad(grad, x []float64) {
	P, _ := o.probabilities(x)
	// P − Y
	for i := 0; i < o.n; i++ {
		P.Set(i, o.y[i], P.At(i, o.y[i])-1)
	}
	inv := 1 / float64(o.n)

	G := mat.NewDense(o.d, o.k, grad[:o.d*o.k])
	G.Mul(o.X.T(), P)
	G.Scale(inv, G)
	floats.AddScaled(grad[:o.d*o.k], inv/o.c, x[:o.d*o.k])

	gb := grad[o.d*o.k:]
	for j := range gb {
		gb[j] = floats.Sum(mat.Col(nil, j, P)) * inv
	}
}
