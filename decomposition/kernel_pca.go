package decomposition

import (
	"fmt"
	"math"

	"github.com/katalvlaran/dimred/kernel"
	"gonum.org/v1/gonum/mat"
)

// KernelPCA is PCA in the feature space induced by a kernel.
//
// Implementation:
//
//	Stage 1: K = Gram(X, X), centred as Kc = K − 1ₙK − K1ₙ + 1ₙK1ₙ.
//	Stage 2: top-k eigenpairs (λ, α) of Kc, descending, largest-|·| entry of
//	         each α positive, λ < 0 clipped to 0.
//	Stage 3: training embedding α·√λ; new rows use the centred cross-Gram
//	         times α/√λ, with λ = 0 columns mapped to 0.
//
// Complexity: O(n²·d) for the Gram matrix, O(n³) for the eigen-decomposition.
type KernelPCA struct {
	k      int
	params kernel.Params

	fit      *mat.Dense // training rows, copied
	colMeans []float64  // column means of K(X_fit, X_fit)
	allMean  float64
	values   []float64
	vectors  *mat.Dense // n×k
	embed    *mat.Dense // n×k training embedding
}

// NewKernelPCA returns an unfitted kernel PCA keeping k components.
func NewKernelPCA(k int, p kernel.Params) *KernelPCA {
	return &KernelPCA{k: k, params: p}
}

// Params returns the kernel configuration.
func (p *KernelPCA) Params() kernel.Params { return p.params }

// Fit learns the eigenpairs of the centred training Gram matrix.
func (p *KernelPCA) Fit(X mat.Matrix) error {
	const op = "KernelPCA.Fit"
	n, _ := X.Dims()
	if n < 2 {
		return opErrorf(op, ErrTooFewSamples)
	}
	if p.k < 1 || p.k > n {
		return opErrorf(op, fmt.Errorf("k=%d for %d samples: %w", p.k, n, ErrBadComponents))
	}

	K, err := kernel.Gram(X, X, p.params)
	if err != nil {
		return opErrorf(op, err)
	}
	colMeans := columnMeans(K)
	allMean := 0.0
	for _, v := range colMeans {
		allMean += v
	}
	allMean /= float64(n)

	// K is symmetric, so row means equal column means.
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, K.At(i, j)-colMeans[j]-colMeans[i]+allMean)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return opErrorf(op, ErrFactorization)
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	values, vectors := topEigen(es.Values(nil), &vecs, p.k)
	flipCols(vectors)
	for i := range values {
		values[i] = max(values[i], 0)
	}

	embed := mat.NewDense(n, p.k, nil)
	embed.Apply(func(i, j int, _ float64) float64 {
		return vectors.At(i, j) * math.Sqrt(values[j])
	}, embed)

	p.fit = mat.DenseCopyOf(X)
	p.colMeans, p.allMean = colMeans, allMean
	p.values, p.vectors, p.embed = values, vectors, embed
	return nil
}

// FitTransform fits on X and returns its embedding α·√λ.
func (p *KernelPCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(p.embed), nil
}

// Transform projects new rows with the training centring statistics.
func (p *KernelPCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	const op = "KernelPCA.Transform"
	if p.fit == nil {
		return nil, opErrorf(op, ErrNotFitted)
	}
	_, d := X.Dims()
	if _, fd := p.fit.Dims(); d != fd {
		return nil, opErrorf(op, fmt.Errorf("%d features, fitted on %d: %w", d, fd, ErrDimensionMismatch))
	}
	K, err := kernel.Gram(X, p.fit, p.params)
	if err != nil {
		return nil, opErrorf(op, err)
	}
	m, n := K.Dims()
	for i := 0; i < m; i++ {
		row := K.RawRowView(i)
		rowMean := 0.0
		for _, v := range row {
			rowMean += v
		}
		rowMean /= float64(n)
		for j := range row {
			row[j] += p.allMean - p.colMeans[j] - rowMean
		}
	}

	scaled := mat.NewDense(n, p.k, nil)
	scaled.Apply(func(i, j int, _ float64) float64 {
		if p.values[j] == 0 {
			return 0
		}
		return p.vectors.At(i, j) / math.Sqrt(p.values[j])
	}, scaled)

	Z := mat.NewDense(m, p.k, nil)
	Z.Mul(K, scaled)
	return Z, nil
}

// Eigenvalues returns the retained eigenvalues of the centred Gram matrix.
func (p *KernelPCA) Eigenvalues() []float64 { return append([]float64(nil), p.values...) }

// Eigenvectors returns a copy of the n×k eigenvector matrix, or nil before Fit.
func (p *KernelPCA) Eigenvectors() *mat.Dense {
	if p.vectors == nil {
		return nil
	}
	return mat.DenseCopyOf(p.vectors)
}
