package decomposition

import (
	"fmt"

	"github.com/katalvlaran/dimred/matrix"
	"gonum.org/v1/gonum/mat"
)

// Solver selects how PCA extracts the principal axes.
type Solver int

const (
	// SolverAuto picks SolverCovarianceEigh when n ≥ 10·d and d ≤ 1000,
	// SolverFull otherwise.
	SolverAuto Solver = iota
	// SolverFull takes the thin SVD of the centered data.
	SolverFull
	// SolverCovarianceEigh eigen-decomposes the d×d sample covariance.
	SolverCovarianceEigh
	// SolverJacobi eigen-decomposes the covariance with matrix.Eigen.
	// O(d³) per sweep; meant for small feature counts.
	SolverJacobi
)

var solverNames = [...]string{"auto", "full", "covariance_eigh", "jacobi"}

func (s Solver) String() string {
	if s < 0 || int(s) >= len(solverNames) {
		return fmt.Sprintf("Solver(%d)", int(s))
	}
	return solverNames[s]
}

// ParseSolver maps a solver name to its value.
func ParseSolver(name string) (Solver, error) {
	for i, s := range solverNames {
		if s == name {
			return Solver(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownSolver)
}

// jacobiTol is the off-diagonal tolerance of the Jacobi path.
const jacobiTol = 1e-10

// PCAOption configures a PCA.
type PCAOption func(*PCA)

// WithSolver selects the PCA solver (default SolverAuto).
func WithSolver(s Solver) PCAOption {
	return func(p *PCA) { p.solver = s }
}

// PCA projects data onto its top-k principal components.
//
// After Fit:
//   - Components() is k×d with orthonormal rows, sorted by explained variance.
//   - ExplainedVariance()[i] = σᵢ²/(n−1) and ExplainedVarianceRatio()[i] is its
//     share of the total variance: each in [0,1], non-increasing, summing to ≤ 1.
type PCA struct {
	k      int
	solver Solver

	components *mat.Dense // k×d
	mean       []float64
	variance   []float64
	ratio      []float64
	singular   []float64
	used       Solver
	fitted     bool
}

// NewPCA returns an unfitted PCA keeping k components.
func NewPCA(k int, opts ...PCAOption) *PCA {
	p := &PCA{k: k, solver: SolverAuto}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *PCA) resolveSolver(n, d int) Solver {
	if p.solver != SolverAuto {
		return p.solver
	}
	if d <= 1000 && n >= 10*d {
		return SolverCovarianceEigh
	}
	return SolverFull
}

// Fit learns the mean and the principal axes of X (n×d).
func (p *PCA) Fit(X mat.Matrix) error {
	const op = "PCA.Fit"
	n, d := X.Dims()
	if n < 2 {
		return opErrorf(op, ErrTooFewSamples)
	}
	if p.k < 1 || p.k > min(n, d) {
		return opErrorf(op, fmt.Errorf("k=%d for %dx%d: %w", p.k, n, d, ErrBadComponents))
	}

	mean := columnMeans(X)
	Xc := centered(X, mean)

	var (
		components *mat.Dense
		variances  []float64
		total      float64
		err        error
	)
	used := p.resolveSolver(n, d)
	switch used {
	case SolverFull:
		components, variances, total, err = pcaSVD(Xc, p.k)
	case SolverCovarianceEigh:
		components, variances, total, err = pcaCovarianceEigh(Xc, p.k)
	case SolverJacobi:
		components, variances, total, err = pcaJacobi(X, p.k)
	default:
		err = fmt.Errorf("%v: %w", used, ErrUnknownSolver)
	}
	if err != nil {
		return opErrorf(op, err)
	}
	flipRows(components)

	ratio := make([]float64, p.k)
	singular := make([]float64, p.k)
	for i, v := range variances {
		if total > 0 {
			ratio[i] = v / total
		}
		singular[i] = sqrtNonNeg(v * float64(n-1))
	}

	p.components, p.mean, p.variance, p.ratio, p.singular = components, mean, variances, ratio, singular
	p.used, p.fitted = used, true
	return nil
}

// pcaSVD returns the top-k right singular vectors of the centered data.
func pcaSVD(Xc *mat.Dense, k int) (*mat.Dense, []float64, float64, error) {
	n, d := Xc.Dims()
	s, vt, ok := thinSVD(Xc)
	if !ok {
		return nil, nil, 0, ErrFactorization
	}
	denom := float64(n - 1)
	total := 0.0
	for _, v := range s {
		total += v * v / denom
	}
	variances := make([]float64, k)
	for i := range variances {
		variances[i] = s[i] * s[i] / denom
	}
	return mat.DenseCopyOf(vt.Slice(0, k, 0, d)), variances, total, nil
}

// pcaCovarianceEigh eigen-decomposes Xcᵀ·Xc/(n−1).
func pcaCovarianceEigh(Xc *mat.Dense, k int) (*mat.Dense, []float64, float64, error) {
	n, d := Xc.Dims()
	cov := mat.NewSymDense(d, nil)
	cov.SymOuterK(1/float64(n-1), Xc.T())

	var es mat.EigenSym
	if ok := es.Factorize(cov, true); !ok {
		return nil, nil, 0, ErrFactorization
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	vals, top := topEigen(es.Values(nil), &vecs, k)
	for i := range vals {
		vals[i] = max(vals[i], 0)
	}
	return mat.DenseCopyOf(top.T()), vals, mat.Trace(cov), nil
}

// pcaJacobi runs the covariance route through the matrix package.
func pcaJacobi(X mat.Matrix, k int) (*mat.Dense, []float64, float64, error) {
	src, err := matrix.FromGonum(X)
	if err != nil {
		return nil, nil, 0, err
	}
	cov, _, err := matrix.Covariance(src)
	if err != nil {
		return nil, nil, 0, err
	}
	d := cov.Rows()
	vals, vecs, err := matrix.Eigen(cov, jacobiTol, matrix.EigenIterations(d))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %w", ErrFactorization, err)
	}
	g, err := matrix.ToGonum(vecs)
	if err != nil {
		return nil, nil, 0, err
	}
	top, vectors := topEigen(vals, g, k)
	total := 0.0
	for i := 0; i < d; i++ {
		v, err := cov.At(i, i)
		if err != nil {
			return nil, nil, 0, err
		}
		total += v
	}
	for i := range top {
		top[i] = max(top[i], 0)
	}
	return mat.DenseCopyOf(vectors.T()), top, total, nil
}

// Transform projects X onto the components: (X − mean)·Componentsᵀ.
func (p *PCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !p.fitted {
		return nil, opErrorf("PCA.Transform", ErrNotFitted)
	}
	return project(X, p.mean, p.components, "PCA.Transform")
}

// FitTransform is Fit followed by Transform on the same data.
func (p *PCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform maps reduced rows back to the input space: Z·Components + mean.
func (p *PCA) InverseTransform(Z mat.Matrix) (*mat.Dense, error) {
	if !p.fitted {
		return nil, opErrorf("PCA.InverseTransform", ErrNotFitted)
	}
	return reconstruct(Z, p.mean, p.components, "PCA.InverseTransform")
}

// Components returns a copy of the k×d component matrix.
func (p *PCA) Components() *mat.Dense {
	if !p.fitted {
		return nil
	}
	return mat.DenseCopyOf(p.components)
}

// Mean returns a copy of the per-feature training mean.
func (p *PCA) Mean() []float64 { return append([]float64(nil), p.mean...) }

// ExplainedVariance returns the variance captured by each component.
func (p *PCA) ExplainedVariance() []float64 { return append([]float64(nil), p.variance...) }

// ExplainedVarianceRatio returns each component's share of the total variance.
func (p *PCA) ExplainedVarianceRatio() []float64 { return append([]float64(nil), p.ratio...) }

// SingularValues returns the singular values of the centered training data.
func (p *PCA) SingularValues() []float64 { return append([]float64(nil), p.singular...) }

// SolverUsed reports the solver that served the last Fit.
func (p *PCA) SolverUsed() Solver { return p.used }

// project computes (X − mean)·Cᵀ for a k×d component matrix C.
func project(X mat.Matrix, mean []float64, C *mat.Dense, op string) (*mat.Dense, error) {
	n, d := X.Dims()
	k, cd := C.Dims()
	if d != cd {
		return nil, opErrorf(op, fmt.Errorf("%d features, fitted on %d: %w", d, cd, ErrDimensionMismatch))
	}
	Z := mat.NewDense(n, k, nil)
	Z.Mul(centered(X, mean), C.T())
	return Z, nil
}

// reconstruct computes Z·C + mean for a k×d component matrix C.
func reconstruct(Z mat.Matrix, mean []float64, C *mat.Dense, op string) (*mat.Dense, error) {
	n, zk := Z.Dims()
	k, d := C.Dims()
	if zk != k {
		return nil, opErrorf(op, fmt.Errorf("%d columns, %d components: %w", zk, k, ErrDimensionMismatch))
	}
	X := mat.NewDense(n, d, nil)
	X.Mul(Z, C)
	addRowVector(X, mean)
	return X, nil
}
