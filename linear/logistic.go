// Package linear provides the multinomial logistic-regression classifier that
// scores kernel-PCA embeddings during the grid search.
//
// The model minimises the mean cross-entropy of a softmax over K classes plus
// the L2 penalty ‖W‖²/(2·C·n) on the weights (intercepts unpenalised). This has
// the same minimiser as C·Σ loss + ½‖W‖². The optimiser is gonum's L-BFGS.
package linear

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrSingleClass indicates training labels with fewer than two distinct classes.
	ErrSingleClass = errors.New("linear: need at least two classes")

	// ErrDimensionMismatch indicates mismatched row counts or feature widths.
	ErrDimensionMismatch = errors.New("linear: dimension mismatch")

	// ErrNotFitted indicates prediction before Fit.
	ErrNotFitted = errors.New("linear: model not fitted")

	// ErrBadParams indicates a non-positive C, MaxIter or Tol.
	ErrBadParams = errors.New("linear: invalid parameters")

	// ErrOptimize indicates that L-BFGS returned no usable point.
	ErrOptimize = errors.New("linear: optimisation failed")
)

// Defaults follow the usual lbfgs logistic-regression settings.
const (
	DefaultC       = 1.0
	DefaultMaxIter = 100
	DefaultTol     = 1e-4
)

// Option configures a LogisticRegression.
type Option func(*LogisticRegression)

// WithC sets the inverse regularisation strength.
func WithC(c float64) Option { return func(m *LogisticRegression) { m.c = c } }

// WithMaxIter caps the number of L-BFGS major iterations.
func WithMaxIter(n int) Option { return func(m *LogisticRegression) { m.maxIter = n } }

// WithTol sets the gradient-norm threshold for convergence.
func WithTol(tol float64) Option { return func(m *LogisticRegression) { m.tol = tol } }

// LogisticRegression is a multinomial (softmax) linear classifier.
type LogisticRegression struct {
	c       float64
	maxIter int
	tol     float64

	classes    []int
	weights    *mat.Dense // d×K
	intercepts []float64  // K
	iterations int
	converged  bool
}

// NewLogisticRegression returns an unfitted classifier.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	m := &LogisticRegression{c: DefaultC, maxIter: DefaultMaxIter, tol: DefaultTol}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Fit learns weights and intercepts from X (n×d) and labels y (len n).
func (m *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	const op = "LogisticRegression.Fit"
	if m.c <= 0 || m.maxIter < 1 || m.tol <= 0 {
		return fmt.Errorf("%s: C=%g maxIter=%d tol=%g: %w", op, m.c, m.maxIter, m.tol, ErrBadParams)
	}
	n, d := X.Dims()
	if n != len(y) {
		return fmt.Errorf("%s: %d rows, %d labels: %w", op, n, len(y), ErrDimensionMismatch)
	}
	classes := uniqueSorted(y)
	if len(classes) < 2 {
		return fmt.Errorf("%s: %w", op, ErrSingleClass)
	}
	k := len(classes)
	index := make(map[int]int, k)
	for i, c := range classes {
		index[c] = i
	}
	target := make([]int, n)
	for i, v := range y {
		target[i] = index[v]
	}

	obj := &objective{X: mat.DenseCopyOf(X), y: target, n: n, d: d, k: k, c: m.c}
	problem := optimize.Problem{Func: obj.loss, Grad: obj.grad}
	settings := &optimize.Settings{
		GradientThreshold: m.tol,
		MajorIterations:   m.maxIter,
	}
	x0 := make([]float64, (d+1)*k)
	res, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if res == nil || !finite(res.X) {
		if err == nil {
			err = errors.New("non-finite solution")
		}
		return fmt.Errorf("%s: %w: %w", op, ErrOptimize, err)
	}

	params := append([]float64(nil), res.X...)
	m.classes = classes
	m.weights = mat.NewDense(d, k, params[:d*k])
	m.intercepts = params[d*k:]
	m.iterations = res.Stats.MajorIterations
	// Line-search stalls at the optimum surface as errors; the point is kept.
	m.converged = err == nil && res.Status == optimize.GradientThreshold
	return nil
}

// decision returns the n×K logits X·W + b.
func (m *LogisticRegression) decision(X mat.Matrix, op string) (*mat.Dense, error) {
	if m.weights == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFitted)
	}
	n, d := X.Dims()
	wd, k := m.weights.Dims()
	if d != wd {
		return nil, fmt.Errorf("%s: %d features, fitted on %d: %w", op, d, wd, ErrDimensionMismatch)
	}
	Z := mat.NewDense(n, k, nil)
	Z.Mul(X, m.weights)
	for i := 0; i < n; i++ {
		floats.Add(Z.RawRowView(i), m.intercepts)
	}
	return Z, nil
}

// PredictProba returns the n×K class probabilities, columns ordered as Classes().
func (m *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	Z, err := m.decision(X, "LogisticRegression.PredictProba")
	if err != nil {
		return nil, err
	}
	n, _ := Z.Dims()
	for i := 0; i < n; i++ {
		softmax(Z.RawRowView(i))
	}
	return Z, nil
}

// Predict returns the most probable class of every row.
func (m *LogisticRegression) Predict(X mat.Matrix) ([]int, error) {
	Z, err := m.decision(X, "LogisticRegression.Predict")
	if err != nil {
		return nil, err
	}
	n, _ := Z.Dims()
	out := make([]int, n)
	for i := range out {
		out[i] = m.classes[floats.MaxIdx(Z.RawRowView(i))]
	}
	return out, nil
}

// Score returns the accuracy of Predict(X) against y.
func (m *LogisticRegression) Score(X mat.Matrix, y []int) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return Accuracy(y, pred)
}

// Classes returns the sorted distinct training labels.
func (m *LogisticRegression) Classes() []int { return append([]int(nil), m.classes...) }

// Coef returns a copy of the d×K weight matrix, or nil before Fit.
func (m *LogisticRegression) Coef() *mat.Dense {
	if m.weights == nil {
		return nil
	}
	return mat.DenseCopyOf(m.weights)
}

// Intercepts returns the per-class intercepts.
func (m *LogisticRegression) Intercepts() []float64 { return append([]float64(nil), m.intercepts...) }

// Iterations reports the L-BFGS major iterations of the last Fit.
func (m *LogisticRegression) Iterations() int { return m.iterations }

// Converged reports whether the last Fit met the gradient threshold.
func (m *LogisticRegression) Converged() bool { return m.converged }

// Accuracy returns the fraction of positions where pred equals truth.
func Accuracy(truth, pred []int) (float64, error) {
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("Accuracy: %d vs %d: %w", len(truth), len(pred), ErrDimensionMismatch)
	}
	if len(truth) == 0 {
		return 0, nil
	}
	hits := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{}, len(y))
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// softmax replaces z with its softmax in place and returns log Σ exp(z).
func softmax(z []float64) float64 {
	lse := floats.LogSumExp(z)
	for j := range z {
		z[j] = math.Exp(z[j] - lse)
	}
	return lse
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
