// Package pipeline chains a dimensionality reducer and a classifier into one
// estimator, and names the kernel-PCA hyperparameters the grid search explores.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/dimred/decomposition"
	"github.com/katalvlaran/dimred/kernel"
	"github.com/katalvlaran/dimred/linear"
	"gonum.org/v1/gonum/mat"
)

// ErrIncomplete indicates a Pipeline without a reducer or a classifier.
var ErrIncomplete = errors.New("pipeline: reducer and classifier are required")

// Transformer learns a projection and applies it to rows.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (*mat.Dense, error)
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// Classifier learns labels from rows.
type Classifier interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
	Score(X mat.Matrix, y []int) (float64, error)
}

// Pipeline feeds the reducer's output to the classifier.
type Pipeline struct {
	Reducer    Transformer
	Classifier Classifier
}

func (p *Pipeline) check() error {
	if p == nil || p.Reducer == nil || p.Classifier == nil {
		return ErrIncomplete
	}
	return nil
}

// Fit fits the reducer on X, then the classifier on the reduced rows.
func (p *Pipeline) Fit(X mat.Matrix, y []int) error {
	if err := p.check(); err != nil {
		return err
	}
	Z, err := p.Reducer.FitTransform(X)
	if err != nil {
		return fmt.Errorf("pipeline: reducer: %w", err)
	}
	if err := p.Classifier.Fit(Z, y); err != nil {
		return fmt.Errorf("pipeline: classifier: %w", err)
	}
	return nil
}

// Predict reduces X and classifies the result.
func (p *Pipeline) Predict(X mat.Matrix) ([]int, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	Z, err := p.Reducer.Transform(X)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reducer: %w", err)
	}
	return p.Classifier.Predict(Z)
}

// Score returns the classifier's accuracy on the reduced X.
func (p *Pipeline) Score(X mat.Matrix, y []int) (float64, error) {
	if err := p.check(); err != nil {
		return 0, err
	}
	Z, err := p.Reducer.Transform(X)
	if err != nil {
		return 0, fmt.Errorf("pipeline: reducer: %w", err)
	}
	return p.Classifier.Score(Z, y)
}

// Parameter names as reported by the grid search.
const (
	KeyGamma  = "kpca__gamma"
	KeyKernel = "kpca__kernel"
)

// KPCAParams is one grid point: the kernel family and its scale.
type KPCAParams struct {
	Kernel kernel.Kind
	Gamma  float64
}

// Params returns the named parameter mapping.
func (p KPCAParams) Params() map[string]any {
	return map[string]any{KeyGamma: p.Gamma, KeyKernel: p.Kernel.String()}
}

// KernelParams converts the grid point into kernel parameters.
func (p KPCAParams) KernelParams() kernel.Params { return kernel.New(p.Kernel, p.Gamma) }

// String renders the mapping with sorted keys, e.g.
// {'kpca__gamma': 0.043, 'kpca__kernel': 'rbf'}.
func (p KPCAParams) String() string {
	m := p.Params()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s': ", k)
		switch v := m[k].(type) {
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		default:
			fmt.Fprintf(&b, "'%v'", v)
		}
	}
	b.WriteByte('}')
	return b.String()
}

// KernelGrid enumerates the product of gammas and kernels in sorted-key
// order: gamma varies slowest, kernel fastest.
func KernelGrid(kernels []kernel.Kind, gammas []float64) []KPCAParams {
	out := make([]KPCAParams, 0, len(kernels)*len(gammas))
	for _, g := range gammas {
		for _, k := range kernels {
			out = append(out, KPCAParams{Kernel: k, Gamma: g})
		}
	}
	return out
}

// NewKPCALogReg builds kernel PCA (components, p) followed by logistic regression.
func NewKPCALogReg(components int, p KPCAParams, opts ...linear.Option) *Pipeline {
	return &Pipeline{
		Reducer:    decomposition.NewKernelPCA(components, p.KernelParams()),
		Classifier: linear.NewLogisticRegression(opts...),
	}
}
