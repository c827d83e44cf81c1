// Package kernel defines the similarity functions used by kernel PCA.
//
// Supported kinds and their definitions (γ = Gamma, c₀ = Coef0, d = Degree):
//
//	linear   k(x,y) = x·y
//	rbf      k(x,y) = exp(−γ‖x−y‖²)
//	sigmoid  k(x,y) = tanh(γ x·y + c₀)
//	poly     k(x,y) = (γ x·y + c₀)^d
//	cosine   k(x,y) = x·y / (‖x‖‖y‖), 0 when either norm is 0
//
// A zero Gamma resolves to 1/n_features at evaluation time, so one Params
// value can serve inputs of any width.
package kernel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Kind identifies a kernel family.
type Kind int

const (
	Linear Kind = iota
	RBF
	Sigmoid
	Poly
	Cosine
)

var kindNames = [...]string{"linear", "rbf", "sigmoid", "poly", "cosine"}

var (
	// ErrUnknownKernel indicates an unsupported kernel name or Kind value.
	ErrUnknownKernel = errors.New("kernel: unknown kernel")

	// ErrDimensionMismatch indicates operands with different feature counts.
	ErrDimensionMismatch = errors.New("kernel: dimension mismatch")

	// ErrBadParams indicates a negative or non-finite parameter.
	ErrBadParams = errors.New("kernel: invalid parameters")
)

// String returns the lower-case kernel name ("rbf", ...).
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kernel name (case-insensitive) to its Kind.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range kindNames {
		if s == n {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownKernel)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("Kind(%d): %w", int(k), ErrUnknownKernel)
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so kinds can be read from
// configuration files by name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Default parameter values.
const (
	DefaultCoef0  = 1.0
	DefaultDegree = 3
)

// Params fully describes a kernel.
type Params struct {
	Kind   Kind
	Gamma  float64 // 0 ⇒ 1/n_features
	Coef0  float64 // sigmoid/poly offset
	Degree int     // poly degree
}

// New returns Params for kind with the given gamma and default Coef0/Degree.
func New(kind Kind, gamma float64) Params {
	return Params{Kind: kind, Gamma: gamma, Coef0: DefaultCoef0, Degree: DefaultDegree}
}

// Validate checks the kind and parameter ranges.
func (p Params) Validate() error {
	if p.Kind < 0 || int(p.Kind) >= len(kindNames) {
		return fmt.Errorf("Kind(%d): %w", int(p.Kind), ErrUnknownKernel)
	}
	if p.Gamma < 0 || math.IsNaN(p.Gamma) || math.IsInf(p.Gamma, 0) {
		return fmt.Errorf("gamma=%g: %w", p.Gamma, ErrBadParams)
	}
	if math.IsNaN(p.Coef0) || math.IsInf(p.Coef0, 0) {
		return fmt.Errorf("coef0=%g: %w", p.Coef0, ErrBadParams)
	}
	if p.Kind == Poly && p.Degree < 1 {
		return fmt.Errorf("degree=%d: %w", p.Degree, ErrBadParams)
	}
	return nil
}

// String renders the kernel with the parameters it actually uses.
func (p Params) String() string {
	switch p.Kind {
	case RBF:
		return fmt.Sprintf("rbf(gamma=%g)", p.Gamma)
	case Sigmoid:
		return fmt.Sprintf("sigmoid(gamma=%g, coef0=%g)", p.Gamma, p.Coef0)
	case Poly:
		return fmt.Sprintf("poly(gamma=%g, coef0=%g, degree=%d)", p.Gamma, p.Coef0, p.Degree)
	default:
		return p.Kind.String()
	}
}

// gamma resolves the zero-value default against the feature count.
func (p Params) gamma(features int) float64 {
	if p.Gamma == 0 {
		return 1 / float64(features)
	}
	return p.Gamma
}

// Gram returns K with K[i,j] = k(X_i, Y_j) for the rows of X (n×d) and Y (m×d).
//
// Complexity: O(n·m·d) time, O(n·m) space.
func Gram(X, Y mat.Matrix, p Params) (*mat.Dense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n, dx := X.Dims()
	m, dy := Y.Dims()
	if dx != dy {
		return nil, fmt.Errorf("Gram %dx%d vs %dx%d: %w", n, dx, m, dy, ErrDimensionMismatch)
	}

	// Dot products first; every kernel is a function of them (and the norms).
	K := mat.NewDense(n, m, nil)
	K.Mul(X, Y.T())
	if p.Kind == Linear {
		return K, nil
	}

	g := p.gamma(dx)
	switch p.Kind {
	case RBF, Cosine:
		xn := rowSquaredNorms(X)
		yn := rowSquaredNorms(Y)
		K.Apply(func(i, j int, dot float64) float64 {
			if p.Kind == Cosine {
				den := math.Sqrt(xn[i] * yn[j])
				if den == 0 {
					return 0
				}
				return dot / den
			}
			d2 := xn[i] + yn[j] - 2*dot
			if d2 < 0 {
				d2 = 0 // round-off on near-identical rows
			}
			return math.Exp(-g * d2)
		}, K)
	case Sigmoid:
		K.Apply(func(_, _ int, dot float64) float64 {
			return math.Tanh(g*dot + p.Coef0)
		}, K)
	case Poly:
		K.Apply(func(_, _ int, dot float64) float64 {
			return math.Pow(g*dot+p.Coef0, float64(p.Degree))
		}, K)
	}

	return K, nil
}

func rowSquaredNorms(X mat.Matrix) []float64 {
	r, c := X.Dims()
	out := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out[i] = floats.Dot(row, row)
	}
	return out
}
