package decomposition

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// IncrementalOption configures an IncrementalPCA.
type IncrementalOption func(*IncrementalPCA)

// WithBatchHook registers fn to run after each chunk Fit consumes.
func WithBatchHook(fn func(index int, b Batch)) IncrementalOption {
	return func(p *IncrementalPCA) { p.onBatch = fn }
}

// IncrementalPCA keeps a running rank-k SVD of the rows seen so far.
//
// Each PartialFit stacks
//
//	[ diag(S)·Vᵀ ; X − mean(X) ; √(m·b/(m+b))·(μ − mean(X)) ]
//
// (m rows seen, b rows in the chunk, μ the running mean) and keeps the top k
// right singular vectors of the stack. Earlier chunks are never retained.
type IncrementalPCA struct {
	k       int
	batches int
	onBatch func(int, Batch)

	seen       int
	features   int
	mean       []float64
	variance   []float64 // per-feature population variance of all seen rows
	components *mat.Dense
	singular   []float64
	explained  []float64
	ratio      []float64
	noise      float64
}

// NewIncrementalPCA returns an unfitted model keeping k components; Fit
// feeds the data in the given number of chunks.
func NewIncrementalPCA(k, batches int, opts ...IncrementalOption) *IncrementalPCA {
	p := &IncrementalPCA{k: k, batches: batches}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Fit resets the model and folds X in chunk by chunk.
func (p *IncrementalPCA) Fit(X mat.Matrix) error {
	n, _ := X.Dims()
	chunks, err := Batches(n, p.batches)
	if err != nil {
		return opErrorf("IncrementalPCA.Fit", err)
	}
	p.reset()
	for i, b := range chunks {
		if err := p.PartialFit(rowRange(X, b.Start, b.End)); err != nil {
			return fmt.Errorf("batch %d [%d,%d): %w", i, b.Start, b.End, err)
		}
		if p.onBatch != nil {
			p.onBatch(i, b)
		}
	}
	return nil
}

func (p *IncrementalPCA) reset() {
	*p = IncrementalPCA{k: p.k, batches: p.batches, onBatch: p.onBatch}
}

// PartialFit folds one chunk of rows into the model.
func (p *IncrementalPCA) PartialFit(X mat.Matrix) error {
	const op = "IncrementalPCA.PartialFit"
	b, d := X.Dims()
	if p.seen == 0 {
		if p.k < 1 || p.k > d {
			return opErrorf(op, fmt.Errorf("k=%d with %d features: %w", p.k, d, ErrBadComponents))
		}
		if b < p.k {
			return opErrorf(op, fmt.Errorf("%d rows, k=%d: %w", b, p.k, ErrBatchTooSmall))
		}
		p.features = d
		p.mean = make([]float64, d)
		p.variance = make([]float64, d)
	} else if d != p.features {
		return opErrorf(op, fmt.Errorf("%d features, fitted on %d: %w", d, p.features, ErrDimensionMismatch))
	}
	if b == 0 {
		return nil
	}

	batchMean := columnMeans(X)
	newMean, newVar, total := p.updateMoments(X, batchMean)

	// Assemble the stacked matrix.
	rows := b
	if p.seen > 0 {
		rows += p.k + 1
	}
	stack := mat.NewDense(rows, d, nil)
	off := 0
	if p.seen > 0 {
		for i := 0; i < p.k; i++ {
			for j := 0; j < d; j++ {
				stack.Set(i, j, p.singular[i]*p.components.At(i, j))
			}
		}
		off = p.k
	}
	for i := 0; i < b; i++ {
		for j := 0; j < d; j++ {
			stack.Set(off+i, j, X.At(i, j)-batchMean[j])
		}
	}
	if p.seen > 0 {
		w := sqrtNonNeg(float64(p.seen) / float64(total) * float64(b))
		for j := 0; j < d; j++ {
			stack.Set(rows-1, j, w*(p.mean[j]-batchMean[j]))
		}
	}

	s, vt, ok := thinSVD(stack)
	if !ok {
		return opErrorf(op, ErrFactorization)
	}
	flipRows(vt)

	totalVar := 0.0
	for _, v := range newVar {
		totalVar += v * float64(total)
	}
	denom := float64(total - 1)
	explained := make([]float64, len(s))
	for i, v := range s {
		if denom > 0 {
			explained[i] = v * v / denom
		}
	}

	p.components = mat.DenseCopyOf(vt.Slice(0, p.k, 0, d))
	p.singular = append([]float64(nil), s[:p.k]...)
	p.explained = append([]float64(nil), explained[:p.k]...)
	p.ratio = make([]float64, p.k)
	if totalVar > 0 {
		for i := range p.ratio {
			p.ratio[i] = s[i] * s[i] / totalVar
		}
	}
	p.noise = 0
	if p.k < len(s) && p.k != b && p.k != d {
		for _, v := range explained[p.k:] {
			p.noise += v
		}
		p.noise /= float64(len(explained) - p.k)
	}
	p.mean, p.variance, p.seen = newMean, newVar, total
	return nil
}

// updateMoments merges the chunk's column moments into the running ones
// (Chan et al. pairwise update) and returns the new mean, variance and count.
func (p *IncrementalPCA) updateMoments(X mat.Matrix, batchMean []float64) ([]float64, []float64, int) {
	b, d := X.Dims()
	m := float64(p.seen)
	nb := float64(b)
	total := p.seen + b
	t := float64(total)

	mean := make([]float64, d)
	variance := make([]float64, d)
	for j := 0; j < d; j++ {
		ss := 0.0
		for i := 0; i < b; i++ {
			dv := X.At(i, j) - batchMean[j]
			ss += dv * dv
		}
		delta := batchMean[j] - p.mean[j]
		mean[j] = p.mean[j] + delta*nb/t
		m2 := p.variance[j]*m + ss + delta*delta*m*nb/t
		variance[j] = m2 / t
	}
	return mean, variance, total
}

// Transform projects X onto the components: (X − mean)·Componentsᵀ.
func (p *IncrementalPCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	if p.seen == 0 {
		return nil, opErrorf("IncrementalPCA.Transform", ErrNotFitted)
	}
	return project(X, p.mean, p.components, "IncrementalPCA.Transform")
}

// FitTransform is Fit followed by Transform on the same data.
func (p *IncrementalPCA) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform maps reduced rows back to the input space.
func (p *IncrementalPCA) InverseTransform(Z mat.Matrix) (*mat.Dense, error) {
	if p.seen == 0 {
		return nil, opErrorf("IncrementalPCA.InverseTransform", ErrNotFitted)
	}
	return reconstruct(Z, p.mean, p.components, "IncrementalPCA.InverseTransform")
}

// NSamplesSeen reports how many rows have been folded in.
func (p *IncrementalPCA) NSamplesSeen() int { return p.seen }

// Components returns a copy of the k×d component matrix, or nil before the first chunk.
func (p *IncrementalPCA) Components() *mat.Dense {
	if p.components == nil {
		return nil
	}
	return mat.DenseCopyOf(p.components)
}

func (p *IncrementalPCA) Mean() []float64              { return append([]float64(nil), p.mean...) }
func (p *IncrementalPCA) Variance() []float64          { return append([]float64(nil), p.variance...) }
func (p *IncrementalPCA) SingularValues() []float64    { return append([]float64(nil), p.singular...) }
func (p *IncrementalPCA) ExplainedVariance() []float64 { return append([]float64(nil), p.explained...) }

// ExplainedVarianceRatio returns each component's share of the total variance seen.
func (p *IncrementalPCA) ExplainedVarianceRatio() []float64 {
	return append([]float64(nil), p.ratio...)
}

// NoiseVariance is the mean variance of the discarded directions of the last update.
func (p *IncrementalPCA) NoiseVariance() float64 { return p.noise }
