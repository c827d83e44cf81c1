package modelselection

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultFolds is the fold count of the stratified splitter used when CV is nil.
const DefaultFolds = 3

// Estimator is anything that can be fitted on labelled rows and scored.
type Estimator interface {
	Fit(X mat.Matrix, y []int) error
	Score(X mat.Matrix, y []int) (float64, error)
}

// Evaluation reports one fitted-and-scored (candidate, fold) pair.
type Evaluation struct {
	Candidate int
	Fold      int
	Score     float64
	Elapsed   time.Duration
}

// CandidateResult aggregates the fold scores of one candidate.
type CandidateResult[P any] struct {
	Params     P
	FoldScores []float64
	Mean       float64
	Std        float64 // population standard deviation of FoldScores
	Rank       int     // 1 is best; equal means share a rank
}

// Result is the outcome of GridSearch.Fit.
type Result[P any] struct {
	Candidates    []CandidateResult[P]
	BestIndex     int
	BestParams    P
	BestScore     float64
	Evaluations   int
	BestEstimator Estimator // refitted on all rows
}

// GridSearch scores every candidate with k-fold cross-validation.
//
// Every (candidate, fold) pair is fitted and scored exactly once; the best
// candidate is the first one, in Candidates order, with the highest mean
// score. Results do not depend on Workers.
type GridSearch[P any] struct {
	Candidates []P
	Factory    func(P) (Estimator, error)
	// CV splits the rows; nil means StratifiedKFold{K: DefaultFolds}.
	CV Splitter
	// Workers bounds concurrent evaluations; ≤ 0 means GOMAXPROCS.
	Workers int
	// OnEvaluate, when set, is called after each evaluation. Calls are serialised.
	OnEvaluate func(Evaluation)
}

type split struct {
	xTrain, xTest *mat.Dense
	yTrain, yTest []int
}

// Fit runs the search on X (n×d) with labels y and refits the best candidate
// on all rows. The first failing evaluation cancels the rest and is returned.
func (g *GridSearch[P]) Fit(ctx context.Context, X mat.Matrix, y []int) (*Result[P], error) {
	if len(g.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if g.Factory == nil {
		return nil, ErrNoFactory
	}
	n, _ := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("GridSearch.Fit: %d rows, %d labels: %w", n, len(y), ErrDimensionMismatch)
	}
	cv := g.CV
	if cv == nil {
		cv = StratifiedKFold{K: DefaultFolds}
	}
	folds, err := cv.Folds(y)
	if err != nil {
		return nil, err
	}
	splits := make([]split, len(folds))
	for i, f := range folds {
		splits[i] = split{
			xTrain: takeRows(X, f.Train), yTrain: takeLabels(y, f.Train),
			xTest: takeRows(X, f.Test), yTest: takeLabels(y, f.Test),
		}
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scores := make([][]float64, len(g.Candidates))
	for i := range scores {
		scores[i] = make([]float64, len(folds))
	}
	var notify sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
schedule:
	for ci := range g.Candidates {
		for fi := range splits {
			if egCtx.Err() != nil {
				break schedule
			}
			ci, fi := ci, fi
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				start := time.Now()
				s, err := g.evaluate(g.Candidates[ci], splits[fi])
				if err != nil {
					return fmt.Errorf("modelselection: candidate %d fold %d: %w", ci, fi, err)
				}
				scores[ci][fi] = s
				if g.OnEvaluate != nil {
					notify.Lock()
					g.OnEvaluate(Evaluation{Candidate: ci, Fold: fi, Score: s, Elapsed: time.Since(start)})
					notify.Unlock()
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result[P]{
		Candidates:  make([]CandidateResult[P], len(g.Candidates)),
		Evaluations: len(g.Candidates) * len(folds),
	}
	for i, p := range g.Candidates {
		mean, std := stat.PopMeanStdDev(scores[i], nil)
		res.Candidates[i] = CandidateResult[P]{Params: p, FoldScores: scores[i], Mean: mean, Std: std}
		if i == 0 || mean > res.BestScore {
			res.BestIndex, res.BestScore = i, mean
		}
	}
	rank(res.Candidates)
	res.BestParams = g.Candidates[res.BestIndex]

	best, err := g.Factory(res.BestParams)
	if err != nil {
		return nil, fmt.Errorf("modelselection: refit: %w", err)
	}
	if err := best.Fit(X, y); err != nil {
		return nil, fmt.Errorf("modelselection: refit: %w", err)
	}
	res.BestEstimator = best
	return res, nil
}

func (g *GridSearch[P]) evaluate(p P, s split) (float64, error) {
	est, err := g.Factory(p)
	if err != nil {
		return 0, err
	}
	if err := est.Fit(s.xTrain, s.yTrain); err != nil {
		return 0, err
	}
	return est.Score(s.xTest, s.yTest)
}

// rank assigns competition ranks by descending mean (1, 2, 2, 4, ...).
func rank[P any](cs []CandidateResult[P]) {
	order := make([]int, len(cs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return cs[order[a]].Mean > cs[order[b]].Mean })
	for pos, idx := range order {
		if pos > 0 && cs[idx].Mean == cs[order[pos-1]].Mean {
			cs[idx].Rank = cs[order[pos-1]].Rank
			continue
		}
		cs[idx].Rank = pos + 1
	}
}

func takeRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		mat.Row(out.RawRowView(i), r, X)
	}
	return out
}

func takeLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
