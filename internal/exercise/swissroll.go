package exercise

import (
	"context"
	"fmt"
	"strconv"

	"github.com/katalvlaran/dimred/dataset"
	"github.com/katalvlaran/dimred/decomposition"
	"github.com/katalvlaran/dimred/kernel"
	"github.com/katalvlaran/dimred/modelselection"
	"github.com/katalvlaran/dimred/pipeline"
	"github.com/katalvlaran/dimred/viz"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Figure file names.
const (
	FigureSwissRoll  = "swiss_roll.png"
	FigureKernelPCA  = "swiss_roll_kpca.png"
	FigureBestKernel = "swiss_roll_kpca_best.png"
)

// KernelProjection records one kernel of the sweep.
type KernelProjection struct {
	Kernel      kernel.Params
	Eigenvalues []float64
}

// SwissRollReport summarises the manifold exercises.
type SwissRollReport struct {
	Samples     int
	Projections []KernelProjection
	Classes     int
	Best        pipeline.KPCAParams
	BestScore   float64
	Evaluations int
	Figures     []string
}

// RunSwissRoll generates the roll, sweeps kernel PCA over the configured
// kernels and grid-searches kernel PCA → logistic regression.
func (r *Runner) RunSwissRoll(ctx context.Context) (*SwissRollReport, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	cfg := r.Config.SwissRoll
	rep := &SwissRollReport{Samples: cfg.Samples}
	log := r.log()

	var (
		X *mat.Dense
		t []float64
	)
	err := r.step(ctx, "swiss roll", func() error {
		var err error
		if X, t, err = dataset.SwissRoll(cfg.Samples, cfg.Noise, cfg.Seed); err != nil {
			return err
		}
		path := r.figure(FigureSwissRoll)
		rep.Figures = append(rep.Figures, path)
		return viz.ScatterByValue(path, viz.Labels{Title: "Swiss Roll Dataset", X: "X-axis", Y: "Y-axis"},
			mat.Col(nil, 0, X), mat.Col(nil, 2, X), t)
	})
	if err != nil {
		return nil, err
	}

	err = r.step(ctx, "kernel pca sweep", func() error {
		panels := make([]viz.Panel, 0, len(cfg.Kernels))
		for _, k := range cfg.Kernels {
			p := kernel.New(k, cfg.Gamma)
			kp := decomposition.NewKernelPCA(cfg.Components, p)
			Z, err := kp.FitTransform(X)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			rep.Projections = append(rep.Projections, KernelProjection{Kernel: p, Eigenvalues: kp.Eigenvalues()})
			log.Info("kernel pca fitted", zap.Stringer("kernel", p), zap.Float64s("eigenvalues", kp.Eigenvalues()))
			panels = append(panels, viz.Panel{
				Labels: viz.Labels{
					Title: fmt.Sprintf("kPCA with %s kernel", k),
					X:     "First Principal Component",
					Y:     "Second Principal Component",
				},
				Z:      Z,
				Values: t,
			})
		}
		path := r.figure(FigureKernelPCA)
		rep.Figures = append(rep.Figures, path)
		return viz.ScatterPanels(path, panels)
	})
	if err != nil {
		return nil, err
	}

	err = r.step(ctx, "grid search", func() error {
		y, err := dataset.BinLabels(t, cfg.Bins)
		if err != nil {
			return err
		}
		rep.Classes = countDistinct(y)
		gammas, err := cfg.Search.Gamma.Values()
		if err != nil {
			return err
		}
		grid := pipeline.KernelGrid(cfg.Search.Kernels, gammas)
		log.Info("grid search started",
			zap.Int("candidates", len(grid)), zap.Int("folds", cfg.Search.Folds),
			zap.Int("classes", rep.Classes), zap.Int("workers", r.Config.Workers))

		gs := &modelselection.GridSearch[pipeline.KPCAParams]{
			Candidates: grid,
			Factory: func(p pipeline.KPCAParams) (modelselection.Estimator, error) {
				return pipeline.NewKPCALogReg(cfg.Components, p), nil
			},
			CV:      modelselection.StratifiedKFold{K: cfg.Search.Folds},
			Workers: r.Config.Workers,
			OnEvaluate: func(e modelselection.Evaluation) {
				log.Debug("fold evaluated",
					zap.Stringer("params", grid[e.Candidate]),
					zap.Int("fold", e.Fold),
					zap.Float64("score", e.Score),
					zap.Duration("elapsed", e.Elapsed))
			},
		}
		res, err := gs.Fit(ctx, X, y)
		if err != nil {
			return err
		}
		rep.Best, rep.BestScore, rep.Evaluations = res.BestParams, res.BestScore, res.Evaluations
		log.Info("grid search finished",
			zap.Stringer("best", res.BestParams),
			zap.Float64("best_score", res.BestScore),
			zap.Int("evaluations", res.Evaluations))
		fmt.Fprintln(r.stdout(), res.BestParams)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.step(ctx, "best kernel pca", func() error {
		kp := decomposition.NewKernelPCA(cfg.Components, rep.Best.KernelParams())
		Z, err := kp.FitTransform(X)
		if err != nil {
			return err
		}
		path := r.figure(FigureBestKernel)
		rep.Figures = append(rep.Figures, path)
		return viz.ScatterPanels(path, []viz.Panel{{
			Labels: viz.Labels{
				Title: fmt.Sprintf("kPCA with %s kernel and gamma=%s",
					rep.Best.Kernel, strconv.FormatFloat(rep.Best.Gamma, 'g', -1, 64)),
				X: "First Principal Component",
				Y: "Second Principal Component",
			},
			Z:      Z,
			Values: t,
		}})
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func countDistinct(y []int) int {
	seen := make(map[int]struct{}, len(y))
	for _, v := range y {
		seen[v] = struct{}{}
	}
	return len(seen)
}
