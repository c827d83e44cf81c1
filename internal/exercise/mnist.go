package exercise

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/katalvlaran/dimred/dataset"
	"github.com/katalvlaran/dimred/decomposition"
	"github.com/katalvlaran/dimred/viz"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Figure file names.
const (
	FigureDigits         = "mnist_digits.png"
	FigurePCA            = "mnist_pca.png"
	FigureReconstruction = "mnist_reconstruction.png"
)

// MNISTReport summarises the digit exercises.
type MNISTReport struct {
	Train, Test            int
	ExplainedVarianceRatio []float64
	IncrementalComponents  int
	SamplesSeen            int
	// ReconstructionError is Σ (X − X̂)² over the training rows.
	ReconstructionError float64
	Figures             []string
}

// RunMNIST loads the digits, projects them with PCA and reconstructs them
// through IncrementalPCA.
func (r *Runner) RunMNIST(ctx context.Context) (*MNISTReport, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	cfg := r.Config.MNIST
	rep := &MNISTReport{IncrementalComponents: cfg.IncrementalComponents}
	log := r.log()

	var train, test *dataset.Images
	err := r.step(ctx, "load mnist", func() error {
		src, err := r.source()
		if err != nil {
			return err
		}
		all, err := src.Load(ctx)
		if err != nil {
			return err
		}
		train, test, err = all.Split(cfg.TrainSize)
		if err != nil {
			return err
		}
		rep.Train, rep.Test = train.Len(), test.Len()
		log.Info("mnist loaded",
			zap.Int("train", rep.Train), zap.Int("test", rep.Test),
			zap.Int("height", train.Height), zap.Int("width", train.Width))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.step(ctx, "digit samples", func() error {
		classes := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		idx, err := train.FirstOfEachClass(classes)
		if err != nil {
			return err
		}
		digits := make([]viz.Digit, len(idx))
		for k, i := range idx {
			if digits[k], err = digitOf(train, i, strconv.Itoa(classes[k])); err != nil {
				return err
			}
		}
		path := r.figure(FigureDigits)
		rep.Figures = append(rep.Figures, path)
		return viz.DigitRow(path, digits)
	})
	if err != nil {
		return nil, err
	}

	err = r.step(ctx, "pca", func() error {
		solver, err := decomposition.ParseSolver(cfg.Solver)
		if err != nil {
			return err
		}
		pca := decomposition.NewPCA(cfg.PCAComponents, decomposition.WithSolver(solver))
		Z, err := pca.FitTransform(train.X)
		if err != nil {
			return err
		}
		rep.ExplainedVarianceRatio = pca.ExplainedVarianceRatio()
		log.Info("pca fitted",
			zap.Stringer("solver", pca.SolverUsed()),
			zap.Float64s("explained_variance_ratio", rep.ExplainedVarianceRatio))
		fmt.Fprintln(r.stdout(), formatVector(rep.ExplainedVarianceRatio))

		path := r.figure(FigurePCA)
		rep.Figures = append(rep.Figures, path)
		return viz.ScatterByClass(path, viz.Labels{
			Title: "Projection of the First Two Principal Components",
			X:     "First Principal Component",
			Y:     "Second Principal Component",
		}, Z, train.Labels)
	})
	if err != nil {
		return nil, err
	}

	err = r.step(ctx, "incremental pca", func() error {
		ipca := decomposition.NewIncrementalPCA(cfg.IncrementalComponents, cfg.Batches,
			decomposition.WithBatchHook(func(i int, b decomposition.Batch) {
				log.Debug("batch folded", zap.Int("batch", i), zap.Int("start", b.Start), zap.Int("end", b.End))
			}))
		if err := ipca.Fit(train.X); err != nil {
			return err
		}
		Z, err := ipca.Transform(train.X)
		if err != nil {
			return err
		}
		Xhat, err := ipca.InverseTransform(Z)
		if err != nil {
			return err
		}
		rep.SamplesSeen = ipca.NSamplesSeen()
		if rep.ReconstructionError, err = decomposition.ReconstructionError(train.X, Xhat); err != nil {
			return err
		}
		log.Info("incremental pca fitted",
			zap.Int("components", cfg.IncrementalComponents),
			zap.Int("batches", cfg.Batches),
			zap.Int("samples_seen", rep.SamplesSeen),
			zap.Float64("noise_variance", ipca.NoiseVariance()),
			zap.Float64("reconstruction_error", rep.ReconstructionError))

		show := min(cfg.ShowDigits, train.Len())
		originals := make([]viz.Digit, show)
		recon := make([]viz.Digit, show)
		for i := 0; i < show; i++ {
			caption := strconv.Itoa(train.Labels[i])
			if originals[i], err = digitOf(train, i, caption); err != nil {
				return err
			}
			recon[i] = viz.Digit{
				Pixels:  mat.Row(nil, i, Xhat),
				Height:  train.Height,
				Width:   train.Width,
				Caption: caption,
			}
		}
		path := r.figure(FigureReconstruction)
		rep.Figures = append(rep.Figures, path)
		return viz.Reconstruction(path, originals, recon,
			viz.Inverted(), viz.RowTitles("Original Images", "Reconstructed Images"))
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func digitOf(im *dataset.Images, i int, caption string) (viz.Digit, error) {
	px, err := im.Image(i)
	if err != nil {
		return viz.Digit{}, err
	}
	return viz.Digit{Pixels: px, Height: im.Height, Width: im.Width, Caption: caption}, nil
}

// formatVector renders v as [a b ...] with 8 significant digits.
func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 8, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
