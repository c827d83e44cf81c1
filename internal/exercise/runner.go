// Package exercise runs the dimensionality-reduction exercises step by step:
// the MNIST projections and the Swiss-roll kernel sweep with its grid search.
//
// Figures go to Config.OutDir; the two console results (the explained-variance
// pair and the best grid parameters) go to Stdout; everything else is logged.
// The first failing step aborts the run.
package exercise

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/katalvlaran/dimred/dataset"
	"github.com/katalvlaran/dimred/internal/config"
	"go.uber.org/zap"
)

// Runner executes the exercises with one configuration.
type Runner struct {
	Config *config.Config
	Logger *zap.Logger
	Stdout io.Writer
	// Source overrides the MNIST loader built from Config.MNIST.
	Source dataset.Source
}

// Report collects both exercise reports of Run.
type Report struct {
	MNIST     *MNISTReport
	SwissRoll *SwissRollReport
}

// Run executes RunMNIST then RunSwissRoll.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	m, err := r.RunMNIST(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.RunSwissRoll(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{MNIST: m, SwissRoll: s}, nil
}

func (r *Runner) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) check() error {
	if r.Config == nil {
		return fmt.Errorf("exercise: nil config: %w", config.ErrInvalid)
	}
	return r.Config.Validate()
}

// step runs fn with start/finish logs and wraps its error with the step name.
func (r *Runner) step(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	start := time.Now()
	r.log().Info("step started", zap.String("step", name))
	if err := fn(); err != nil {
		r.log().Error("step failed", zap.String("step", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log().Info("step finished", zap.String("step", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *Runner) figure(name string) string {
	return filepath.Join(r.Config.OutDir, name)
}

func (r *Runner) source() (dataset.Source, error) {
	if r.Source != nil {
		return r.Source, nil
	}
	timeout, err := r.Config.FetchTimeout()
	if err != nil {
		return nil, err
	}
	return dataset.MNIST{Base: r.Config.MNIST.Source, Client: &http.Client{Timeout: timeout}}, nil
}
