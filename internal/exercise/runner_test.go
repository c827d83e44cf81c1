package exercise

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/katalvlaran/dimred/dataset"
	"github.com/katalvlaran/dimred/internal/config"
	"github.com/katalvlaran/dimred/kernel"
	"github.com/katalvlaran/dimred/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"
)

// digits returns n random 4×4 "images" labelled i mod 10.
func digits(n int, seed int64) *dataset.Images {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 16, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < 16; j++ {
			X.Set(i, j, float64(rng.Intn(256)))
		}
		labels[i] = i % 10
	}
	return &dataset.Images{X: X, Labels: labels, Height: 4, Width: 4}
}

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutDir = filepath.Join(t.TempDir(), "figures")
	cfg.Workers = 2
	cfg.MNIST.TrainSize = 40
	cfg.MNIST.IncrementalComponents = 5
	cfg.MNIST.Batches = 4
	cfg.MNIST.ShowDigits = 3
	cfg.SwissRoll.Samples = 60
	cfg.SwissRoll.Bins = 5
	cfg.SwissRoll.Search.Kernels = []kernel.Kind{kernel.Linear, kernel.RBF}
	cfg.SwissRoll.Search.Gamma = config.Range{Start: 0.03, Stop: 0.05, Num: 3}
	return cfg
}

func mnistDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, dataset.WriteMNISTDir(dir, digits(40, 1), digits(10, 2)))
	return dir
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := smallConfig(t)
	cfg.MNIST.Source = mnistDir(t)

	core, logs := observer.New(zap.InfoLevel)
	var out bytes.Buffer
	r := &Runner{Config: cfg, Logger: zap.New(core), Stdout: &out}

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	m := rep.MNIST
	assert.Equal(t, 40, m.Train)
	assert.Equal(t, 10, m.Test)
	assert.Equal(t, 40, m.SamplesSeen)
	require.Len(t, m.ExplainedVarianceRatio, 2)
	assert.GreaterOrEqual(t, m.ExplainedVarianceRatio[0], m.ExplainedVarianceRatio[1])
	assert.Positive(t, m.ReconstructionError)

	s := rep.SwissRoll
	assert.Equal(t, 60, s.Samples)
	assert.Len(t, s.Projections, 3)
	assert.Equal(t, 6*3, s.Evaluations)
	assert.Contains(t, pipeline.KernelGrid(cfg.SwissRoll.Search.Kernels, []float64{0.03, 0.04, 0.05}), s.Best)
	assert.Equal(t, 5, s.Classes)

	for _, f := range append(m.Figures, s.Figures...) {
		info, err := os.Stat(f)
		require.NoError(t, err, f)
		assert.Positive(t, info.Size(), f)
	}
	assert.Len(t, m.Figures, 3)
	assert.Len(t, s.Figures, 3)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "["), lines[0])
	assert.Equal(t, s.Best.String(), lines[1])
	assert.Contains(t, lines[1], "kpca__gamma")

	assert.Equal(t, 8, logs.FilterMessage("step finished").Len())
	assert.Zero(t, logs.FilterMessage("step failed").Len())
}

func TestRunMNIST_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir(mnistDir(t))))
	defer srv.Close()

	cfg := smallConfig(t)
	cfg.MNIST.Source = srv.URL + "/"
	r := &Runner{Config: cfg, Stdout: &bytes.Buffer{}}
	rep, err := r.RunMNIST(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, rep.Train)
}

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) (*dataset.Images, error) { return nil, f.err }

func TestRunMNIST_AbortsOnLoadFailure(t *testing.T) {
	boom := errors.New("offline")
	cfg := smallConfig(t)
	core, logs := observer.New(zap.InfoLevel)
	r := &Runner{Config: cfg, Logger: zap.New(core), Source: failingSource{boom}, Stdout: &bytes.Buffer{}}

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load mnist")
	assert.Equal(t, 1, logs.FilterMessage("step failed").Len())
	assert.NoDirExists(t, cfg.OutDir)
}

func TestRunner_RejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.SwissRoll.Search.Folds = 1
	_, err := (&Runner{Config: cfg}).RunSwissRoll(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = (&Runner{}).RunMNIST(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunSwissRoll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Runner{Config: smallConfig(t)}).RunSwissRoll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[0.097046644 0.071]", formatVector([]float64{0.0970466441, 0.071}))
	assert.Equal(t, "[]", formatVector(nil))
}
