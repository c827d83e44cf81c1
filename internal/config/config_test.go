package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/dimred/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60000, cfg.MNIST.TrainSize)
	assert.Equal(t, 154, cfg.MNIST.IncrementalComponents)
	assert.Equal(t, 100, cfg.MNIST.Batches)
	assert.Equal(t, 1000, cfg.SwissRoll.Samples)
	assert.Equal(t, int64(42), cfg.SwissRoll.Seed)
	assert.Equal(t, 0.04, cfg.SwissRoll.Gamma)
	assert.Equal(t, 50, cfg.SwissRoll.Bins)
	assert.Equal(t, 3, cfg.SwissRoll.Search.Folds)

	gammas, err := cfg.SwissRoll.Search.Gamma.Values()
	require.NoError(t, err)
	require.Len(t, gammas, 10)
	assert.Equal(t, 0.03, gammas[0])
	assert.Equal(t, 0.05, gammas[9])
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("DIMRED_MNIST_SOURCE", "")
	t.Setenv("DIMRED_OUT_DIR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialOverride(t *testing.T) {
	t.Setenv("DIMRED_MNIST_SOURCE", "")
	t.Setenv("DIMRED_OUT_DIR", "")
	path := filepath.Join(t.TempDir(), "dimred.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
out_dir: figures
swiss_roll:
  samples: 300
  kernels: [rbf, cosine]
  search:
    gamma: {start: 0.1, stop: 0.2, num: 3}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "figures", cfg.OutDir)
	assert.Equal(t, 300, cfg.SwissRoll.Samples)
	assert.Equal(t, []kernel.Kind{kernel.RBF, kernel.Cosine}, cfg.SwissRoll.Kernels)
	assert.Equal(t, Range{Start: 0.1, Stop: 0.2, Num: 3}, cfg.SwissRoll.Search.Gamma)
	// untouched keys keep their defaults
	assert.Equal(t, 154, cfg.MNIST.IncrementalComponents)
	assert.Equal(t, 3, cfg.SwissRoll.Search.Folds)
}

func TestLoad_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("swiss_roll:\n  kernels: [laplacian]\n"), 0o644))
	_, err := Load(path)
	assert.ErrorIs(t, err, kernel.ErrUnknownKernel)

	require.NoError(t, os.WriteFile(path, []byte("workers: [1"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("DIMRED_MNIST_SOURCE", "")
	t.Setenv("DIMRED_OUT_DIR", "")
	path := filepath.Join(t.TempDir(), "nested", "dimred.yaml")
	cfg := Default()
	cfg.Workers = 3
	cfg.SwissRoll.Search.Kernels = []kernel.Kind{kernel.Poly}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIMRED_MNIST_SOURCE", "/data/mnist")
	t.Setenv("DIMRED_OUT_DIR", "/tmp/figs")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/mnist", cfg.MNIST.Source)
	assert.Equal(t, "/tmp/figs", cfg.OutDir)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"format":     func(c *Config) { c.Logging.Format = "xml" },
		"out_dir":    func(c *Config) { c.OutDir = "" },
		"timeout":    func(c *Config) { c.MNIST.Timeout = "soon" },
		"solver":     func(c *Config) { c.MNIST.Solver = "arpack" },
		"batches":    func(c *Config) { c.MNIST.Batches = 60001 },
		"components": func(c *Config) { c.MNIST.IncrementalComponents = 0 },
		"noise":      func(c *Config) { c.SwissRoll.Noise = -1 },
		"bins":       func(c *Config) { c.SwissRoll.Bins = 1 },
		"kernels":    func(c *Config) { c.SwissRoll.Kernels = nil },
		"gamma grid": func(c *Config) { c.SwissRoll.Search.Gamma.Num = 0 },
		"gamma zero": func(c *Config) { c.SwissRoll.Gamma = 0 },
		"grid start": func(c *Config) { c.SwissRoll.Search.Gamma.Start = 0 },
		"grid stop":  func(c *Config) { c.SwissRoll.Search.Gamma.Stop = -0.1 },
		"folds":      func(c *Config) { c.SwissRoll.Search.Folds = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
