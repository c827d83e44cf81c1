// Package config holds the run configuration of the dimred exercises.
// Defaults reproduce the reference run; a YAML file overrides any subset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/katalvlaran/dimred/dataset"
	"github.com/katalvlaran/dimred/decomposition"
	"github.com/katalvlaran/dimred/kernel"
	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates a configuration value outside its valid range.
var ErrInvalid = errors.New("config: invalid value")

// Config is the top-level configuration.
type Config struct {
	OutDir    string          `yaml:"out_dir"`
	Workers   int             `yaml:"workers"` // ≤ 0: GOMAXPROCS
	Logging   LoggingConfig   `yaml:"logging"`
	MNIST     MNISTConfig     `yaml:"mnist"`
	SwissRoll SwissRollConfig `yaml:"swiss_roll"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MNISTConfig drives the digit exercises.
type MNISTConfig struct {
	Source                string `yaml:"source"`  // base URL or local directory of the IDX files
	Timeout               string `yaml:"timeout"` // HTTP client timeout, Go duration
	TrainSize             int    `yaml:"train_size"`
	PCAComponents         int    `yaml:"pca_components"`
	Solver                string `yaml:"solver"`
	IncrementalComponents int    `yaml:"incremental_components"`
	Batches               int    `yaml:"batches"`
	ShowDigits            int    `yaml:"show_digits"` // reconstructions drawn
}

// SwissRollConfig drives the manifold exercises.
type SwissRollConfig struct {
	Samples    int           `yaml:"samples"`
	Noise      float64       `yaml:"noise"`
	Seed       int64         `yaml:"seed"`
	Components int           `yaml:"components"`
	Gamma      float64       `yaml:"gamma"`
	Kernels    []kernel.Kind `yaml:"kernels"`
	Bins       int           `yaml:"bins"`
	Search     SearchConfig  `yaml:"search"`
}

// SearchConfig is the kernel × gamma grid scored by cross-validation.
type SearchConfig struct {
	Kernels []kernel.Kind `yaml:"kernels"`
	Gamma   Range         `yaml:"gamma"`
	Folds   int           `yaml:"folds"`
}

// Range is Num evenly spaced values from Start to Stop inclusive.
type Range struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Num   int     `yaml:"num"`
}

// Values expands the range.
func (r Range) Values() ([]float64, error) {
	return dataset.Linspace(r.Start, r.Stop, r.Num)
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		OutDir:  "out",
		Workers: 0,
		Logging: LoggingConfig{Level: "info", Format: "json"},
		MNIST: MNISTConfig{
			Source:                dataset.DefaultMNISTBase,
			Timeout:               dataset.DefaultFetchTimeout.String(),
			TrainSize:             60000,
			PCAComponents:         2,
			Solver:                decomposition.SolverAuto.String(),
			IncrementalComponents: 154,
			Batches:               100,
			ShowDigits:            10,
		},
		SwissRoll: SwissRollConfig{
			Samples:    1000,
			Noise:      0.0,
			Seed:       42,
			Components: 2,
			Gamma:      0.04,
			Kernels:    []kernel.Kind{kernel.Linear, kernel.RBF, kernel.Sigmoid},
			Bins:       50,
			Search: SearchConfig{
				Kernels: []kernel.Kind{kernel.Linear, kernel.RBF, kernel.Sigmoid},
				Gamma:   Range{Start: 0.03, Stop: 0.05, Num: 10},
				Folds:   3,
			},
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DIMRED_MNIST_SOURCE"); v != "" {
		c.MNIST.Source = v
	}
	if v := os.Getenv("DIMRED_OUT_DIR"); v != "" {
		c.OutDir = v
	}
}

// FetchTimeout parses MNIST.Timeout; an empty value means the dataset default.
func (c *Config) FetchTimeout() (time.Duration, error) {
	if c.MNIST.Timeout == "" {
		return dataset.DefaultFetchTimeout, nil
	}
	d, err := time.ParseDuration(c.MNIST.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("mnist.timeout %q: %w", c.MNIST.Timeout, ErrInvalid)
	}
	return d, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	invalid := func(field string, v any) error {
		return fmt.Errorf("%s=%v: %w", field, v, ErrInvalid)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return invalid("logging.format", c.Logging.Format)
	}
	if c.OutDir == "" {
		return invalid("out_dir", c.OutDir)
	}

	m := c.MNIST
	if m.Source == "" {
		return invalid("mnist.source", m.Source)
	}
	if _, err := c.FetchTimeout(); err != nil {
		return err
	}
	if _, err := decomposition.ParseSolver(m.Solver); err != nil {
		return invalid("mnist.solver", m.Solver)
	}
	if m.TrainSize < 2 {
		return invalid("mnist.train_size", m.TrainSize)
	}
	if m.PCAComponents < 1 {
		return invalid("mnist.pca_components", m.PCAComponents)
	}
	if m.IncrementalComponents < 1 {
		return invalid("mnist.incremental_components", m.IncrementalComponents)
	}
	if m.Batches < 1 || m.Batches > m.TrainSize {
		return invalid("mnist.batches", m.Batches)
	}
	if m.ShowDigits < 1 {
		return invalid("mnist.show_digits", m.ShowDigits)
	}

	s := c.SwissRoll
	if s.Samples < 2 {
		return invalid("swiss_roll.samples", s.Samples)
	}
	if s.Noise < 0 {
		return invalid("swiss_roll.noise", s.Noise)
	}
	if s.Components < 1 || s.Components > s.Samples {
		return invalid("swiss_roll.components", s.Components)
	}
	if s.Gamma <= 0 {
		return invalid("swiss_roll.gamma", s.Gamma)
	}
	if len(s.Kernels) == 0 {
		return invalid("swiss_roll.kernels", s.Kernels)
	}
	if s.Bins < 2 {
		return invalid("swiss_roll.bins", s.Bins)
	}
	if len(s.Search.Kernels) == 0 {
		return invalid("swiss_roll.search.kernels", s.Search.Kernels)
	}
	if _, err := s.Search.Gamma.Values(); err != nil || s.Search.Gamma.Start <= 0 || s.Search.Gamma.Stop <= 0 {
		return invalid("swiss_roll.search.gamma", s.Search.Gamma)
	}
	if s.Search.Folds < 2 || s.Search.Folds > s.Samples {
		return invalid("swiss_roll.search.folds", s.Search.Folds)
	}
	return nil
}
