// Command dimred runs the dimensionality-reduction exercises on MNIST and on a
// synthetic Swiss roll, writing figures to the output directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/katalvlaran/dimred/internal/config"
	"github.com/katalvlaran/dimred/internal/exercise"
	"github.com/katalvlaran/dimred/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	configPath  string
	outDir      string
	mnistSource string
	workers     int
	verbose     bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dimred",
	Short: "Dimensionality-reduction exercises: PCA, incremental PCA and kernel PCA",
	Long: `dimred reproduces a sequence of dimensionality-reduction exercises:

  mnist      PCA and incremental PCA on the MNIST digits
  swissroll  kernel PCA on a Swiss roll and a cross-validated grid search
  run        both, in that order

Figures are written as PNG files to the output directory. The explained
variance ratios and the best grid parameters are printed to stdout.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("out") {
			cfg.OutDir = outDir
		}
		if cmd.Flags().Changed("mnist-source") {
			cfg.MNIST.Source = mnistSource
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the MNIST and Swiss-roll exercises",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newRunner(cmd).Run(cmd.Context())
		return err
	},
}

var mnistCmd = &cobra.Command{
	Use:   "mnist",
	Short: "Run the MNIST exercises (PCA, incremental PCA)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newRunner(cmd).RunMNIST(cmd.Context())
		return err
	},
}

var swissRollCmd = &cobra.Command{
	Use:   "swissroll",
	Short: "Run the Swiss-roll exercises (kernel PCA, grid search)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newRunner(cmd).RunSwissRoll(cmd.Context())
		return err
	},
}

var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Write the effective configuration as YAML (stdout when no path is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return cfg.Save(args[0])
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}

func newRunner(cmd *cobra.Command) *exercise.Runner {
	return &exercise.Runner{Config: cfg, Logger: logger, Stdout: cmd.OutOrStdout()}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "dimred.yaml", "YAML configuration file (defaults when missing)")
	pf.StringVarP(&outDir, "out", "o", "out", "directory for the figures")
	pf.StringVar(&mnistSource, "mnist-source", "", "MNIST base URL or local directory")
	pf.IntVarP(&workers, "workers", "w", 0, "concurrent grid-search evaluations (0: GOMAXPROCS)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd, mnistCmd, swissRollCmd, configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
