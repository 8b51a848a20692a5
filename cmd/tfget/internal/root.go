package internal

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cgolink/tfget/internal/env"
	"github.com/cgolink/tfget/internal/platform"
)

var (
	flagVerbose bool
	flagSource  bool
	flagGPU     bool
)

var rootCmd = &cobra.Command{
	Use:   "tfget",
	Short: "tfget acquires libtensorflow for a host build",
	Long: `tfget decides, at build time, how to obtain a working copy of
libtensorflow and makes it available to a downstream linker: it reuses
a system install when one is found, downloads a prebuilt nightly on
supported platforms, and otherwise builds from source with bazel.
Linker directives are printed on stdout; diagnostics go to stderr.`,
	SilenceUsage: true,
	RunE:         runAcquire,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&flagSource, "source", false, "Force building from source")
	rootCmd.PersistentFlags().BoolVar(&flagGPU, "gpu", false, "Select the gpu accelerator variant")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the tool logger. Directives own stdout, so all
// logging goes to stderr.
func newLogger() *log.Logger {
	level := log.InfoLevel
	if flagVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// loadConfig resolves configuration and applies command-line
// overrides on top.
func loadConfig() (env.Config, error) {
	cfg, err := env.Load()
	if err != nil {
		return env.Config{}, err
	}
	if flagSource {
		cfg.BuildFromSource = true
	}
	if flagGPU {
		cfg.GPU = true
	}
	return cfg, nil
}

// hostPlatform derives the platform descriptor from the resolved
// configuration.
func hostPlatform(cfg env.Config) platform.Descriptor {
	return platform.Host(cfg.GPU)
}
