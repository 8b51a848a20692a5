// Package env loads tool configuration. Options come from the
// environment, with an optional TOML file (TFGET_CONFIG) filling in
// values the environment leaves unset. The ambient build-tool
// variables (output directory, manifest directory, job count) are
// consumed here too; this tool never produces them.
package env

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variable names recognized by the tool.
const (
	EnvBuildFromSource = "TFGET_BUILD_FROM_SRC"
	EnvDownloadDir     = "TFGET_DOWNLOAD_DIR"
	EnvBazelOpts       = "TFGET_BAZEL_OPTS"
	EnvGPU             = "TFGET_GPU"
	EnvOutDir          = "TFGET_OUT_DIR"
	EnvManifestDir     = "TFGET_MANIFEST_DIR"
	EnvJobs            = "TFGET_JOBS"
	EnvConfig          = "TFGET_CONFIG"
)

// Config is the resolved tool configuration. It is read once at
// startup and treated as immutable afterwards.
type Config struct {
	// BuildFromSource forces the source path regardless of platform.
	BuildFromSource bool
	// DownloadDir overrides the default download cache directory.
	DownloadDir string
	// BazelOpts are extra flags forwarded verbatim (whitespace-split)
	// to the bazel build invocation.
	BazelOpts string
	// GPU selects the gpu accelerator variant.
	GPU bool
	// OutDir is where installed artifacts and the search path live.
	OutDir string
	// ManifestDir is where the source tree is checked out.
	ManifestDir string
	// Jobs is the parallelism handed to the external build tool.
	Jobs int
}

// fileConfig mirrors the optional TOML configuration file.
type fileConfig struct {
	BuildFromSource *bool   `toml:"build_from_source"`
	DownloadDir     *string `toml:"download_dir"`
	BazelOpts       *string `toml:"bazel_opts"`
	GPU             *bool   `toml:"gpu"`
	OutDir          *string `toml:"out_dir"`
	ManifestDir     *string `toml:"manifest_dir"`
	Jobs            *int    `toml:"jobs"`
}

// Load resolves the configuration: defaults, then the config file if
// one is named, then environment overrides.
func Load() (Config, error) {
	cfg := Config{
		OutDir:      ".",
		ManifestDir: ".",
		Jobs:        runtime.NumCPU(),
	}

	if path := os.Getenv(EnvConfig); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if fc.BuildFromSource != nil {
		c.BuildFromSource = *fc.BuildFromSource
	}
	if fc.DownloadDir != nil {
		c.DownloadDir = *fc.DownloadDir
	}
	if fc.BazelOpts != nil {
		c.BazelOpts = *fc.BazelOpts
	}
	if fc.GPU != nil {
		c.GPU = *fc.GPU
	}
	if fc.OutDir != nil {
		c.OutDir = *fc.OutDir
	}
	if fc.ManifestDir != nil {
		c.ManifestDir = *fc.ManifestDir
	}
	if fc.Jobs != nil {
		c.Jobs = *fc.Jobs
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupBool(EnvBuildFromSource); ok {
		c.BuildFromSource = v
	}
	if v := os.Getenv(EnvDownloadDir); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv(EnvBazelOpts); v != "" {
		c.BazelOpts = v
	}
	if v, ok := lookupBool(EnvGPU); ok {
		c.GPU = v
	}
	if v := os.Getenv(EnvOutDir); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv(EnvManifestDir); v != "" {
		c.ManifestDir = v
	}
	if v := os.Getenv(EnvJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s value %q", EnvJobs, v)
		}
		c.Jobs = n
	}
	return nil
}

// lookupBool reads an environment variable as a boolean. Values that
// strconv.ParseBool rejects count as false, matching the "set truthy"
// contract.
func lookupBool(key string) (value, ok bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, true
	}
	return v, true
}
