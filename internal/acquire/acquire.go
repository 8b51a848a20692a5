// Package acquire decides how to obtain the native library and runs
// the chosen pipeline. Exactly one of three outcomes is produced:
// the library is already installed (probe hit), a prebuilt binary is
// downloaded and installed, or the library is built from source.
// All three converge on the same linker directives.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/cgolink/tfget/internal/bucket"
	"github.com/cgolink/tfget/internal/env"
	"github.com/cgolink/tfget/internal/linker"
	"github.com/cgolink/tfget/internal/platform"
	"github.com/cgolink/tfget/internal/prebuilt"
	"github.com/cgolink/tfget/internal/source"
)

// Strategy is one of the three acquisition outcomes.
type Strategy int

const (
	// Installed: a system probe found the library; no further work.
	Installed Strategy = iota
	// Prebuilt: download a precompiled nightly artifact.
	Prebuilt
	// Source: clone and build with the external build tool.
	Source
)

func (s Strategy) String() string {
	switch s {
	case Installed:
		return "installed"
	case Prebuilt:
		return "prebuilt"
	default:
		return "source"
	}
}

// Choose picks between the prebuilt and source strategies for a
// platform. Prebuilt artifacts exist only for the supported 64-bit
// targets, and an explicit force-source override always wins.
func Choose(plat platform.Descriptor, forceSource bool) Strategy {
	if !forceSource && plat.PrebuiltSupported() {
		return Prebuilt
	}
	return Source
}

// Options carries the collaborators of one acquisition run.
type Options struct {
	Config   env.Config
	Platform platform.Descriptor
	Logger   *log.Logger

	// BaseURL overrides the remote listing endpoint (tests).
	BaseURL string
	// Client overrides the HTTP client used for listing and download.
	Client *http.Client
	// Stdout receives the linker directives; defaults to os.Stdout.
	Stdout io.Writer
}

// Run acquires lib and emits linker directives for the host build.
func Run(ctx context.Context, lib Library, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if d, ok := Probe(ctx, logger, opts.Platform, lib); ok {
		logger.Info("library already installed", "lib", lib.Name)
		return d.Emit(stdout)
	}

	var (
		d   linker.Directives
		err error
	)
	switch strategy := Choose(opts.Platform, opts.Config.BuildFromSource); strategy {
	case Prebuilt:
		logger.Info("installing prebuilt library", "lib", lib.Name)
		d, err = installPrebuilt(ctx, lib, opts, logger)
	default:
		logger.Info("building library from source", "lib", lib.Name, "tag", lib.Tag)
		d, err = buildFromSource(ctx, lib, opts, logger)
	}
	if err != nil {
		return err
	}
	return d.Emit(stdout)
}

func installPrebuilt(ctx context.Context, lib Library, opts Options, logger *log.Logger) (linker.Directives, error) {
	plat := opts.Platform
	filename := ArtifactName(plat, lib)

	locator := &bucket.Locator{BaseURL: opts.BaseURL, Client: opts.Client, Logger: logger}
	url, err := locator.LatestURL(ctx, filename)
	if err != nil {
		return linker.Directives{}, fmt.Errorf("failed to locate prebuilt %s: %w", lib.Name, err)
	}
	logger.Info("resolved artifact", "url", url)

	installer := &prebuilt.Installer{
		Platform:    plat,
		Library:     lib.Name,
		Framework:   lib.Framework,
		DownloadDir: opts.Config.DownloadDir,
		OutDir:      opts.Config.OutDir,
		Client:      opts.Client,
		Logger:      logger,
	}
	return installer.Install(ctx, url)
}

func buildFromSource(ctx context.Context, lib Library, opts Options, logger *log.Logger) (linker.Directives, error) {
	builder := &source.Builder{
		Platform:        opts.Platform,
		Library:         lib.Name,
		Framework:       lib.Framework,
		Target:          lib.Target,
		FrameworkTarget: lib.FrameworkTarget,
		Repository:      lib.Repository,
		Tag:             lib.Tag,
		MinBazel:        lib.MinBazel,
		OutDir:          opts.Config.OutDir,
		ManifestDir:     opts.Config.ManifestDir,
		Jobs:            opts.Config.Jobs,
		ExtraFlags:      opts.Config.BazelOpts,
		GPU:             opts.Config.GPU,
		Logger:          logger,
	}
	return builder.Build(ctx)
}

// ArtifactName builds the expected remote file name for a platform,
// e.g. "libtensorflow-cpu-linux-x86_64.tar.gz".
func ArtifactName(plat platform.Descriptor, lib Library) string {
	return fmt.Sprintf("lib%s-%s-%s-%s%s",
		lib.Name, plat.Accel, plat.RemoteOS(), plat.RemoteArch(), plat.ArchiveExt())
}
