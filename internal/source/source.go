// Package source builds the library from its repository with bazel.
//
// The build is a sequential state machine over durable filesystem
// markers; each step checks its marker or artifact before redoing
// work, so a cancelled build resumes where it stopped:
//
//	Detect      final libraries present        -> skip to directives
//	VersionGate bazel version >= minimum       -> else abort
//	Clone       .git directory in source tree  -> clone at fixed tag
//	Configure   configure marker file          -> run ./configure
//	Compile     always                         -> bazel build
//	Install     copy bazel-bin artifacts into the tag library dir
//
// Clone and Configure are never retried once their marker exists:
// re-running configure triggers a bazel clean, which would throw away
// a resumable compile.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cgolink/tfget/internal/bazelver"
	"github.com/cgolink/tfget/internal/linker"
	"github.com/cgolink/tfget/internal/platform"
	"github.com/cgolink/tfget/internal/run"
)

// configureMarker records a completed configure step. Existence only;
// the content is never read.
const configureMarker = ".tfget-configured"

// Builder drives one from-source build.
type Builder struct {
	Platform platform.Descriptor

	Library         string // e.g. "tensorflow"
	Framework       string // e.g. "tensorflow_framework"
	Target          string // bazel target, e.g. "tensorflow:libtensorflow"
	FrameworkTarget string // bazel target of the framework library
	Repository      string // git URL of the source repository
	Tag             string // fixed tag to build, e.g. "v2.2.0"
	MinBazel        string // minimum bazel version, e.g. "0.5.4"

	OutDir      string // scratch/output directory of the host build
	ManifestDir string // directory the source tree is kept under
	Jobs        int    // bazel --jobs value
	ExtraFlags  string // whitespace-split extra bazel flags
	GPU         bool   // selects TF_NEED_CUDA=1 during configure

	Logger *log.Logger

	// Runner and OutputRunner default to the run package; tests
	// substitute fakes to drive the state machine without tools.
	Runner       func(ctx context.Context, logger *log.Logger, name string, args []string, opts ...run.Option) error
	OutputRunner func(ctx context.Context, logger *log.Logger, name string, args []string, opts ...run.Option) ([]byte, error)
}

// Build runs the state machine to completion and returns the linker
// directives pointing at the per-tag library directory. Any failing
// external step aborts the whole build; a half-built native library is
// unusable, so there is no partial success.
func (b *Builder) Build(ctx context.Context) (linker.Directives, error) {
	suffix := b.Platform.DLLSuffix()
	target := b.Target + suffix
	frameworkTarget := b.FrameworkTarget + suffix

	sourceDir := filepath.Join(b.ManifestDir, "target", "source-"+b.Tag)
	libDir := filepath.Join(b.OutDir, "lib-"+b.Tag)
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return linker.Directives{}, err
	}

	libraryPath := filepath.Join(libDir, "lib"+b.Library+".so")
	frameworkPath := filepath.Join(libDir, "lib"+b.Framework+".so")

	if exists(libraryPath) && exists(frameworkPath) {
		b.logger().Info("libraries already built, skipping build",
			"library", libraryPath, "framework", frameworkPath)
	} else {
		if err := b.checkBazel(ctx); err != nil {
			return linker.Directives{}, err
		}
		if err := b.clone(ctx, sourceDir); err != nil {
			return linker.Directives{}, err
		}
		if err := b.configure(ctx, sourceDir); err != nil {
			return linker.Directives{}, err
		}
		if err := b.compile(ctx, sourceDir, target); err != nil {
			return linker.Directives{}, err
		}
		if err := b.install(sourceDir, frameworkTarget, frameworkPath); err != nil {
			return linker.Directives{}, err
		}
		if err := b.install(sourceDir, target, libraryPath); err != nil {
			return linker.Directives{}, err
		}
	}

	return linker.Directives{
		Libs:       []string{b.Framework, b.Library},
		SearchPath: libDir,
	}, nil
}

// checkBazel is the version gate: it refuses to start a long build
// with a bazel that is known to fail halfway.
func (b *Builder) checkBazel(ctx context.Context) error {
	out, err := b.outputRunner()(ctx, b.logger(), "bazel", []string{"version"})
	if err != nil {
		return err
	}
	if err := bazelver.Check(string(out), b.MinBazel); err != nil {
		return fmt.Errorf("bazel %s or newer is required: %w", b.MinBazel, err)
	}
	return nil
}

// clone checks out the repository at the fixed tag unless the source
// tree already holds a checkout.
func (b *Builder) clone(ctx context.Context, sourceDir string) error {
	if exists(filepath.Join(sourceDir, ".git")) {
		b.logger().Info("source tree already cloned", "dir", sourceDir)
		return nil
	}
	return b.runner()(ctx, b.logger(), "git", []string{
		"clone", "--branch=" + b.Tag, "--recursive", b.Repository, sourceDir,
	})
}

// configure runs the interactive configuration script with automated
// blank answers, then drops the marker file.
func (b *Builder) configure(ctx context.Context, sourceDir string) error {
	marker := filepath.Join(sourceDir, configureMarker)
	if exists(marker) {
		b.logger().Info("source tree already configured", "marker", marker)
		return nil
	}

	needCUDA := "0"
	if b.GPU {
		needCUDA = "1"
	}
	err := b.runner()(ctx, b.logger(), "bash", []string{"-c", "yes ''|./configure"},
		run.Dir(sourceDir), run.Env("TF_NEED_CUDA", needCUDA))
	if err != nil {
		return err
	}

	// The marker is written only after success so a failed configure
	// is retried on the next invocation.
	f, err := os.Create(marker)
	if err != nil {
		return err
	}
	return f.Close()
}

// compile invokes bazel on the fully qualified target.
func (b *Builder) compile(ctx context.Context, sourceDir, target string) error {
	args := []string{
		"build",
		"--jobs=" + strconv.Itoa(b.Jobs),
		"--compilation_mode=opt",
		"--copt=-march=native",
	}
	args = append(args, strings.Fields(b.ExtraFlags)...)
	args = append(args, target)
	return b.runner()(ctx, b.logger(), "bazel", args, run.Dir(sourceDir))
}

// install copies one bazel output artifact into the per-tag library
// directory. Bazel target names map to bazel-bin paths by replacing
// the colon with a path separator.
func (b *Builder) install(sourceDir, target, dest string) error {
	src := filepath.Join(sourceDir, "bazel-bin", strings.ReplaceAll(target, ":", "/"))
	b.logger().Info("installing artifact", "src", src, "dest", dest)

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dest, err)
	}
	return out.Close()
}

func (b *Builder) runner() func(context.Context, *log.Logger, string, []string, ...run.Option) error {
	if b.Runner != nil {
		return b.Runner
	}
	return run.Run
}

func (b *Builder) outputRunner() func(context.Context, *log.Logger, string, []string, ...run.Option) ([]byte, error) {
	if b.OutputRunner != nil {
		return b.OutputRunner
	}
	return run.Output
}

func (b *Builder) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.Default()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
