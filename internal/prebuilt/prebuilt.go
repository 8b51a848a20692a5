// Package prebuilt downloads, unpacks and installs precompiled
// library artifacts. Every step is idempotent on the filesystem: an
// existing cache file skips the network fetch, and existing extracted
// libraries skip the unpack, so a retried build never repeats
// completed work.
package prebuilt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cgolink/tfget/internal/archive"
	"github.com/cgolink/tfget/internal/linker"
	"github.com/cgolink/tfget/internal/platform"
)

// StatusError reports a download that returned a non-success HTTP
// status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download of %s failed: unexpected status %d", e.URL, e.StatusCode)
}

// Installer fetches one prebuilt artifact and installs its shared
// libraries into the output directory.
type Installer struct {
	Platform  platform.Descriptor
	Library   string // primary library name, e.g. "tensorflow"
	Framework string // companion framework library name

	// DownloadDir overrides the cache directory; when empty the
	// build-tool scratch directory (OutDir) is used.
	DownloadDir string
	// OutDir is the linker search directory the artifacts end up in.
	OutDir string

	Client *http.Client // defaults to a client with no timeout
	Logger *log.Logger
}

// Install runs the download/extract/install pipeline for the artifact
// at url and returns the linker directives for the result.
func (in *Installer) Install(ctx context.Context, url string) (linker.Directives, error) {
	ext := in.Platform.ArchiveExt()
	shortName := path.Base(url)
	baseName := strings.TrimSuffix(shortName, ext)

	dir := in.DownloadDir
	if dir == "" {
		dir = in.OutDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return linker.Directives{}, err
	}

	cachePath := filepath.Join(dir, shortName)
	if _, err := os.Stat(cachePath); err == nil {
		// Existence is the sole idempotency signal; the content is
		// not re-validated.
		in.logger().Info("using cached download", "path", cachePath)
	} else {
		if err := in.download(ctx, url, cachePath); err != nil {
			return linker.Directives{}, err
		}
	}

	unpackedDir := filepath.Join(dir, baseName)
	libDir := filepath.Join(unpackedDir, "lib")
	if in.extracted(libDir) {
		in.logger().Info("using previously extracted libraries", "dir", libDir)
	} else {
		extractor := archive.ForABI(in.Platform.ABI, "lib")
		if err := extractor.Extract(cachePath, unpackedDir); err != nil {
			return linker.Directives{}, err
		}
	}

	if err := in.installLibs(libDir); err != nil {
		return linker.Directives{}, err
	}

	libs := []string{in.Framework, in.Library}
	if in.Platform.ABI == platform.MSVC {
		// There is no framework DLL on windows.
		libs = []string{in.Library}
	}
	return linker.Directives{Libs: libs, SearchPath: in.OutDir}, nil
}

// download streams url into dest. A partial file is removed on
// failure so it cannot satisfy the existence check of a later run.
func (in *Installer) download(ctx context.Context, url, dest string) error {
	in.logger().Info("downloading", "url", url, "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := in.client().Do(req)
	if err != nil {
		return fmt.Errorf("download of %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("download of %s failed: %w", url, err)
	}
	return f.Close()
}

// extracted reports whether the expected shared-library files are
// already present under libDir.
func (in *Installer) extracted(libDir string) bool {
	expected := []string{in.Platform.SharedLibName(in.Library)}
	if in.Platform.ABI != platform.MSVC {
		expected = append(expected, in.Platform.SharedLibName(in.Framework))
	}
	for _, name := range expected {
		if _, err := os.Stat(filepath.Join(libDir, name)); err != nil {
			return false
		}
	}
	return true
}

// installLibs copies every file directly under libDir into OutDir,
// replacing same-named files (remove then copy, not merge).
func (in *Installer) installLibs(libDir string) error {
	entries, err := os.ReadDir(libDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(libDir, entry.Name())
		dest := filepath.Join(in.OutDir, entry.Name())
		if _, err := os.Lstat(dest); err == nil {
			in.logger().Debug("replacing existing file", "path", dest)
			if err := os.Remove(dest); err != nil {
				return err
			}
		}
		in.logger().Info("installing", "src", src, "dest", dest)
		if err := copyFile(src, dest); err != nil {
			return err
		}
	}
	return nil
}

// copyFile copies src to dest, following symlinks so versioned
// library links land as regular files.
func copyFile(src, dest string) error {
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

func (in *Installer) client() *http.Client {
	if in.Client != nil {
		return in.Client
	}
	// Artifact downloads run for minutes on slow links, so no overall
	// timeout; only the caller's context can cancel.
	return http.DefaultClient
}

func (in *Installer) logger() *log.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return log.Default()
}
