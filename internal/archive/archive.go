// Package archive unpacks downloaded artifact archives. The remote
// store publishes gzip-compressed tarballs for the standard ABI and
// zip archives for the MSVC ABI; the two formats get one Extractor
// implementation each, selected by the platform descriptor.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cgolink/tfget/internal/platform"
)

// Extractor unpacks an archive file into a directory, creating parent
// directories as needed.
type Extractor interface {
	Extract(archivePath, destDir string) error
}

// ForABI returns the extractor for the given ABI. The MSVC artifacts
// scatter files outside the library tree, so their zip extractor only
// unpacks entries whose name starts with prefix; tarballs are unpacked
// whole.
func ForABI(abi platform.ABI, prefix string) Extractor {
	if abi == platform.MSVC {
		return &Zip{Prefix: prefix}
	}
	return TarGz{}
}

// securePath joins name under destDir, rejecting entries that would
// escape it.
func securePath(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return filepath.Join(destDir, cleaned), nil
}
