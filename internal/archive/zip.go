package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Zip extracts zip archives. Only entries whose name begins with
// Prefix are unpacked; the MSVC artifact zips mix the library tree
// with unrelated files, and extracting everything would scatter them
// across the destination. An empty Prefix extracts all entries.
type Zip struct {
	Prefix string
}

// Extract implements Extractor.
func (z *Zip) Extract(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, entry := range r.File {
		if z.Prefix != "" && !strings.HasPrefix(entry.Name, z.Prefix) {
			continue
		}
		if err := z.writeEntry(entry, destDir); err != nil {
			return err
		}
	}
	return nil
}

func (z *Zip) writeEntry(entry *zip.File, destDir string) error {
	path, err := securePath(destDir, entry.Name)
	if err != nil {
		return err
	}
	if entry.FileInfo().IsDir() {
		return os.MkdirAll(path, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to read archive entry %s: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	return out.Close()
}
