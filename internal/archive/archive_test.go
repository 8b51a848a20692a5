package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/cgolink/tfget/internal/platform"
)

// writeTarGz builds a tar.gz fixture at path. Entries with a non-empty
// link are symlinks; entries ending in "/" are directories.
func writeTarGz(t *testing.T, path string, entries map[string]string, links map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if name[len(name)-1] == '/' {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header: %v", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(content)); err != nil {
				t.Fatalf("failed to write tar entry: %v", err)
			}
		}
	}
	for name, linkname := range links {
		hdr := &tar.Header{Name: name, Mode: 0o777, Typeflag: tar.TypeSymlink, Linkname: linkname}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write symlink header: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

// writeZip builds a zip fixture at path.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func TestTarGzExtract(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "lib.tar.gz")
	writeTarGz(t, archivePath,
		map[string]string{
			"lib/":                           "",
			"lib/libtensorflow.so.2.2.0":     "library bytes",
			"lib/libtensorflow_framework.so": "framework bytes",
			"include/tensorflow/c/c_api.h":   "header",
		},
		map[string]string{
			"lib/libtensorflow.so": "libtensorflow.so.2.2.0",
		})

	dest := filepath.Join(dir, "unpacked")
	if err := (TarGz{}).Extract(archivePath, dest); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "lib", "libtensorflow.so.2.2.0"))
	if err != nil {
		t.Fatalf("failed to read extracted file: %v", err)
	}
	if string(got) != "library bytes" {
		t.Errorf("extracted content = %q, want %q", got, "library bytes")
	}

	// Header outside lib/ is extracted too; tarballs unpack whole.
	if _, err := os.Stat(filepath.Join(dest, "include", "tensorflow", "c", "c_api.h")); err != nil {
		t.Errorf("expected header to be extracted: %v", err)
	}

	link, err := os.Readlink(filepath.Join(dest, "lib", "libtensorflow.so"))
	if err != nil {
		t.Fatalf("failed to read symlink: %v", err)
	}
	if link != "libtensorflow.so.2.2.0" {
		t.Errorf("symlink target = %q, want %q", link, "libtensorflow.so.2.2.0")
	}
}

func TestTarGzExtractCorrupt(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bad.tar.gz")
	if err := os.WriteFile(archivePath, []byte("this is not gzip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (TarGz{}).Extract(archivePath, filepath.Join(dir, "out")); err == nil {
		t.Error("Extract() succeeded on corrupt archive, want error")
	}
}

func TestTarGzRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, archivePath, map[string]string{"../escape.txt": "boom"}, nil)

	if err := (TarGz{}).Extract(archivePath, filepath.Join(dir, "out")); err == nil {
		t.Error("Extract() accepted an entry escaping the destination")
	}
}

func TestZipExtractPrefixFilter(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "lib.zip")
	writeZip(t, archivePath, map[string]string{
		"lib/tensorflow.dll":  "dll bytes",
		"lib/tensorflow.lib":  "import lib",
		"include/c_api.h":     "header",
		"THIRD_PARTY_NOTICES": "notices",
	})

	dest := filepath.Join(dir, "unpacked")
	z := &Zip{Prefix: "lib"}
	if err := z.Extract(archivePath, dest); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	for _, want := range []string{
		filepath.Join("lib", "tensorflow.dll"),
		filepath.Join("lib", "tensorflow.lib"),
	} {
		if _, err := os.Stat(filepath.Join(dest, want)); err != nil {
			t.Errorf("expected %s to be extracted: %v", want, err)
		}
	}
	for _, absent := range []string{
		filepath.Join("include", "c_api.h"),
		"THIRD_PARTY_NOTICES",
	} {
		if _, err := os.Stat(filepath.Join(dest, absent)); err == nil {
			t.Errorf("entry %s should have been filtered out", absent)
		}
	}
}

func TestZipExtractCorrupt(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bad.zip")
	if err := os.WriteFile(archivePath, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	z := &Zip{Prefix: "lib"}
	if err := z.Extract(archivePath, filepath.Join(dir, "out")); err == nil {
		t.Error("Extract() succeeded on corrupt archive, want error")
	}
}

func TestForABI(t *testing.T) {
	if _, ok := ForABI(platform.MSVC, "lib").(*Zip); !ok {
		t.Error("ForABI(MSVC) did not return a zip extractor")
	}
	if _, ok := ForABI(platform.Standard, "lib").(TarGz); !ok {
		t.Error("ForABI(Standard) did not return a tar.gz extractor")
	}
}
