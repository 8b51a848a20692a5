package acquire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cgolink/tfget/internal/linker"
	"github.com/cgolink/tfget/internal/platform"
)

func TestParsePkgConfigLibs(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want linker.Directives
	}{
		{
			name: "libs and search path",
			out:  "-L/usr/local/lib -ltensorflow -ltensorflow_framework\n",
			want: linker.Directives{
				Libs:       []string{"tensorflow", "tensorflow_framework"},
				SearchPath: "/usr/local/lib",
			},
		},
		{
			name: "libs only",
			out:  "-ltensorflow\n",
			want: linker.Directives{Libs: []string{"tensorflow"}},
		},
		{
			name: "empty output",
			out:  "\n",
			want: linker.Directives{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePkgConfigLibs(tt.out)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parsePkgConfigLibs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProbeSearchPath(t *testing.T) {
	lib := TensorFlow()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tensorflow.lib"), []byte("import lib"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	msvc := platform.Descriptor{OS: "windows", Arch: "amd64", ABI: platform.MSVC}
	d, ok := probeSearchPath(msvc, lib)
	if !ok {
		t.Fatal("probeSearchPath() missed the import library on PATH")
	}
	if d.SearchPath != dir {
		t.Errorf("search path = %q, want %q", d.SearchPath, dir)
	}
	if len(d.Libs) != 1 || d.Libs[0] != "tensorflow" {
		t.Errorf("libs = %v, want [tensorflow]", d.Libs)
	}
}

func TestProbeSearchPathMiss(t *testing.T) {
	lib := TensorFlow()
	t.Setenv("PATH", t.TempDir())

	msvc := platform.Descriptor{OS: "windows", Arch: "amd64", ABI: platform.MSVC}
	if _, ok := probeSearchPath(msvc, lib); ok {
		t.Error("probeSearchPath() reported a hit on an empty PATH")
	}
}

func TestProbeSearchPathNonMSVC(t *testing.T) {
	lib := TensorFlow()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tensorflow.lib"), []byte("import lib"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	linux := platform.Descriptor{OS: "linux", Arch: "amd64", ABI: platform.Standard}
	if _, ok := probeSearchPath(linux, lib); ok {
		t.Error("probeSearchPath() should never hit on a non-msvc ABI")
	}
}
