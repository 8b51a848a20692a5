package acquire

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/cgolink/tfget/internal/linker"
	"github.com/cgolink/tfget/internal/platform"
	"github.com/cgolink/tfget/internal/run"
)

// Probe checks whether the library is already discoverable on the
// system. A negative result is not an error; it just directs flow to
// the next acquisition strategy.
func Probe(ctx context.Context, logger *log.Logger, plat platform.Descriptor, lib Library) (linker.Directives, bool) {
	if d, ok := probeSearchPath(plat, lib); ok {
		return d, true
	}
	return probePkgConfig(ctx, logger, lib)
}

// probeSearchPath scans the executable search path for the import
// library, the way the MSVC toolchain resolves DLLs. Other ABIs have
// no equivalent convention and always report a miss.
func probeSearchPath(plat platform.Descriptor, lib Library) (linker.Directives, bool) {
	if plat.ABI != platform.MSVC {
		return linker.Directives{}, false
	}
	want := lib.Name + ".lib"
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, want)); err == nil {
			return linker.Directives{
				Libs:       []string{lib.Name},
				SearchPath: dir,
			}, true
		}
	}
	return linker.Directives{}, false
}

// probePkgConfig asks pkg-config for the library and translates its
// answer into linker directives. Any failure, including a missing
// pkg-config binary, is an inconclusive probe.
func probePkgConfig(ctx context.Context, logger *log.Logger, lib Library) (linker.Directives, bool) {
	out, err := run.Output(ctx, logger, "pkg-config", []string{"--libs", lib.Name})
	if err != nil {
		if !run.IsNotFound(err) {
			logger.Debug("pkg-config probe inconclusive", "err", err)
		}
		return linker.Directives{}, false
	}
	d := parsePkgConfigLibs(string(out))
	if len(d.Libs) == 0 {
		return linker.Directives{}, false
	}
	return d, true
}

// parsePkgConfigLibs extracts -l and -L flags from pkg-config output.
func parsePkgConfigLibs(out string) linker.Directives {
	var d linker.Directives
	for _, tok := range strings.Fields(out) {
		switch {
		case strings.HasPrefix(tok, "-l"):
			d.Libs = append(d.Libs, strings.TrimPrefix(tok, "-l"))
		case strings.HasPrefix(tok, "-L"):
			d.SearchPath = strings.TrimPrefix(tok, "-L")
		}
	}
	return d
}
