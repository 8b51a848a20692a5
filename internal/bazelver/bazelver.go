// Package bazelver gates the source build on the installed bazel
// version. It parses the free-form output of "bazel version" and
// compares the reported release against a required minimum.
package bazelver

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// versionLabel starts the line carrying the release version, e.g.
// "Build label: 0.5.4".
const versionLabel = "Build label:"

var (
	// ErrNoVersion means no version line was found in the tool output.
	ErrNoVersion = errors.New("no version label in output")
	// ErrTooOld means the installed tool is below the required minimum.
	ErrTooOld = errors.New("tool version below required minimum")
)

// Parse extracts the version token from version-command output.
// Nightly builds report a trailing hyphen ("1.0.0-"); a single one is
// stripped before validation.
func Parse(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, versionLabel) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, versionLabel))
		if len(fields) == 0 {
			return "", fmt.Errorf("%w: empty %q line", ErrNoVersion, versionLabel)
		}
		v := strings.TrimSuffix(fields[0], "-")
		if !semver.IsValid("v" + v) {
			return "", fmt.Errorf("invalid version %q in %q line", v, versionLabel)
		}
		return v, nil
	}
	return "", ErrNoVersion
}

// Check parses the version-command output and fails with ErrTooOld if
// the reported version is below min. min must be a valid
// major.minor.patch string.
func Check(out, min string) error {
	v, err := Parse(out)
	if err != nil {
		return err
	}
	if semver.Compare("v"+v, "v"+min) < 0 {
		return fmt.Errorf("%w: installed %s, need %s or newer", ErrTooOld, v, min)
	}
	return nil
}
