// Package platform describes the host build target: operating system,
// CPU architecture, ABI flavor and accelerator variant. A Descriptor is
// derived once from the host environment and read-only thereafter.
package platform

import (
	"runtime"
)

// ABI is the binary interface flavor of the target.
type ABI int

const (
	// Standard covers the ELF/Mach-O platforms (linux, darwin).
	Standard ABI = iota
	// MSVC covers the Windows toolchain. Prebuilt artifacts for it are
	// published as zip archives and carry no framework library.
	MSVC
)

// Accel selects the accelerator variant of the prebuilt artifacts.
type Accel string

const (
	CPU Accel = "cpu"
	GPU Accel = "gpu"
)

// Descriptor describes one build target. All fields are fixed after
// construction.
type Descriptor struct {
	OS    string // runtime.GOOS: "linux", "darwin", "windows", ...
	Arch  string // runtime.GOARCH: "amd64", "arm64", ...
	ABI   ABI
	Accel Accel
}

// Host derives the descriptor for the current process.
func Host(gpu bool) Descriptor {
	accel := CPU
	if gpu {
		accel = GPU
	}
	abi := Standard
	if runtime.GOOS == "windows" {
		abi = MSVC
	}
	return Descriptor{
		OS:    runtime.GOOS,
		Arch:  runtime.GOARCH,
		ABI:   abi,
		Accel: accel,
	}
}

// RemoteOS returns the operating-system token used in remote artifact
// file names. The remote store names the macOS builds "darwin", which
// matches runtime.GOOS, so today this is the identity mapping; it stays
// a function so naming drift has a single place to land.
func (d Descriptor) RemoteOS() string {
	return d.OS
}

// RemoteArch returns the architecture token used in remote artifact
// file names. The remote store uses GNU-style names.
func (d Descriptor) RemoteArch() string {
	switch d.Arch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return d.Arch
	}
}

// ArchiveExt returns the archive extension the remote store publishes
// for this target.
func (d Descriptor) ArchiveExt() string {
	if d.ABI == MSVC {
		return ".zip"
	}
	return ".tar.gz"
}

// SharedLibName returns the platform file name of a shared library,
// e.g. "libtensorflow.so" on linux and "tensorflow.dll" on windows.
func (d Descriptor) SharedLibName(name string) string {
	switch d.OS {
	case "windows":
		return name + ".dll"
	case "darwin":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// DLLSuffix returns the shared library suffix for this target,
// including the leading dot.
func (d Descriptor) DLLSuffix() string {
	switch d.OS {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}

// PrebuiltSupported reports whether the remote store publishes prebuilt
// artifacts for this target. Only the 64-bit x86 builds of the three
// first-class operating systems are published.
func (d Descriptor) PrebuiltSupported() bool {
	if d.Arch != "amd64" {
		return false
	}
	switch d.OS {
	case "linux", "darwin", "windows":
		return true
	}
	return false
}
