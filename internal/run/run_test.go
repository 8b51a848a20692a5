package run

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunSuccess(t *testing.T) {
	requireShell(t)
	err := Run(context.Background(), log.Default(), "sh", []string{"-c", "exit 0"})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
}

func TestRunFailureCarriesArgv(t *testing.T) {
	requireShell(t)
	err := Run(context.Background(), log.Default(), "sh", []string{"-c", "exit 3"})
	if err == nil {
		t.Fatal("Run() succeeded on a failing command")
	}

	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Run() error = %T, want *ExitError", err)
	}
	if len(ee.Argv) != 3 || ee.Argv[0] != "sh" {
		t.Errorf("Argv = %v, want the exact command line", ee.Argv)
	}
	if !strings.Contains(ee.Error(), "exit 3") {
		t.Errorf("Error() = %q, want the command line included", ee.Error())
	}
}

func TestOutputCaptures(t *testing.T) {
	requireShell(t)
	out, err := Output(context.Background(), log.Default(), "sh", []string{"-c", "echo Build label: 3.1.0"})
	if err != nil {
		t.Fatalf("Output() failed: %v", err)
	}
	if strings.TrimSpace(string(out)) != "Build label: 3.1.0" {
		t.Errorf("Output() = %q", out)
	}
}

func TestOutputWorkingDir(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	out, err := Output(context.Background(), log.Default(), "sh", []string{"-c", "pwd"}, Dir(dir))
	if err != nil {
		t.Fatalf("Output() failed: %v", err)
	}
	// Resolve symlinks: macOS puts temp dirs behind /private.
	if !strings.Contains(strings.TrimSpace(string(out)), strings.TrimPrefix(dir, "/private")) {
		t.Errorf("pwd = %q, want %q", out, dir)
	}
}

func TestEnvOption(t *testing.T) {
	requireShell(t)
	out, err := Output(context.Background(), log.Default(), "sh", []string{"-c", "echo $TFGET_TEST_VALUE"},
		Env("TFGET_TEST_VALUE", "forty-two"))
	if err != nil {
		t.Fatalf("Output() failed: %v", err)
	}
	if strings.TrimSpace(string(out)) != "forty-two" {
		t.Errorf("env value = %q, want forty-two", out)
	}
}

func TestIsNotFound(t *testing.T) {
	err := Run(context.Background(), log.Default(), "tfget-no-such-binary", nil)
	if err == nil {
		t.Fatal("Run() found a binary that should not exist")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound() = false for %v", err)
	}
}
