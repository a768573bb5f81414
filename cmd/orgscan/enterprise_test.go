package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reconkit/orgscan/internal/config"
)

// writeCredsFile writes a credentials file and returns its path.
func writeCredsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write credentials file: %v", err)
	}
	return path
}

// TestNewEnterpriseCmd tests the enterprise command creation.
func TestNewEnterpriseCmd(t *testing.T) {
	t.Parallel()

	cmd := NewEnterpriseCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cmd.Use, "enterprise") {
			t.Errorf("expected use to start with 'enterprise', got %q", cmd.Use)
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has pacing flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"timeout", "tor-timeout", "delay-min", "delay-max"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestReadTargetList tests target list file parsing.
func TestReadTargetList(t *testing.T) {
	t.Parallel()

	t.Run("skips blanks and comments", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "targets.txt")
		content := "Example Corp\n\n# a comment\n  Another Inc  \n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		names, err := readTargetList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 2 || names[0] != "Example Corp" || names[1] != "Another Inc" {
			t.Errorf("unexpected targets: %v", names)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		if _, err := readTargetList(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

// TestRunEnterpriseCmdValidation tests the failure paths that stop the
// run before any network traffic.
func TestRunEnterpriseCmdValidation(t *testing.T) {
	t.Run("no targets returns ErrNoTarget", func(t *testing.T) {
		creds := writeCredsFile(t, "services: {}\n")

		root := NewRootCmd()
		root.SetArgs([]string{"enterprise", "-c", creds})

		err := root.Execute()
		if !errors.Is(err, config.ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("missing explicit credentials file returns error", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"enterprise", "-c", filepath.Join(t.TempDir(), "missing"), "Example Corp"})

		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "credentials file not found") {
			t.Errorf("expected a credentials-file error, got %v", err)
		}
	})

	t.Run("missing registry cookie returns error", func(t *testing.T) {
		creds := writeCredsFile(t, "services:\n  fofa:\n    api_key: abc\n")

		root := NewRootCmd()
		root.SetArgs([]string{"enterprise", "-c", creds, "Example Corp"})

		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "no registry cookie") {
			t.Errorf("expected a registry-cookie error, got %v", err)
		}
	})

	t.Run("conflicting report formats returns error", func(t *testing.T) {
		creds := writeCredsFile(t, "services: {}\n")

		root := NewRootCmd()
		root.SetArgs([]string{"enterprise", "-c", creds, "--json", "--markdown", "Example Corp"})

		err := root.Execute()
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("conflicting transports returns error", func(t *testing.T) {
		creds := writeCredsFile(t, "services: {}\n")

		root := NewRootCmd()
		root.SetArgs([]string{"enterprise", "-c", creds, "--proxy", "127.0.0.1:1080", "--tor", "Example Corp"})

		err := root.Execute()
		if !errors.Is(err, config.ErrConflictingTransports) {
			t.Errorf("expected ErrConflictingTransports, got %v", err)
		}
	})

	t.Run("inverted delay band returns error", func(t *testing.T) {
		creds := writeCredsFile(t, "services: {}\n")

		root := NewRootCmd()
		root.SetArgs([]string{"enterprise", "-c", creds, "--delay-min", "5s", "--delay-max", "1s", "Example Corp"})

		err := root.Execute()
		if !errors.Is(err, config.ErrInvalidTargetDelay) {
			t.Errorf("expected ErrInvalidTargetDelay, got %v", err)
		}
	})
}
