package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFilesUsesHomeFallback(t *testing.T) {
	tmp := t.TempDir()
	fakeHome := filepath.Join(tmp, "home")
	if err := os.MkdirAll(filepath.Join(fakeHome, ".local", "bin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	envPath := filepath.Join(fakeHome, ".local", "bin", ".env")
	if err := os.WriteFile(envPath, []byte("NICKBOT_TEST_TOKEN=fromfile"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	t.Chdir(tmp)
	t.Setenv("HOME", fakeHome)
	t.Setenv("NICKBOT_TEST_TOKEN", "")
	_ = os.Unsetenv("NICKBOT_TEST_TOKEN")

	loaded, err := LoadEnvFiles("")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(loaded) != 1 || loaded[0] != envPath {
		t.Fatalf("expected only the home file to load, got %v", loaded)
	}
	if got := os.Getenv("NICKBOT_TEST_TOKEN"); got != "fromfile" {
		t.Fatalf("expected value from file, got %q", got)
	}

	// When env already set, file should not override.
	t.Setenv("NICKBOT_TEST_TOKEN", "envwins")
	if _, err := LoadEnvFiles(""); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := os.Getenv("NICKBOT_TEST_TOKEN"); got != "envwins" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}

func TestLoadEnvFilesExplicitMustExist(t *testing.T) {
	if _, err := LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestLoadEnvFilesWorkingDirectoryFirst(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)
	t.Setenv("HOME", filepath.Join(tmp, "nohome"))
	if err := os.WriteFile(filepath.Join(tmp, DefaultEnvFile), []byte("NICKBOT_TEST_GUILD=123"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("NICKBOT_TEST_GUILD", "")
	_ = os.Unsetenv("NICKBOT_TEST_GUILD")

	loaded, err := LoadEnvFiles("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != DefaultEnvFile {
		t.Fatalf("expected %s to load, got %v", DefaultEnvFile, loaded)
	}
	if got := os.Getenv("NICKBOT_TEST_GUILD"); got != "123" {
		t.Fatalf("expected 123, got %q", got)
	}
}

func TestLoadEnvFilesReportsPathOnParseFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.env")
	if err := os.WriteFile(path, []byte("NICKBOT_TEST_BROKEN='unterminated"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}

	_, err := LoadEnvFiles(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "config load env file "+path) {
		t.Fatalf("expected error to name the file, got %v", err)
	}
}
