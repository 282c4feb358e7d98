package container

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistry(t *testing.T, dir string, body string) string {
	t.Helper()
	path := filepath.Join(dir, "sandboxes.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistry_ResolveCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	sandboxDir := filepath.Join(dir, "sb1")
	if err := os.MkdirAll(sandboxDir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := writeRegistry(t, dir, `{"MySandbox":{"rootPath":"`+sandboxDir+`","registeredAtUtc":"2026-01-01T00:00:00Z"}}`)

	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer reg.Close()

	e, err := reg.Resolve("mysandbox")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.RootPath != sandboxDir {
		t.Errorf("RootPath = %q, want %q", e.RootPath, sandboxDir)
	}
}

func TestRegistry_MissingIsNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeRegistry(t, dir, `{}`)
	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer reg.Close()

	if _, err := reg.Resolve("nope"); err == nil {
		t.Fatal("expected ErrSandboxNotFound")
	}
}

func TestRegistry_ReloadOnCacheMiss(t *testing.T) {
	dir := t.TempDir()
	sandboxDir := filepath.Join(dir, "sb2")
	if err := os.MkdirAll(sandboxDir, 0o700); err != nil {
		t.Fatal(err)
	}
	path := writeRegistry(t, dir, `{}`)
	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer reg.Close()

	if err := os.WriteFile(path, []byte(`{"late":{"rootPath":"`+sandboxDir+`","registeredAtUtc":"2026-01-01T00:00:00Z"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := reg.Resolve("late")
	if err != nil {
		t.Fatalf("Resolve after external write: %v", err)
	}
	if e.RootPath != sandboxDir {
		t.Errorf("RootPath = %q, want %q", e.RootPath, sandboxDir)
	}
}
