package container

import (
	"os"
	"path/filepath"
	"testing"
)

func setupContainer(t *testing.T, globalEnvJSON string) (*Container, string) {
	t.Helper()
	ResetGlobalEnvCacheForTests()
	t.Cleanup(ResetGlobalEnvCacheForTests)

	dir := t.TempDir()
	sandboxDir := filepath.Join(dir, "sb")
	if err := os.MkdirAll(sandboxDir, 0o700); err != nil {
		t.Fatal(err)
	}

	keyPath := filepath.Join(dir, "mk8.shell.key")
	machineKey, err := LoadOrCreateKey(keyPath)
	if err != nil {
		t.Fatalf("LoadOrCreateKey: %v", err)
	}

	body, err := SignEnv("MK8_BLACKLIST=custom-bad\nMK8_VOCAB_ENVS=staging,prod\n", machineKey, "demo")
	if err != nil {
		t.Fatalf("SignEnv: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sandboxDir, "mk8.signed.env"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	regPath := filepath.Join(dir, "sandboxes.json")
	if err := os.WriteFile(regPath, []byte(`{"demo":{"rootPath":"`+sandboxDir+`","registeredAtUtc":"2026-01-01T00:00:00Z"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	reg, err := NewRegistry(regPath)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	globalPath := filepath.Join(dir, "global.json")
	if globalEnvJSON != "" {
		if err := os.WriteFile(globalPath, []byte(globalEnvJSON), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return New(reg, keyPath, globalPath), sandboxDir
}

func TestContainer_CreateAssemblesWorkspace(t *testing.T) {
	c, sandboxDir := setupContainer(t, `{"vocabularies":{"ENVS":["dev"]}}`)

	ws, err := c.Create("demo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ws.SandboxRoot != sandboxDir {
		t.Errorf("SandboxRoot = %q, want %q", ws.SandboxRoot, sandboxDir)
	}
	if ws.WorkingDirectory != sandboxDir {
		t.Errorf("WorkingDirectory = %q, want %q", ws.WorkingDirectory, sandboxDir)
	}
	if hit, matched := ws.Blacklist.Check("something custom-bad happened"); !matched || hit != "custom-bad" {
		t.Errorf("expected sandbox MK8_BLACKLIST entry to be active, got hit=%q matched=%v", hit, matched)
	}
	if !ws.Vocab.Contains("ENVS", "staging") {
		t.Error("expected sandbox MK8_VOCAB_ENVS entry 'staging' to be merged in")
	}
	if !ws.Vocab.Contains("ENVS", "dev") {
		t.Error("expected global vocabularies entry 'dev' to be merged in (additive union)")
	}
}

func TestContainer_CreateSandboxNotFound(t *testing.T) {
	c, _ := setupContainer(t, "")
	if _, err := c.Create("nonexistent"); err == nil {
		t.Fatal("expected sandbox-not-found error")
	}
}

func TestContainer_GlobalDisableToggleKeepsSandboxPatterns(t *testing.T) {
	c, _ := setupContainer(t, `{"disableHardcodedGigablacklist":true}`)
	ws, err := c.Create("demo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if hit, matched := ws.Blacklist.Check("rm -rf /"); matched {
		t.Errorf("expected hardcoded gigablacklist disabled, but matched %q", hit)
	}
	if hit, matched := ws.Blacklist.Check("custom-bad"); !matched || hit != "custom-bad" {
		t.Error("expected sandbox/custom patterns to remain active regardless of hardcoded toggle")
	}
}
