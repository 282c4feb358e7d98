package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignedEnv_RoundTrip(t *testing.T) {
	key := []byte("01234567890123456789012345678901")
	body, err := SignEnv("FOO=bar\nBAZ=\"quoted value\"\n", key, "sandbox-1")
	if err != nil {
		t.Fatalf("SignEnv: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "mk8.signed.env")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	vars, err := ReadSignedEnv(path, key, "sandbox-1")
	if err != nil {
		t.Fatalf("ReadSignedEnv: %v", err)
	}
	if vars["FOO"] != "bar" {
		t.Errorf("FOO = %q, want bar", vars["FOO"])
	}
	if vars["BAZ"] != "quoted value" {
		t.Errorf("BAZ = %q, want \"quoted value\"", vars["BAZ"])
	}
}

func TestSignedEnv_TamperDetected(t *testing.T) {
	key := []byte("01234567890123456789012345678901")
	body, err := SignEnv("FOO=bar\n", key, "sandbox-1")
	if err != nil {
		t.Fatalf("SignEnv: %v", err)
	}
	tampered := body[:len(body)-2] + "00"

	dir := t.TempDir()
	path := filepath.Join(dir, "mk8.signed.env")
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadSignedEnv(path, key, "sandbox-1"); err == nil {
		t.Fatal("expected signature mismatch error for tampered content")
	}
}

func TestSignedEnv_WrongSandboxIDFailsVerification(t *testing.T) {
	key := []byte("01234567890123456789012345678901")
	body, err := SignEnv("FOO=bar\n", key, "sandbox-1")
	if err != nil {
		t.Fatalf("SignEnv: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "mk8.signed.env")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSignedEnv(path, key, "sandbox-2"); err == nil {
		t.Fatal("expected verification failure when sandbox id (and thus derived subkey) differs")
	}
}

func TestSignedEnv_MissingSeparator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mk8.signed.env")
	if err := os.WriteFile(path, []byte("FOO=bar\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	key := []byte("01234567890123456789012345678901")
	if _, err := ReadSignedEnv(path, key, "sandbox-1"); err == nil {
		t.Fatal("expected error for missing signature separator")
	}
}

func TestSignedEnv_EmptySignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mk8.signed.env")
	content := "FOO=bar\n" + signatureSeparator
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	key := []byte("01234567890123456789012345678901")
	if _, err := ReadSignedEnv(path, key, "sandbox-1"); err == nil {
		t.Fatal("expected error for empty signature")
	}
}
