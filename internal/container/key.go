package container

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

// keySize is the machine-local HMAC key length: 256 bits (spec.md §3
// "a 256-bit random HMAC-SHA256 key").
const keySize = 32

// LoadOrCreateKey reads the raw 32-byte machine key from path,
// generating and persisting one if absent. The key is machine-local
// and never synced (spec.md §3).
func LoadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != keySize {
			return nil, fmt.Errorf("signing key at %s is %d bytes, want %d", path, len(data), keySize)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("persist signing key: %w", err)
	}
	return key, nil
}

// DeriveSandboxKey expands the shared machine key into a sandbox-scoped
// subkey via HKDF-SHA256, so independent sandboxes never verify with
// literally the same key material even though they share one root
// secret (SPEC_FULL.md "derives the per-sandbox HMAC verification
// context from the machine key without reusing raw key material across
// independent sandboxes").
func DeriveSandboxKey(machineKey []byte, sandboxID string) ([]byte, error) {
	out := make([]byte, keySize)
	r := hkdf.New(sha256.New, machineKey, nil, []byte("mk8shell-sandbox:"+sandboxID))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive sandbox key: %w", err)
	}
	return out, nil
}
