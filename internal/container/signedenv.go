package container

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// signatureSeparator is the literal byte sequence splitting env content
// from its trailing hex HMAC (spec.md §6 "Signed environment file").
const signatureSeparator = "\n---MK8-SIGNATURE---\n"

// ErrSignatureInvalid covers every way a signed env file can fail to
// verify: missing separator, empty signature, or HMAC mismatch
// (spec.md §3: "a missing separator, empty signature, or signature
// mismatch is a fatal error").
var ErrSignatureInvalid = fmt.Errorf("signed environment verification failed")

// ReadSignedEnv reads the signed env file at path, verifies its HMAC
// against the sandbox-derived subkey, and parses the verified content
// into a KEY=VALUE map. The raw content is never trusted before
// verification succeeds.
func ReadSignedEnv(path string, machineKey []byte, sandboxID string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signed env: %w", err)
	}

	sepIdx := bytes.Index(raw, []byte(signatureSeparator))
	if sepIdx < 0 {
		return nil, fmt.Errorf("%w: missing signature separator", ErrSignatureInvalid)
	}
	content := raw[:sepIdx]
	sigHex := bytes.TrimSpace(raw[sepIdx+len(signatureSeparator):])
	if len(sigHex) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrSignatureInvalid)
	}

	gotSig, err := hex.DecodeString(string(sigHex))
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not valid hex", ErrSignatureInvalid)
	}

	subkey, err := DeriveSandboxKey(machineKey, sandboxID)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, subkey)
	mac.Write(content)
	wantSig := mac.Sum(nil)

	if subtle.ConstantTimeCompare(gotSig, wantSig) != 1 {
		return nil, fmt.Errorf("%w: HMAC mismatch", ErrSignatureInvalid)
	}

	return parseEnvLines(content), nil
}

func parseEnvLines(content []byte) map[string]string {
	vars := make(map[string]string)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		val = unquote(val)
		vars[key] = val
	}
	return vars
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// SignEnv produces a signed env file body for content, using the
// sandbox-derived subkey. Used by test fixtures and the out-of-band
// "startup" tool's archival copies (spec.md §6 "history/...signed.env").
func SignEnv(content string, machineKey []byte, sandboxID string) (string, error) {
	subkey, err := DeriveSandboxKey(machineKey, sandboxID)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, subkey)
	mac.Write([]byte(content))
	sig := hex.EncodeToString(mac.Sum(nil))
	return content + signatureSeparator + sig, nil
}
