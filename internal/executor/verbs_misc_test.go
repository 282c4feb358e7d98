package executor

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestMathEval_BasicArithmetic(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := mathEval(context.Background(), &mk8shell.Operation{Args: []string{"2 + 3 * (4 - 1)"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	if out != "11" {
		t.Fatalf("expected 11, got %q", out)
	}
}

func TestMathEval_RejectsDisallowedCharacters(t *testing.T) {
	ws := newTestWorkspace(t)
	_, f := mathEval(context.Background(), &mk8shell.Operation{Args: []string{"system('rm -rf /')"}}, ws)
	if f == nil || f.Kind != mk8shell.ErrorKindCompile {
		t.Fatalf("expected compile error for disallowed characters, got %v", f)
	}
}

func TestMathEval_DivisionByZero(t *testing.T) {
	ws := newTestWorkspace(t)
	_, f := mathEval(context.Background(), &mk8shell.Operation{Args: []string{"1/0"}}, ws)
	if f == nil {
		t.Fatalf("expected a failure for division by zero")
	}
}

func TestVersionCompare(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := versionCompare(context.Background(), &mk8shell.Operation{Args: []string{"1.2.3", "1.10.0"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	if out != "-1" {
		t.Fatalf("expected -1 (1.2.3 < 1.10.0), got %q", out)
	}
}

func TestArchiveExtract_RejectsPathTraversalEntry(t *testing.T) {
	ws := newTestWorkspace(t)
	archivePath := filepath.Join(ws.SandboxRoot, "evil.zip")
	writeZip(t, archivePath, map[string]string{"../../etc/passwd": "pwned"})

	_, f := archiveExtract(context.Background(), &mk8shell.Operation{Args: []string{"evil.zip", "out"}}, ws)
	if f == nil || f.Kind != mk8shell.ErrorKindPathViolation {
		t.Fatalf("expected PathViolation for a traversal entry, got %v", f)
	}
}

func TestArchiveExtract_RejectsBlockedExtension(t *testing.T) {
	ws := newTestWorkspace(t)
	archivePath := filepath.Join(ws.SandboxRoot, "bad.zip")
	writeZip(t, archivePath, map[string]string{"payload.exe": "MZ"})

	_, f := archiveExtract(context.Background(), &mk8shell.Operation{Args: []string{"bad.zip", "out"}}, ws)
	if f == nil || f.Kind != mk8shell.ErrorKindPermissionDenied {
		t.Fatalf("expected PermissionDenied for a blocked extension, got %v", f)
	}
}

func TestArchiveExtract_ExtractsCleanArchive(t *testing.T) {
	ws := newTestWorkspace(t)
	archivePath := filepath.Join(ws.SandboxRoot, "good.zip")
	writeZip(t, archivePath, map[string]string{"dir/file.txt": "contents"})

	out, f := archiveExtract(context.Background(), &mk8shell.Operation{Args: []string{"good.zip", "out"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	data, err := os.ReadFile(filepath.Join(out, "dir", "file.txt"))
	if err != nil {
		t.Fatalf("expected extracted file: %v", err)
	}
	if string(data) != "contents" {
		t.Fatalf("expected contents, got %q", data)
	}
}

func TestNetResolve_RejectsHostnameThatOnlyResolvesPrivately(t *testing.T) {
	ws := newTestWorkspace(t)
	_, f := netResolve(context.Background(), &mk8shell.Operation{Args: []string{"localhost"}}, ws)
	if f == nil {
		t.Fatalf("expected localhost to be rejected as private/loopback")
	}
}

func TestURLValidate_RejectsNonHTTPScheme(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := urlValidateVerb(context.Background(), &mk8shell.Operation{Args: []string{"ftp://example.com/file"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	if out != "false" {
		t.Fatalf("expected false for a non-http(s) scheme, got %q", out)
	}
}

func TestVersionSatisfies(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := versionSatisfies(context.Background(), &mk8shell.Operation{Args: []string{"1.3.0", "1.2.0"}}, ws)
	if f != nil || out != "true" {
		t.Fatalf("expected true, got out=%q failure=%v", out, f)
	}
	out, f = versionSatisfies(context.Background(), &mk8shell.Operation{Args: []string{"1.1.0", "1.2.0"}}, ws)
	if f != nil || out != "false" {
		t.Fatalf("expected false, got out=%q failure=%v", out, f)
	}
}

func TestBase32RoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)
	enc, f := base32Enc(context.Background(), &mk8shell.Operation{Args: []string{"hello"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	dec, f := base32Dec(context.Background(), &mk8shell.Operation{Args: []string{enc}}, ws)
	if f != nil || dec != "hello" {
		t.Fatalf("expected round-trip to hello, got dec=%q failure=%v", dec, f)
	}
}

func TestHTMLEscapeUnescape(t *testing.T) {
	ws := newTestWorkspace(t)
	escaped, f := htmlEscapeVerb(context.Background(), &mk8shell.Operation{Args: []string{"<b>&"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	unescaped, f := htmlUnescapeVerb(context.Background(), &mk8shell.Operation{Args: []string{escaped}}, ws)
	if f != nil || unescaped != "<b>&" {
		t.Fatalf("expected round-trip, got unescaped=%q failure=%v", unescaped, f)
	}
}

func TestFormatDuration(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := formatDuration(context.Background(), &mk8shell.Operation{Args: []string{"90"}}, ws)
	if f != nil || out != "1m30s" {
		t.Fatalf("expected 1m30s, got out=%q failure=%v", out, f)
	}
}

func TestFormatPercent(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := formatPercent(context.Background(), &mk8shell.Operation{Args: []string{"0.256"}}, ws)
	if f != nil || out != "25.6%" {
		t.Fatalf("expected 25.6%%, got out=%q failure=%v", out, f)
	}
}

func TestMathStat(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := mathStat(context.Background(), &mk8shell.Operation{Args: []string{"1, 2, 3, 4"}}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	if out == "" {
		t.Fatalf("expected non-empty stats JSON")
	}
}

func TestMk8Limits_ReportsPositiveCeilings(t *testing.T) {
	ws := newTestWorkspace(t)
	out, f := mk8Limits(context.Background(), &mk8shell.Operation{}, ws)
	if f != nil {
		t.Fatalf("unexpected failure: %v", f)
	}
	if out == "" {
		t.Fatalf("expected non-empty limits JSON")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
}
