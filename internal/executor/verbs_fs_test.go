package executor

import (
	"context"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestFileWriteThenRead_RoundTrip(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, f := fileWrite(context.Background(), &mk8shell.Operation{Args: []string{"notes/a.txt", "hello"}}, ws); f != nil {
		t.Fatalf("FileWrite failed: %v", f)
	}
	out, f := fileRead(context.Background(), &mk8shell.Operation{Args: []string{"notes/a.txt"}}, ws)
	if f != nil {
		t.Fatalf("FileRead failed: %v", f)
	}
	if out != "hello" {
		t.Fatalf("expected hello, got %q", out)
	}
}

func TestFileWrite_PathEscapeRejected(t *testing.T) {
	ws := newTestWorkspace(t)
	_, f := fileWrite(context.Background(), &mk8shell.Operation{Args: []string{"../outside.txt", "x"}}, ws)
	if f == nil || f.Kind != mk8shell.ErrorKindPathViolation {
		t.Fatalf("expected PathViolation for a path outside sandbox root, got %v", f)
	}
}

func TestFileDelete_NonexistentIsNotAnError(t *testing.T) {
	ws := newTestWorkspace(t)
	_, f := fileDelete(context.Background(), &mk8shell.Operation{Args: []string{"nope.txt"}}, ws)
	if f != nil {
		t.Fatalf("deleting a nonexistent file should succeed, got %v", f)
	}
}

func TestFileReplaceLines_ReplacesRange(t *testing.T) {
	ws := newTestWorkspace(t)
	fileWrite(context.Background(), &mk8shell.Operation{Args: []string{"f.txt", "a\nb\nc\nd"}}, ws)
	_, f := fileReplaceLines(context.Background(), &mk8shell.Operation{Args: []string{"f.txt", "2", "3", "X"}}, ws)
	if f != nil {
		t.Fatalf("FileReplaceLines failed: %v", f)
	}
	out, _ := fileRead(context.Background(), &mk8shell.Operation{Args: []string{"f.txt"}}, ws)
	if out != "a\nX\nd" {
		t.Fatalf("expected a\\nX\\nd, got %q", out)
	}
}
