package executor

import (
	"context"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestTextMatch_InvalidRegexIsCompileError(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textMatch(context.Background(), &mk8shell.Operation{Args: []string{"abc", "("}}, ws)
	if failure == nil || failure.Kind != mk8shell.ErrorKindCompile {
		t.Fatalf("expected compile error for invalid regex, got out=%q failure=%v", out, failure)
	}
}

func TestTextMatch_MatchesValidRegex(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textMatch(context.Background(), &mk8shell.Operation{Args: []string{"hello world", "^hello"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "true" {
		t.Fatalf("expected match, got %q", out)
	}
}

func TestTextLineCount(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textLineCount(context.Background(), &mk8shell.Operation{Args: []string{"a\nb\nc\n"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "3" {
		t.Fatalf("expected 3 lines, got %q", out)
	}
}

func TestTextUpperLower(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textUpper(context.Background(), &mk8shell.Operation{Args: []string{"Hello"}}, ws)
	if failure != nil || out != "HELLO" {
		t.Fatalf("expected HELLO, got out=%q failure=%v", out, failure)
	}
	out, failure = textLower(context.Background(), &mk8shell.Operation{Args: []string{"Hello"}}, ws)
	if failure != nil || out != "hello" {
		t.Fatalf("expected hello, got out=%q failure=%v", out, failure)
	}
}

func TestTextPad(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textPad(context.Background(), &mk8shell.Operation{Args: []string{"ab", "5", "*"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "ab***" {
		t.Fatalf("expected right-padded result, got %q", out)
	}
	out, failure = textPad(context.Background(), &mk8shell.Operation{Args: []string{"ab", "5", "*", "left"}}, ws)
	if failure != nil || out != "***ab" {
		t.Fatalf("expected left-padded result, got out=%q failure=%v", out, failure)
	}
}

func TestTextRepeat(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textRepeat(context.Background(), &mk8shell.Operation{Args: []string{"ab", "3"}}, ws)
	if failure != nil || out != "ababab" {
		t.Fatalf("expected ababab, got out=%q failure=%v", out, failure)
	}
}

func TestTextReverse(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textReverse(context.Background(), &mk8shell.Operation{Args: []string{"abc"}}, ws)
	if failure != nil || out != "cba" {
		t.Fatalf("expected cba, got out=%q failure=%v", out, failure)
	}
}

func TestTextIndexOf(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textIndexOf(context.Background(), &mk8shell.Operation{Args: []string{"hello world", "world"}}, ws)
	if failure != nil || out != "6" {
		t.Fatalf("expected 6, got out=%q failure=%v", out, failure)
	}
}

func TestTextSubstring(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textSubstring(context.Background(), &mk8shell.Operation{Args: []string{"hello world", "6", "11"}}, ws)
	if failure != nil || out != "world" {
		t.Fatalf("expected world, got out=%q failure=%v", out, failure)
	}
}

func TestTextTemplate(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := textTemplate(context.Background(), &mk8shell.Operation{Args: []string{"hi {{name}}", "name=world"}}, ws)
	if failure != nil || out != "hi world" {
		t.Fatalf("expected substituted template, got out=%q failure=%v", out, failure)
	}
}
