package executor

import (
	"context"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestJSONDelete_RemovesKey(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := jsonDelete(context.Background(), &mk8shell.Operation{Args: []string{`{"a":1,"b":2}`, "a"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != `{"b":2}` {
		t.Fatalf("expected key a removed, got %q", out)
	}
}

func TestJSONKeys_SortedTopLevel(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := jsonKeys(context.Background(), &mk8shell.Operation{Args: []string{`{"b":1,"a":2}`}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "a\nb" {
		t.Fatalf("expected sorted keys a, b, got %q", out)
	}
}

func TestJSONArrayAppend(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := jsonArrayAppend(context.Background(), &mk8shell.Operation{Args: []string{`[1,2]`, "3"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "[1,2,3]" {
		t.Fatalf("expected appended array, got %q", out)
	}
}

func TestJSONType(t *testing.T) {
	ws := newTestWorkspace(t)
	cases := map[string]string{
		`{"a":1}`: "object",
		`[1,2]`:   "array",
		`"hi"`:    "string",
		"1.5":     "number",
		"true":    "bool",
		"null":    "null",
	}
	for in, want := range cases {
		out, failure := jsonType(context.Background(), &mk8shell.Operation{Args: []string{in}}, ws)
		if failure != nil {
			t.Fatalf("unexpected failure for %q: %v", in, failure)
		}
		if out != want {
			t.Fatalf("JSONType(%q) = %q, want %q", in, out, want)
		}
	}
}
