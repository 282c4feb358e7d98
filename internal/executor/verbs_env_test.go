package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestEnvExists_AllowlistedSandboxVariable(t *testing.T) {
	ws := newTestWorkspace(t)
	ws.Variables["HOME"] = "/home/agent"
	out, failure := envExists(context.Background(), &mk8shell.Operation{Args: []string{"HOME"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "true" {
		t.Fatalf("expected true, got %q", out)
	}
}

func TestEnvExists_NotAllowlistedIsFalse(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := envExists(context.Background(), &mk8shell.Operation{Args: []string{"AWS_SECRET_ACCESS_KEY"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "false" {
		t.Fatalf("expected false for a non-allowlisted name, got %q", out)
	}
}

func TestEnvList_IncludesSetAllowlistedNames(t *testing.T) {
	ws := newTestWorkspace(t)
	ws.Variables["HOME"] = "/home/agent"
	out, failure := envList(context.Background(), &mk8shell.Operation{}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if !strings.Contains(out, "HOME") {
		t.Fatalf("expected HOME in the listing, got %q", out)
	}
}
