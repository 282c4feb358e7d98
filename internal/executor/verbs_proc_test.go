package executor

import (
	"context"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestProcRunner_GigablacklistHitRejected(t *testing.T) {
	ws := newTestWorkspace(t)
	p := NewProcRunner(ws)
	op := &mk8shell.Operation{Verb: mk8shell.VerbProcRun, Args: []string{"sh", "-c", "rm -rf /"}}
	res := p.Run(context.Background(), op)
	if res.Failure == nil || res.Failure.Kind != mk8shell.ErrorKindGigablacklistHit {
		t.Fatalf("expected GigablacklistHit, got %v", res.Failure)
	}
}

func TestProcRunner_NonWhitelistedBinaryRejectedByTemplate(t *testing.T) {
	ws := newTestWorkspace(t)
	p := NewProcRunner(ws)
	op := &mk8shell.Operation{Verb: mk8shell.VerbProcRun, Args: []string{"curl", "http://example.com"}}
	res := p.Run(context.Background(), op)
	if res.Failure == nil || res.Failure.Kind != mk8shell.ErrorKindPermissionDenied {
		t.Fatalf("expected PermissionDenied for a binary with no registered template, got %v", res.Failure)
	}
}

func TestProcRunner_GitStatusMatchesDefaultTemplate(t *testing.T) {
	ws := newTestWorkspace(t)
	p := NewProcRunner(ws)
	op := &mk8shell.Operation{Verb: mk8shell.VerbProcRun, Args: []string{"git", "status"}}
	res := p.Run(context.Background(), op)
	if res.Failure != nil && res.Failure.Kind == mk8shell.ErrorKindPermissionDenied {
		t.Fatalf("git status should match the default git template, got PermissionDenied: %v", res.Failure)
	}
}
