package executor

import (
	"context"
	"testing"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func TestTimeAddDuration(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := timeAddDuration(context.Background(), &mk8shell.Operation{Args: []string{"2026-01-01T00:00:00Z", "1h"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "2026-01-01T01:00:00Z" {
		t.Fatalf("expected 2026-01-01T01:00:00Z, got %q", out)
	}
}

func TestTimeDiff(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := timeDiff(context.Background(), &mk8shell.Operation{Args: []string{"2026-01-01T00:00:00Z", "2026-01-01T02:00:00Z"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "2h0m0s" {
		t.Fatalf("expected 2h0m0s, got %q", out)
	}
}

func TestTimeUnix(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := timeUnix(context.Background(), &mk8shell.Operation{Args: []string{"1970-01-01T00:00:10Z"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "10" {
		t.Fatalf("expected 10, got %q", out)
	}
}

func TestTimeZoneConvert(t *testing.T) {
	ws := newTestWorkspace(t)
	out, failure := timeZoneConvert(context.Background(), &mk8shell.Operation{Args: []string{"2026-01-01T00:00:00Z", "UTC"}}, ws)
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if out != "2026-01-01T00:00:00Z" {
		t.Fatalf("expected unchanged UTC timestamp, got %q", out)
	}
}

func TestTimeZoneConvert_UnknownZoneIsUpstreamFailure(t *testing.T) {
	ws := newTestWorkspace(t)
	_, failure := timeZoneConvert(context.Background(), &mk8shell.Operation{Args: []string{"2026-01-01T00:00:00Z", "Not/AZone"}}, ws)
	if failure == nil || failure.Kind != mk8shell.ErrorKindUpstream {
		t.Fatalf("expected upstream failure for unknown zone, got %v", failure)
	}
}
