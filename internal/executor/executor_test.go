package executor

import (
	"context"
	"testing"
	"time"

	"github.com/sharpclaw/mk8/internal/mk8shell"
)

func durPtr(d time.Duration) *time.Duration { return &d }

func TestExecutor_StopOnFirstErrorHaltsScript(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbFail, Args: []string{"boom"}},
			{Verb: mk8shell.VerbEcho, Args: []string{"unreachable"}},
		},
		Options: mustOpts(t, mk8shell.Options{FailureMode: mk8shell.FailureModeStopOnFirstError}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Failure == nil {
		t.Fatalf("expected script failure")
	}
	if len(res.StepResults) != 1 {
		t.Fatalf("expected execution to stop after step 1, got %d steps", len(res.StepResults))
	}
}

func TestExecutor_ContinueOnErrorRunsRemainingSteps(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbFail, Args: []string{"boom"}},
			{Verb: mk8shell.VerbEcho, Args: []string{"reached"}},
		},
		Options: mustOpts(t, mk8shell.Options{FailureMode: mk8shell.FailureModeContinueOnError}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Failure != nil {
		t.Fatalf("ContinueOnError should not surface a script-level failure, got %v", res.Failure)
	}
	if len(res.StepResults) != 2 {
		t.Fatalf("expected both steps to run, got %d", len(res.StepResults))
	}
	if res.StepResults[1].Output != "reached" {
		t.Fatalf("expected second step to run, got output %q", res.StepResults[1].Output)
	}
}

func TestExecutor_StopAndCleanupRunsCleanupOps(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbFail, Args: []string{"boom"}},
		},
		Cleanup: []mk8shell.Operation{
			{Verb: mk8shell.VerbFail, Args: []string{"cleanup step 1 fails"}},
			{Verb: mk8shell.VerbEcho, Args: []string{"cleanup step 2 still runs"}},
		},
		Options: mustOpts(t, mk8shell.Options{FailureMode: mk8shell.FailureModeStopAndCleanup}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Failure == nil {
		t.Fatalf("expected script failure")
	}
	if !res.NeedsCleanup {
		t.Fatalf("expected Run to flag cleanup as owed rather than run it inline")
	}
	res.CleanupResults = e.RunCleanup(context.Background(), compiled, mk8shell.VarBag{})
	if len(res.CleanupResults) != 2 {
		t.Fatalf("expected both cleanup steps to run despite step1 failing, got %d", len(res.CleanupResults))
	}
	if res.CleanupResults[1].Output != "cleanup step 2 still runs" {
		t.Fatalf("expected cleanup step 2 to run after cleanup step 1 failed")
	}
}

func TestExecutor_OnFailureGotoJumpsToLabel(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbFail, Args: []string{"boom"}, OnFailure: "goto:recover"},
			{Verb: mk8shell.VerbEcho, Args: []string{"skipped"}},
			{Verb: mk8shell.VerbEcho, Args: []string{"recovered"}, Label: "recover"},
		},
		Options: mustOpts(t, mk8shell.Options{FailureMode: mk8shell.FailureModeStopOnFirstError}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Failure != nil {
		t.Fatalf("goto should have recovered the script, got failure %v", res.Failure)
	}
	last := res.StepResults[len(res.StepResults)-1]
	if last.Output != "recovered" {
		t.Fatalf("expected jump to land on recover label, got %q", last.Output)
	}
}

func TestExecutor_NonRetryableFailureIsNotRetried(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	zero := time.Duration(0)
	_ = zero
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbTextMatch, Args: []string{"x", "("}, MaxRetries: 2},
		},
		Options: mustOpts(t, mk8shell.Options{RetryDelay: time.Millisecond, FailureMode: mk8shell.FailureModeStopOnFirstError}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Failure == nil {
		t.Fatalf("expected failure: invalid regex is not retryable, compile error should surface once")
	}
	if len(res.StepResults) != 1 {
		t.Fatalf("expected exactly one step result, got %d", len(res.StepResults))
	}
}

func TestExecutor_TruncatesOutputAtMaxOutputBytes(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbEcho, Args: []string{"0123456789"}},
		},
		Options: mustOpts(t, mk8shell.Options{MaxOutputBytes: 4}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	sr := res.StepResults[0]
	if !sr.Truncated {
		t.Fatalf("expected output truncation flag to be set")
	}
	if sr.Output[:4] != "0123" {
		t.Fatalf("expected output to retain first 4 bytes, got %q", sr.Output)
	}
}

func TestExecutor_PipeStepOutputFeedsPrevIntoVars(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	vars := mk8shell.VarBag{}
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbEcho, Args: []string{"hello"}},
			{Verb: mk8shell.VerbTextContains, Args: []string{"$PREV", "hell"}},
		},
		Options: mustOpts(t, mk8shell.Options{PipeStepOutput: true}),
	}
	res := e.Run(context.Background(), compiled, vars)
	if res.Failure != nil {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	if got := res.StepResults[1].Output; got != "true" {
		t.Fatalf("expected $PREV substitution of step1's output, got %q", got)
	}
}

func TestExecutor_CapturesNamedOutput(t *testing.T) {
	ws := newTestWorkspace(t)
	e := New(ws)
	compiled := &mk8shell.CompiledScript{
		Operations: []mk8shell.Operation{
			{Verb: mk8shell.VerbEcho, Args: []string{"captured value"}, CaptureAs: "out1"},
		},
		Options: mustOpts(t, mk8shell.Options{}),
	}
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Captures["out1"] != "captured value" {
		t.Fatalf("expected capture to record step output, got %q", res.Captures["out1"])
	}
}

func TestExecutor_RunsCompiledDeferredFileExistsIf(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, f := fileWrite(context.Background(), &mk8shell.Operation{Args: []string{"marker.txt", "x"}}, ws); f != nil {
		t.Fatalf("FileWrite failed: %v", f)
	}
	script := mk8shell.Script{
		Operations: []mk8shell.Operation{
			{
				Verb: mk8shell.VerbIf,
				If: &mk8shell.IfSpec{
					Predicate: "FileExists",
					Arg:       "marker.txt",
					Then:      &mk8shell.Operation{Verb: mk8shell.VerbEcho, Args: []string{"found"}},
					Else:      &mk8shell.Operation{Verb: mk8shell.VerbEcho, Args: []string{"missing"}},
				},
			},
		},
	}
	compiled, err := mk8shell.Compile(script, mk8shell.VarBag{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	e := New(ws)
	res := e.Run(context.Background(), compiled, mk8shell.VarBag{})
	if res.Failure != nil {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	if len(res.StepResults) != 1 || res.StepResults[0].Output != "found" {
		t.Fatalf("expected deferred If to take the Then branch, got %+v", res.StepResults)
	}
}

func mustOpts(t *testing.T, o mk8shell.Options) mk8shell.Options {
	t.Helper()
	withDefaults, err := o.WithDefaults()
	if err != nil {
		t.Fatalf("WithDefaults: %v", err)
	}
	return withDefaults
}
