// Package executor implements the Verb Executor (C4): dispatches a
// compiled mk8.shell operation list against a task container workspace.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sharpclaw/mk8/internal/container"
	"github.com/sharpclaw/mk8/internal/mk8shell"
)

// StepResult is the typed, data-not-exception outcome of one step,
// matching the data-not-exception result shape (spec.md §9
// "Exceptions for control flow").
type StepResult struct {
	Output     string
	Truncated  bool
	ExitCode   int
	Failure    *mk8shell.Failure
	Captured   string
}

// Succeeded reports whether the step completed without a Failure.
func (r *StepResult) Succeeded() bool { return r == nil || r.Failure == nil }

// ScriptResult is the outcome of running a whole compiled script.
type ScriptResult struct {
	StepResults    []StepResult
	Captures       map[string]string
	CleanupResults []StepResult
	// NeedsCleanup reports whether the caller still owes a RunCleanup
	// call: StopAndCleanup tripped but Run itself never blocks on it, so
	// the job worker can overlap cleanup with its own finalization
	// bookkeeping instead of serializing the two.
	NeedsCleanup bool
	Failure      *mk8shell.Failure
}

// VerbFunc executes one pure (non-process) verb in-memory.
type VerbFunc func(ctx context.Context, op *mk8shell.Operation, ws *container.Workspace) (string, *mk8shell.Failure)

// Dispatch is the verb-name -> handler table for every pure verb family.
// Populated by registerXxx calls in the verbs_*.go files via init().
var Dispatch = map[mk8shell.Verb]VerbFunc{}

func register(v mk8shell.Verb, fn VerbFunc) {
	Dispatch[v] = fn
}

// Executor runs a compiled script against one workspace.
type Executor struct {
	ws   *container.Workspace
	proc *ProcRunner
}

// New builds an Executor bound to a workspace.
func New(ws *container.Workspace) *Executor {
	return &Executor{ws: ws, proc: NewProcRunner(ws)}
}

// Run executes every step of compiled in order, honoring retries,
// onFailure:goto, failureMode, $PREV piping, and captures (spec.md §4.4).
func (e *Executor) Run(ctx context.Context, compiled *mk8shell.CompiledScript, vars mk8shell.VarBag) *ScriptResult {
	sr := &ScriptResult{Captures: map[string]string{}}

	scriptCtx := ctx
	var cancel context.CancelFunc
	if compiled.Options.ScriptTimeout > 0 {
		scriptCtx, cancel = context.WithTimeout(ctx, compiled.Options.ScriptTimeout)
		defer cancel()
	}

	ops := compiled.Operations
	labelIndex := indexLabels(ops)

	var prev string
	i := 0
	for i < len(ops) {
		op := &ops[i]
		res := e.runStep(scriptCtx, op, compiled.Options, vars, prev)
		sr.StepResults = append(sr.StepResults, *res)

		if op.CaptureAs != "" {
			sr.Captures[op.CaptureAs] = res.Captured
		}
		if compiled.Options.PipeStepOutput {
			prev = res.Output
			vars[mk8shellPrevKey] = prev
		}

		if !res.Succeeded() {
			if op.OnFailure != "" {
				target, ok := parseGotoLabel(op.OnFailure)
				if ok {
					if idx, ok := labelIndex[target]; ok {
						i = idx
						continue
					}
				}
			}
			switch compiled.Options.FailureMode {
			case mk8shell.FailureModeContinueOnError:
				// fall through to next step
			case mk8shell.FailureModeStopAndCleanup:
				sr.Failure = res.Failure
				sr.NeedsCleanup = true
				return sr
			default: // StopOnFirstError
				sr.Failure = res.Failure
				return sr
			}
		}
		i++
	}
	return sr
}

// RunCleanup runs the cleanup operation list; cleanup step failures
// never abort subsequent cleanup steps (spec.md §4.4). Exported so the
// job worker can run it in its own goroutine, overlapped with
// finalization bookkeeping, rather than inline with Run.
func (e *Executor) RunCleanup(ctx context.Context, compiled *mk8shell.CompiledScript, vars mk8shell.VarBag) []StepResult {
	var results []StepResult
	var prev string
	for i := range compiled.Cleanup {
		op := &compiled.Cleanup[i]
		res := e.runStep(ctx, op, compiled.Options, vars, prev)
		results = append(results, *res)
		if compiled.Options.PipeStepOutput {
			prev = res.Output
		}
	}
	return results
}

const mk8shellPrevKey = "PREV"

func (e *Executor) runStep(ctx context.Context, op *mk8shell.Operation, opts mk8shell.Options, vars mk8shell.VarBag, prev string) *StepResult {
	timeout := opts.StepTimeout
	if op.StepTimeout != nil && *op.StepTimeout < timeout {
		timeout = *op.StepTimeout
	}

	maxRetries := opts.MaxRetries
	if op.MaxRetries > maxRetries {
		maxRetries = op.MaxRetries
	}

	resolved := substitutePrev(op, prev)

	delay := opts.RetryDelay
	var last *StepResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		last = e.execOne(stepCtx, &resolved, vars)
		cancel()

		if last.Succeeded() || !last.Failure.Retryable() || attempt == maxRetries {
			break
		}
		slog.Warn("mk8shell: step failed, retrying", "verb", op.Verb, "attempt", attempt+1, "max_retries", maxRetries)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindCancelled, Detail: ctx.Err().Error()}}
		}
		delay *= 2
	}

	last.Output = truncate(last.Output, opts.MaxOutputBytes, &last.Truncated)
	return last
}

func (e *Executor) execOne(ctx context.Context, op *mk8shell.Operation, vars mk8shell.VarBag) *StepResult {
	if deferred := op.DeferredIf(); deferred != nil {
		return e.execDeferredIf(ctx, deferred, vars)
	}
	if op.Verb == mk8shell.VerbProcRun {
		return e.proc.Run(ctx, op)
	}
	fn, ok := Dispatch[op.Verb]
	if !ok {
		return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: fmt.Sprintf("no executor registered for verb %q", op.Verb)}}
	}
	out, failure := fn(ctx, op, e.ws)
	res := &StepResult{Output: out, Failure: failure}
	if op.CaptureAs != "" && failure == nil {
		res.Captured = out
	}
	return res
}

// execDeferredIf evaluates a FileExists/DirExists predicate against the
// live filesystem, then runs whichever branch it selects (spec.md §4.1:
// these predicates depend on state that may not exist until a prior step
// has run, so the compiler annotates them instead of resolving them).
func (e *Executor) execDeferredIf(ctx context.Context, spec *mk8shell.IfSpec, vars mk8shell.VarBag) *StepResult {
	fn, ok := Dispatch[mk8shell.Verb(spec.Predicate)]
	if !ok {
		return &StepResult{Failure: &mk8shell.Failure{Kind: mk8shell.ErrorKindUpstream, Detail: "no handler for deferred predicate " + spec.Predicate}}
	}
	out, failure := fn(ctx, &mk8shell.Operation{Verb: mk8shell.Verb(spec.Predicate), Args: []string{spec.Arg}}, e.ws)
	if failure != nil {
		return &StepResult{Failure: failure}
	}
	branch := spec.Then
	if out != "true" {
		branch = spec.Else
	}
	if branch == nil {
		return &StepResult{}
	}
	return e.execOne(ctx, branch, vars)
}

// substitutePrev resolves the literal "$PREV" token the compiler leaves
// in place (its value is only known at runtime, once the prior step has
// actually run) into the previous step's output. A shallow copy of op is
// returned so retries and onFailure:goto re-entry never mutate the
// compiled operation list in place.
func substitutePrev(op *mk8shell.Operation, prev string) mk8shell.Operation {
	resolved := *op
	if len(op.Args) > 0 {
		args := make([]string, len(op.Args))
		for i, a := range op.Args {
			args[i] = strings.ReplaceAll(a, "$PREV", prev)
		}
		resolved.Args = args
	}
	if op.WorkingDirectory != "" {
		resolved.WorkingDirectory = strings.ReplaceAll(op.WorkingDirectory, "$PREV", prev)
	}
	return resolved
}

func truncate(s string, max int, truncated *bool) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	*truncated = true
	return s[:max] + "\n...[truncated]"
}

func indexLabels(ops []mk8shell.Operation) map[string]int {
	idx := make(map[string]int, len(ops))
	for i, op := range ops {
		if op.Label != "" {
			idx[op.Label] = i
		}
	}
	return idx
}

func parseGotoLabel(onFailure string) (string, bool) {
	const prefix = "goto:"
	if len(onFailure) <= len(prefix) || onFailure[:len(prefix)] != prefix {
		return "", false
	}
	return onFailure[len(prefix):], true
}
