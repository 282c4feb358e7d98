package mk8shell

import "fmt"

// CompileError names the offending verb/step and a human-readable reason,
// per spec.md §4.1 "Failure modes": "a compile error names the offending
// verb and a human-readable reason. No script with a compile error ever
// reaches the executor." Data, not a control-flow exception, per spec.md §9.
type CompileError struct {
	Step   int
	Verb   Verb
	Reason string
}

func (e *CompileError) Error() string {
	if e.Verb != "" {
		return fmt.Sprintf("compile error at step %d (%s): %s", e.Step, e.Verb, e.Reason)
	}
	return fmt.Sprintf("compile error: %s", e.Reason)
}

// ErrorKind classifies a runtime (post-compile) failure, per spec.md §7.
type ErrorKind string

const (
	ErrorKindCompile          ErrorKind = "CompileError"
	ErrorKindPathViolation    ErrorKind = "PathViolation"
	ErrorKindGigablacklistHit ErrorKind = "GigablacklistHit"
	ErrorKindURLViolation     ErrorKind = "UrlViolation"
	ErrorKindSignatureError   ErrorKind = "SignatureError"
	ErrorKindSandboxNotFound  ErrorKind = "SandboxNotFound"
	ErrorKindStepTimeout      ErrorKind = "StepTimeout"
	ErrorKindStepNonZeroExit  ErrorKind = "StepNonZeroExit"
	ErrorKindPermissionDenied ErrorKind = "PermissionDenied"
	ErrorKindApprovalTimeout  ErrorKind = "ApprovalTimeout"
	ErrorKindCancelled        ErrorKind = "Cancelled"
	ErrorKindUpstream         ErrorKind = "Upstream"
)

// Failure is the typed result of a failed step or pipeline stage,
// matching a Result{Success,Error} data-not-exception
// shape (spec.md §9 "Exceptions for control flow").
type Failure struct {
	Kind   ErrorKind
	Detail string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// Retryable reports whether this failure kind may be retried per the
// policy table in spec.md §7: safety failures are never retried; step
// I/O/process failures may retry up to maxRetries.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case ErrorKindStepTimeout, ErrorKindStepNonZeroExit:
		return true
	default:
		return false
	}
}
