package mk8shell

import "time"

// Operation is a single primitive step in a script, before or after
// compile-time expansion (spec.md §3 "Script model" / §6 "Script JSON").
type Operation struct {
	Verb             Verb              `json:"verb"`
	Args             []string          `json:"args"`
	MaxRetries       int               `json:"maxRetries,omitempty"`
	StepTimeout      *time.Duration    `json:"stepTimeout,omitempty"`
	Label            string            `json:"label,omitempty"`
	OnFailure        string            `json:"onFailure,omitempty"` // "goto:<label>"
	CaptureAs        string            `json:"captureAs,omitempty"`
	Template         string            `json:"template,omitempty"`
	WorkingDirectory string            `json:"workingDirectory,omitempty"`

	// Compile-time-only fields, absent from the expanded flat list except
	// where explicitly noted.
	ForEach *ForEachSpec `json:"forEach,omitempty"`
	If      *IfSpec      `json:"if,omitempty"`
	Include string       `json:"include,omitempty"`

	// BatchEntries carries one arg-set per unrolled single-file op for
	// FileWriteMany/FileCopyMany/FileDeleteMany (spec.md §4.1 "Batch verbs").
	BatchEntries [][]string `json:"batchEntries,omitempty"`

	// compileMeta carries expansion bookkeeping not part of the JSON wire
	// shape (e.g. a deferred If annotated for runtime evaluation).
	compileMeta *stepMeta
}

type stepMeta struct {
	deferredIf *IfSpec // FileExists/DirExists predicates, evaluated at runtime
}

// DeferredIf returns the If spec annotated for runtime evaluation
// (FileExists/DirExists predicates), or nil for every other operation.
func (op *Operation) DeferredIf() *IfSpec {
	if op.compileMeta == nil {
		return nil
	}
	return op.compileMeta.deferredIf
}

// ForEachSpec describes a ForEach control-flow verb (spec.md §4.1).
type ForEachSpec struct {
	Items []string   `json:"items"`
	Body  *Operation `json:"body"`
}

// IfSpec describes an If control-flow verb (spec.md §4.1).
type IfSpec struct {
	Predicate string     `json:"predicate"` // PrevContains, PrevEmpty, ..., FileExists, DirExists
	Arg       string     `json:"arg,omitempty"`
	Then      *Operation `json:"then"`
	Else      *Operation `json:"else,omitempty"`
}

// FailureMode controls how the executor reacts to a failed step
// (spec.md §3 option table).
type FailureMode string

const (
	FailureModeStopOnFirstError FailureMode = "StopOnFirstError"
	FailureModeContinueOnError  FailureMode = "ContinueOnError"
	FailureModeStopAndCleanup   FailureMode = "StopAndCleanup"
)

// Options is the closed set of script-level options (spec.md §3).
type Options struct {
	MaxRetries      int           `json:"maxRetries,omitempty"`
	RetryDelay      time.Duration `json:"retryDelay,omitempty"`
	StepTimeout     time.Duration `json:"stepTimeout,omitempty"`
	ScriptTimeout   time.Duration `json:"scriptTimeout,omitempty"`
	FailureMode     FailureMode   `json:"failureMode,omitempty"`
	MaxOutputBytes  int           `json:"maxOutputBytes,omitempty"`
	MaxErrorBytes   int           `json:"maxErrorBytes,omitempty"`
	PipeStepOutput  bool          `json:"pipeStepOutput,omitempty"`
}

// DefaultOptions returns the documented defaults from spec.md §3.
func DefaultOptions() Options {
	return Options{
		MaxRetries:     0,
		RetryDelay:     2 * time.Second,
		StepTimeout:    30 * time.Second,
		ScriptTimeout:  5 * time.Minute,
		FailureMode:    FailureModeStopOnFirstError,
		MaxOutputBytes: 1048576,
		MaxErrorBytes:  262144,
		PipeStepOutput: false,
	}
}

// WithDefaults fills zero-valued fields in o with DefaultOptions(), and
// validates that FailureMode (if set) is one of the closed enum values.
func (o Options) WithDefaults() (Options, error) {
	d := DefaultOptions()
	if o.RetryDelay == 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.StepTimeout == 0 {
		o.StepTimeout = d.StepTimeout
	}
	if o.ScriptTimeout == 0 {
		o.ScriptTimeout = d.ScriptTimeout
	}
	if o.FailureMode == "" {
		o.FailureMode = d.FailureMode
	}
	switch o.FailureMode {
	case FailureModeStopOnFirstError, FailureModeContinueOnError, FailureModeStopAndCleanup:
	default:
		return o, &CompileError{Reason: "unknown option value for failureMode: " + string(o.FailureMode)}
	}
	if o.MaxOutputBytes == 0 {
		o.MaxOutputBytes = d.MaxOutputBytes
	}
	if o.MaxErrorBytes == 0 {
		o.MaxErrorBytes = d.MaxErrorBytes
	}
	return o, nil
}

// Script is the top-level JSON document a caller submits (spec.md §6).
type Script struct {
	Operations []Operation `json:"operations"`
	Options    Options     `json:"options,omitempty"`
	Cleanup    []Operation `json:"cleanup,omitempty"`
}

// Limits enforced during expansion (spec.md §4.1).
const (
	MaxForEachItems     = 256
	MaxBatchEntries     = 64
	MaxNestingDepth     = 3
	MaxExpandedOps      = 1024
	MaxCaptures         = 16
	MaxLabelLength      = 64
	MaxFragmentIDLength = 128
)
