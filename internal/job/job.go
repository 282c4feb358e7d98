// Package job implements the AgentJob Lifecycle (C6): submission,
// permission checking, suspension for human approval, worker execution,
// and terminal resolution, per spec.md §4.6.
package job

import (
	"time"

	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/permission"
)

// Status is one state in the AgentJob state machine (spec.md §4.6):
// Queued -> PermissionCheck -> (Denied | AwaitingApproval | Executing);
// AwaitingApproval -> Executing | Cancelled; Executing -> Completed |
// Failed | Cancelled.
type Status string

const (
	StatusQueued           Status = "Queued"
	StatusPermissionCheck  Status = "PermissionCheck"
	StatusDenied           Status = "Denied"
	StatusAwaitingApproval Status = "AwaitingApproval"
	StatusExecuting        Status = "Executing"
	StatusCompleted        Status = "Completed"
	StatusFailed           Status = "Failed"
	StatusCancelled        Status = "Cancelled"
)

// Terminal reports whether s is one of the four states no further
// transition can leave (Denied, Cancelled, Completed, Failed).
func (s Status) Terminal() bool {
	switch s {
	case StatusDenied, StatusCancelled, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Kind distinguishes the worker bodies spec.md §4.6 "Worker" describes
// (shell-execution compiles and runs a script; transcription opens a
// segment broadcast channel) plus CreateSubAgent, which never touches a
// container and instead enforces the §4.5 monotonic-downward clearance
// invariant before a new agent identity is allowed to exist.
type Kind string

const (
	KindShellExecution Kind = "ShellExecution"
	KindTranscription  Kind = "Transcription"
	KindCreateSubAgent Kind = "CreateSubAgent"
)

// AgentJob is the persisted record driving one submission through the
// lifecycle. ChannelID/ContextID/TaskID are the scope identifiers the
// permission resolver's pre-approval walk needs (SPEC_FULL.md §3
// "Supplemental fields").
type AgentJob struct {
	ID      string
	Kind    Kind
	Caller  string
	AgentID string

	ActionType   string
	ResourceKind permission.ResourceKind
	ResourceID   string

	ChannelID string
	ContextID string
	TaskID    string

	Status Status

	SandboxID string
	Script    *mk8shell.Script

	// SubAgentRole is the requested clearance profile for a
	// CreateSubAgent job; Submit rejects it unless it Dominates-checks
	// clean against the caller's own role (spec.md §4.5).
	SubAgentRole *permission.RolePermissions
	SubAgentID   string

	Verdict *permission.Verdict

	Result  *ExecutionResult
	Failure *mk8shell.Failure

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExecutionResult is the captured outcome of a completed shell-execution
// job (spec.md §4.6: "status per step, final output, captured stdout of
// tagged steps").
type ExecutionResult struct {
	StepStatuses []string
	FinalOutput  string
	Captures     map[string]string
}

// touch stamps UpdatedAt; callers hold the owning Manager's lock.
func (j *AgentJob) touch(now time.Time) { j.UpdatedAt = now }
