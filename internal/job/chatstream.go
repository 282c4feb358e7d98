package job

import "github.com/sharpclaw/mk8/pkg/protocol"

// EventKind mirrors protocol.EventType for the subset the job lifecycle
// itself emits (spec.md §4.6 "Chat stream").
type EventKind = protocol.EventType

const (
	EventToolCallStart    = protocol.EventToolCallStart
	EventToolCallResult   = protocol.EventToolCallResult
	EventApprovalRequired = protocol.EventApprovalRequired
	EventApprovalResult   = protocol.EventApprovalResult
)

// Event is the internal event the Manager emits on its events channel;
// ToProtocol projects it onto the wire shape pkg/protocol defines.
type Event struct {
	Type            EventKind
	Job             *AgentJob
	Result          *AgentJob
	PendingJob      *AgentJob
	ApprovalOutcome string
}

// ToProtocol converts an internal Event into the wire Event pkg/protocol
// serializes over SSE (spec.md §6 "Chat-stream events").
func (ev Event) ToProtocol() protocol.Event {
	out := protocol.Event{Type: ev.Type}
	if ev.Job != nil {
		out.Job = &protocol.JobSummary{ID: ev.Job.ID, ActionType: ev.Job.ActionType, Status: string(ev.Job.Status)}
	}
	if ev.Result != nil {
		out.Result = &protocol.JobSummary{ID: ev.Result.ID, ActionType: ev.Result.ActionType, Status: string(ev.Result.Status)}
	}
	if ev.PendingJob != nil {
		out.PendingJob = &protocol.PendingJobSummary{ID: ev.PendingJob.ID, ActionType: ev.PendingJob.ActionType}
	}
	if ev.ApprovalOutcome != "" {
		out.ApprovalOutcome = &protocol.ApprovalOutcome{Status: ev.ApprovalOutcome}
	}
	return out
}
