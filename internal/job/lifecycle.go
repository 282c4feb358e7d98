package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharpclaw/mk8/internal/mk8shell"
	"github.com/sharpclaw/mk8/internal/permission"
)

// RoleLookup resolves the RolePermissions governing an agent.
type RoleLookup func(ctx context.Context, agentID string) (permission.RolePermissions, error)

// PreapprovalLookup resolves the pre-approval set in effect for a
// channel/context/task triple.
type PreapprovalLookup func(ctx context.Context, channelID, contextID, taskID string) (permission.PreapprovalSet, error)

// Manager owns the in-flight job table and drives every transition
// spec.md §4.6 "Submit"/"Approve"/"Cancel" describes. Exactly one
// Manager is scoped to a chat-stream handler (spec.md §9 "Global
// mutable state": "pending-approvals map ... owned by a single
// lifecycle object scoped to the chat-stream handler").
type Manager struct {
	mu   sync.Mutex
	jobs map[string]*AgentJob

	roles        RoleLookup
	preapprovals PreapprovalLookup
	approvals    *ApprovalManager
	worker       *Worker

	cancelFuncs map[string]context.CancelFunc

	events chan Event

	persist Persister
}

// NewManager builds a Manager. events may be nil if the caller doesn't
// need a chat-stream event feed.
func NewManager(roles RoleLookup, preapprovals PreapprovalLookup, worker *Worker, events chan Event) *Manager {
	return &Manager{
		jobs:         map[string]*AgentJob{},
		roles:        roles,
		preapprovals: preapprovals,
		approvals:    NewApprovalManager(),
		worker:       worker,
		events:       events,
	}
}

// Submit persists a new job in Queued, advances it through
// PermissionCheck, and dispatches per the resolver's verdict (spec.md
// §4.6 "Submit").
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*AgentJob, error) {
	now := time.Now()
	j := &AgentJob{
		ID:           uuid.NewString(),
		Kind:         req.Kind,
		Caller:       req.Caller,
		AgentID:      req.AgentID,
		ActionType:   req.ActionType,
		ResourceKind: req.ResourceKind,
		ResourceID:   req.ResourceID,
		ChannelID:    req.ChannelID,
		ContextID:    req.ContextID,
		TaskID:       req.TaskID,
		SandboxID:    req.SandboxID,
		Script:       req.Script,
		SubAgentRole: req.SubAgentRole,
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.mu.Lock()
	m.jobs[j.ID] = j
	m.mu.Unlock()
	m.persistInsert(ctx, j)

	j.Status = StatusPermissionCheck
	m.persistUpdate(j)
	m.emit(Event{Type: EventToolCallStart, Job: j})

	role, err := m.roles(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}
	pre, err := m.preapprovals(ctx, req.ChannelID, req.ContextID, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("resolve pre-approvals: %w", err)
	}

	verdict := permission.Resolve(role, permission.Action{
		ActionType:   req.ActionType,
		GlobalAction: req.GlobalAction,
		ResourceKind: req.ResourceKind,
		ResourceID:   req.ResourceID,
	}, pre)
	j.Verdict = &verdict

	// A CreateSubAgent job additionally needs its requested clearance
	// profile checked against the caller's own role: the global-action
	// grant only says the caller may create sub-agents at all, it says
	// nothing about whether THIS particular child role stays
	// monotonic-downward of the parent (spec.md §4.5).
	if req.GlobalAction == permission.ActionCreateSubAgent && verdict.Decision == permission.DecisionExecute {
		if req.SubAgentRole == nil || !permission.Dominates(*req.SubAgentRole, role) {
			verdict.Decision = permission.DecisionDeny
			verdict.Reason = "requested sub-agent clearances are not monotonic-downward of the parent's"
			j.Verdict = &verdict
		}
	}

	switch verdict.Decision {
	case permission.DecisionDeny:
		j.Status = StatusDenied
		j.touch(time.Now())
		m.persistUpdate(j)
		m.emit(Event{Type: EventToolCallResult, Result: j})
	case permission.DecisionAwaitingApproval:
		j.Status = StatusAwaitingApproval
		j.touch(time.Now())
		m.approvals.Open(j.ID)
		m.persistUpdate(j)
		m.emit(Event{Type: EventApprovalRequired, PendingJob: j})
	default: // Execute
		j.Status = StatusExecuting
		j.touch(time.Now())
		m.persistUpdate(j)
		m.startWorker(j)
	}
	return j, nil
}

// SubmitRequest is the Submit input (spec.md §4.6: "(caller, agent,
// action, resource?, channelId)" generalized with context/task scope and
// job kind/script payload).
type SubmitRequest struct {
	Kind    Kind
	Caller  string
	AgentID string

	ActionType   string
	GlobalAction permission.GlobalAction
	ResourceKind permission.ResourceKind
	ResourceID   string

	ChannelID string
	ContextID string
	TaskID    string

	SandboxID string
	Script    *mk8shell.Script

	// SubAgentRole is required when GlobalAction is ActionCreateSubAgent.
	SubAgentRole *permission.RolePermissions
}

// Approve resolves a pending approval. Valid only from AwaitingApproval;
// the approver must be eligible for the job's effective clearance tier
// (spec.md §4.6 "Approve").
func (m *Manager) Approve(ctx context.Context, jobID, approver string, kind permission.ApproverKind) error {
	j, ok := m.get(jobID)
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}

	m.mu.Lock()
	if j.Status != StatusAwaitingApproval {
		m.mu.Unlock()
		return fmt.Errorf("job %s is not awaiting approval (status=%s)", jobID, j.Status)
	}
	eligible := false
	for _, a := range j.Verdict.EligibleApprovers {
		if a == kind {
			eligible = true
			break
		}
	}
	if !eligible {
		m.mu.Unlock()
		return fmt.Errorf("approver %s is not eligible for job %s's clearance tier", approver, jobID)
	}
	j.Status = StatusExecuting
	j.touch(time.Now())
	m.mu.Unlock()

	m.persistUpdate(j)
	m.approvals.Resolve(jobID, ApprovalDecision{Approved: true, Approver: approver})
	m.emit(Event{Type: EventApprovalResult, ApprovalOutcome: string(StatusExecuting)})
	m.startWorker(j)
	return nil
}

// Cancel transitions j to Cancelled from any non-terminal state (spec.md
// §4.6 "Cancel"). The worker observes cancellation at the next
// suspension point.
func (m *Manager) Cancel(jobID string) error {
	j, ok := m.get(jobID)
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	m.mu.Lock()
	if j.Status.Terminal() {
		m.mu.Unlock()
		return fmt.Errorf("job %s already terminal (status=%s)", jobID, j.Status)
	}
	wasAwaiting := j.Status == StatusAwaitingApproval
	j.Status = StatusCancelled
	j.touch(time.Now())
	cancel := m.cancelFuncs[jobID]
	m.mu.Unlock()

	if wasAwaiting {
		m.approvals.Resolve(jobID, ApprovalDecision{Approved: false})
	}
	if cancel != nil {
		cancel()
	}
	m.persistUpdate(j)
	m.emit(Event{Type: EventToolCallResult, Result: j})
	return nil
}

// StopTranscription ends a running Transcription job cleanly: it marks
// the broadcast topic stopped (so the worker resolves to Completed
// rather than Cancelled) before firing the job's cancellation signal.
func (m *Manager) StopTranscription(jobID string) error {
	j, ok := m.get(jobID)
	if !ok {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if j.Kind != KindTranscription {
		return fmt.Errorf("job %s is not a transcription job", jobID)
	}
	m.worker.broadcasts.MarkStopped(jobID)

	m.mu.Lock()
	cancel := m.cancelFuncs[jobID]
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (m *Manager) get(jobID string) (*AgentJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	return j, ok
}

func (m *Manager) startWorker(j *AgentJob) {
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	if m.cancelFuncs == nil {
		m.cancelFuncs = map[string]context.CancelFunc{}
	}
	m.cancelFuncs[j.ID] = cancel
	m.mu.Unlock()

	go func() {
		defer cancel()
		m.worker.Run(ctx, j)
		m.mu.Lock()
		delete(m.cancelFuncs, j.ID)
		m.mu.Unlock()
		m.persistUpdate(j)
		m.emit(Event{Type: EventToolCallResult, Result: j})
	}()
}

func (m *Manager) emit(ev Event) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}
