package job

import "sync"

// ApprovalDecision is the result delivered to whatever is blocked
// waiting on a pending approval.
type ApprovalDecision struct {
	Approved bool
	Approver string
}

// ApprovalManager is the concurrent, one-shot pending-approvals map
// keyed by job id (spec.md §5 "Shared resources": "at most one live
// pending entry per job. Resolution removes the entry atomically."),
// following the same request/check shape the shell approval flow uses
// (spec.md §4.6).
type ApprovalManager struct {
	mu      sync.Mutex
	pending map[string]chan ApprovalDecision
}

// NewApprovalManager builds an empty manager.
func NewApprovalManager() *ApprovalManager {
	return &ApprovalManager{pending: map[string]chan ApprovalDecision{}}
}

// Open registers a new pending entry for jobID. Panics if one is
// already live for this job id — callers only ever open an approval
// once per AwaitingApproval transition.
func (a *ApprovalManager) Open(jobID string) <-chan ApprovalDecision {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.pending[jobID]; exists {
		panic("job: approval already pending for " + jobID)
	}
	ch := make(chan ApprovalDecision, 1)
	a.pending[jobID] = ch
	return ch
}

// Resolve delivers decision to jobID's pending entry and atomically
// removes it. A Resolve with no matching entry is a no-op (the job may
// have already been resolved or never suspended).
func (a *ApprovalManager) Resolve(jobID string, decision ApprovalDecision) {
	a.mu.Lock()
	ch, ok := a.pending[jobID]
	if ok {
		delete(a.pending, jobID)
	}
	a.mu.Unlock()
	if ok {
		ch <- decision
		close(ch)
	}
}

// Pending reports whether jobID currently has a live pending approval.
func (a *ApprovalManager) Pending(jobID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[jobID]
	return ok
}
