package job

import (
	"context"
	"log/slog"
)

// Persister is the subset of store.JobStore the lifecycle writes
// through on every transition (SPEC_FULL.md's Postgres-backed AgentJob
// store). Declared locally to avoid internal/job importing internal/store,
// which already imports internal/job for the AgentJob type it persists.
type Persister interface {
	Insert(ctx context.Context, j *AgentJob) error
	Update(ctx context.Context, j *AgentJob) error
}

// WithPersistence attaches a Persister so every lifecycle transition is
// written through to durable storage. Optional: a Manager with no
// Persister still works entirely in memory (spec.md §9's
// chat-stream-scoped pending-approvals map).
func (m *Manager) WithPersistence(p Persister) *Manager {
	m.persist = p
	return m
}

func (m *Manager) persistInsert(ctx context.Context, j *AgentJob) {
	if m.persist == nil {
		return
	}
	if err := m.persist.Insert(ctx, j); err != nil {
		slog.Error("job: persist insert failed", "job", j.ID, "error", err)
	}
}

func (m *Manager) persistUpdate(j *AgentJob) {
	if m.persist == nil {
		return
	}
	if err := m.persist.Update(context.Background(), j); err != nil {
		slog.Error("job: persist update failed", "job", j.ID, "error", err)
	}
}
