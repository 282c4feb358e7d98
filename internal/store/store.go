// Package store defines the persistence interfaces the job lifecycle and
// permission resolver depend on. Only C5/C6 touch a database — the
// compiler, safety layer, task container, and verb executor stay pure
// functions of their inputs plus the local filesystem (SPEC_FULL.md §9).
package store

import (
	"context"

	"github.com/sharpclaw/mk8/internal/job"
	"github.com/sharpclaw/mk8/internal/permission"
)

// Config is the top-level store configuration (spec.md's DB-backed
// persistence).
type Config struct {
	PostgresDSN string
}

// JobStore persists AgentJob records across the lifecycle's transitions.
type JobStore interface {
	Insert(ctx context.Context, j *job.AgentJob) error
	Update(ctx context.Context, j *job.AgentJob) error
	Get(ctx context.Context, id string) (*job.AgentJob, error)
	ListByStatus(ctx context.Context, status job.Status) ([]*job.AgentJob, error)
}

// RoleStore persists a role's default clearance and global action flags.
type RoleStore interface {
	Get(ctx context.Context, roleID string) (permission.RolePermissions, error)
	Upsert(ctx context.Context, roleID string, role permission.RolePermissions) error
}

// GrantStore persists the per-resource-kind grant collections attached
// to a role, modeled as a tagged variant per resource kind (SPEC_FULL.md
// §9 "Polymorphic resource grants": "the permission resolver matches on
// the tag; the resolver signature is the same for every kind").
type GrantStore interface {
	ListForRole(ctx context.Context, roleID string, kind permission.ResourceKind) ([]permission.ResourceGrant, error)
	Upsert(ctx context.Context, roleID string, kind permission.ResourceKind, grant permission.ResourceGrant) error
	Delete(ctx context.Context, roleID string, kind permission.ResourceKind, resourceID string) error
}

// PreapprovalStore persists channel/context/task-scoped pre-approval
// records.
type PreapprovalStore interface {
	Get(ctx context.Context, scope permission.Scope, scopeID, actionType string) (permission.Preapproval, bool, error)
	Upsert(ctx context.Context, scope permission.Scope, scopeID string, p permission.Preapproval) error
	LoadSet(ctx context.Context, channelID, contextID, taskID string) (permission.PreapprovalSet, error)
}

// Stores is the top-level persistence container, one field per
// persisted entity, scoped to C5/C6.
type Stores struct {
	Jobs         JobStore
	Roles        RoleStore
	Grants       GrantStore
	Preapprovals PreapprovalStore
}
