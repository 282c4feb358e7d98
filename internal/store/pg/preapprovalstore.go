package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sharpclaw/mk8/internal/permission"
)

// PreapprovalStore implements store.PreapprovalStore: one row per
// (scope, scope id, action type), matching the three layers spec.md
// §4.5 step 3 walks (task, channel, context).
type PreapprovalStore struct {
	db *sql.DB
}

// NewPreapprovalStore builds a PreapprovalStore bound to db.
func NewPreapprovalStore(db *sql.DB) *PreapprovalStore { return &PreapprovalStore{db: db} }

func scopeColumn(scope permission.Scope) string {
	switch scope {
	case permission.ScopeTask:
		return "task"
	case permission.ScopeChannel:
		return "channel"
	default:
		return "context"
	}
}

// Get looks up a single scoped pre-approval record.
func (s *PreapprovalStore) Get(ctx context.Context, scope permission.Scope, scopeID, actionType string) (permission.Preapproval, bool, error) {
	var clearance int
	err := s.db.QueryRowContext(ctx,
		`SELECT clearance FROM preapprovals WHERE scope = $1 AND scope_id = $2 AND action_type = $3`,
		scopeColumn(scope), scopeID, actionType,
	).Scan(&clearance)
	if errors.Is(err, sql.ErrNoRows) {
		return permission.Preapproval{}, false, nil
	}
	if err != nil {
		return permission.Preapproval{}, false, fmt.Errorf("query preapproval: %w", err)
	}
	return permission.Preapproval{ActionType: actionType, GrantedClearance: permission.Clearance(clearance)}, true, nil
}

// Upsert persists a scoped pre-approval record.
func (s *PreapprovalStore) Upsert(ctx context.Context, scope permission.Scope, scopeID string, p permission.Preapproval) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preapprovals (scope, scope_id, action_type, clearance)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (scope, scope_id, action_type)
		 DO UPDATE SET clearance = EXCLUDED.clearance`,
		scopeColumn(scope), scopeID, p.ActionType, int(p.GrantedClearance),
	)
	return err
}

// LoadSet builds the full PreapprovalSet for one channel/context/task
// triple, for a single Resolve call (spec.md §4.5 step 3).
func (s *PreapprovalStore) LoadSet(ctx context.Context, channelID, contextID, taskID string) (permission.PreapprovalSet, error) {
	set := permission.PreapprovalSet{
		Context: map[string]permission.Preapproval{},
		Channel: map[string]permission.Preapproval{},
		Task:    map[string]permission.Preapproval{},
	}
	layers := []struct {
		scope  permission.Scope
		id     string
		target map[string]permission.Preapproval
	}{
		{permission.ScopeContext, contextID, set.Context},
		{permission.ScopeChannel, channelID, set.Channel},
		{permission.ScopeTask, taskID, set.Task},
	}
	for _, layer := range layers {
		if layer.id == "" {
			continue
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT action_type, clearance FROM preapprovals WHERE scope = $1 AND scope_id = $2`,
			scopeColumn(layer.scope), layer.id,
		)
		if err != nil {
			return permission.PreapprovalSet{}, fmt.Errorf("query preapproval layer %s: %w", scopeColumn(layer.scope), err)
		}
		for rows.Next() {
			var actionType string
			var clearance int
			if err := rows.Scan(&actionType, &clearance); err != nil {
				rows.Close()
				return permission.PreapprovalSet{}, fmt.Errorf("scan preapproval row: %w", err)
			}
			layer.target[actionType] = permission.Preapproval{ActionType: actionType, GrantedClearance: permission.Clearance(clearance)}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return permission.PreapprovalSet{}, err
		}
		rows.Close()
	}
	return set, nil
}
