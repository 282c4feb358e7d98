package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sharpclaw/mk8/internal/permission"
)

// RoleStore implements store.RoleStore: a role's default clearance,
// global action flags, and approver whitelists. Resource grants live in
// the separate GrantStore (SPEC_FULL.md §9 "Polymorphic resource
// grants" — one variant per resource kind, stored and queried apart
// from the scalar role fields).
type RoleStore struct {
	db *sql.DB
}

// NewRoleStore builds a RoleStore bound to db.
func NewRoleStore(db *sql.DB) *RoleStore { return &RoleStore{db: db} }

type roleRow struct {
	DefaultClearance  permission.Clearance             `json:"defaultClearance"`
	Globals           map[permission.GlobalAction]bool `json:"globals"`
	WhitelistedUsers  []string                         `json:"whitelistedUsers"`
	WhitelistedAgents []string                         `json:"whitelistedAgents"`
}

// Get loads a role's scalar fields and leaves Grants nil — callers
// needing the full profile should also call GrantStore.ListForRole per
// resource kind and merge, or use Resolver helpers that do so.
func (s *RoleStore) Get(ctx context.Context, roleID string) (permission.RolePermissions, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM roles WHERE id = $1`, roleID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return permission.RolePermissions{ID: roleID}, nil
	}
	if err != nil {
		return permission.RolePermissions{}, fmt.Errorf("query role: %w", err)
	}
	var row roleRow
	if err := json.Unmarshal(payload, &row); err != nil {
		return permission.RolePermissions{}, fmt.Errorf("unmarshal role payload: %w", err)
	}
	return permission.RolePermissions{
		ID:                roleID,
		DefaultClearance:  row.DefaultClearance,
		Globals:           row.Globals,
		WhitelistedUsers:  row.WhitelistedUsers,
		WhitelistedAgents: row.WhitelistedAgents,
	}, nil
}

// Upsert persists role's scalar fields (Grants are ignored here; use
// GrantStore to manage per-resource-kind collections).
func (s *RoleStore) Upsert(ctx context.Context, roleID string, role permission.RolePermissions) error {
	row := roleRow{
		DefaultClearance: role.DefaultClearance, Globals: role.Globals,
		WhitelistedUsers: role.WhitelistedUsers, WhitelistedAgents: role.WhitelistedAgents,
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal role payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO roles (id, payload) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		roleID, payload,
	)
	return err
}
