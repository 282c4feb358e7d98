package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sharpclaw/mk8/internal/permission"
)

// GrantStore implements store.GrantStore: one row per
// (role, resource kind, resource id), matching SPEC_FULL.md §9's
// "tagged variant per resource kind" — the resource_kind column is the
// tag, resource_id the wildcard-or-specific key.
type GrantStore struct {
	db *sql.DB
}

// NewGrantStore builds a GrantStore bound to db.
func NewGrantStore(db *sql.DB) *GrantStore { return &GrantStore{db: db} }

// ListForRole returns every grant roleID holds for kind.
func (s *GrantStore) ListForRole(ctx context.Context, roleID string, kind permission.ResourceKind) ([]permission.ResourceGrant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_id, clearance FROM resource_grants WHERE role_id = $1 AND resource_kind = $2`,
		roleID, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("query resource grants: %w", err)
	}
	defer rows.Close()

	var out []permission.ResourceGrant
	for rows.Next() {
		var resourceID string
		var clearance int
		if err := rows.Scan(&resourceID, &clearance); err != nil {
			return nil, fmt.Errorf("scan resource grant row: %w", err)
		}
		out = append(out, permission.ResourceGrant{ResourceID: resourceID, Clearance: permission.Clearance(clearance)})
	}
	return out, rows.Err()
}

// Upsert persists a single grant for (roleID, kind, grant.ResourceID).
func (s *GrantStore) Upsert(ctx context.Context, roleID string, kind permission.ResourceKind, grant permission.ResourceGrant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resource_grants (role_id, resource_kind, resource_id, clearance)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (role_id, resource_kind, resource_id)
		 DO UPDATE SET clearance = EXCLUDED.clearance`,
		roleID, string(kind), grant.ResourceID, int(grant.Clearance),
	)
	return err
}

// Delete removes a single grant, reverting that resource to the role's
// default clearance.
func (s *GrantStore) Delete(ctx context.Context, roleID string, kind permission.ResourceKind, resourceID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM resource_grants WHERE role_id = $1 AND resource_kind = $2 AND resource_id = $3`,
		roleID, string(kind), resourceID,
	)
	return err
}
