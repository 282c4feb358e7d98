// Package pg implements internal/store's interfaces against Postgres:
// one file per entity, database/sql over the pgx stdlib driver.
package pg

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sharpclaw/mk8/internal/store"
)

// OpenDB opens a pgx-backed *sql.DB and verifies connectivity with Ping.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPGStores builds every store backed by one shared *sql.DB.
func NewPGStores(cfg store.Config) (*store.Stores, error) {
	db, err := OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	return &store.Stores{
		Jobs:         NewJobStore(db),
		Roles:        NewRoleStore(db),
		Grants:       NewGrantStore(db),
		Preapprovals: NewPreapprovalStore(db),
	}, nil
}
