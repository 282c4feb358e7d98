package store

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// NewMigrator builds a migrator reading .sql files from migrationsDir
// against dsn.
func NewMigrator(migrationsDir, dsn string) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+migrationsDir, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. A no-op result (ErrNoChange) is
// not an error.
func Up(migrationsDir, dsn string) (version uint, dirty bool, err error) {
	m, err := NewMigrator(migrationsDir, dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return 0, false, fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err = m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	return version, dirty, err
}

// Down rolls back steps migrations (at least 1).
func Down(migrationsDir, dsn string, steps int) (version uint, dirty bool, err error) {
	if steps <= 0 {
		steps = 1
	}
	m, err := NewMigrator(migrationsDir, dsn)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()
	if err := m.Steps(-steps); err != nil && err != migrate.ErrNoChange {
		return 0, false, fmt.Errorf("migrate down: %w", err)
	}
	version, dirty, err = m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	return version, dirty, err
}
