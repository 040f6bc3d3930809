package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Migrate applies the embedded ledger schema to one tenant schema.
// Each tenant gets its own schema_migrations table, so tenants can be
// provisioned independently.
func Migrate(dsn, schema string, fsys fs.FS) error {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("platform/db: migration source: %w", err)
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("platform/db: parse dsn: %w", err)
	}
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s", schema))
	u.RawQuery = q.Encode()

	sqlDB, err := sql.Open("pgx", u.String())
	if err != nil {
		return fmt.Errorf("platform/db: open: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	if _, err := sqlDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("platform/db: create schema %s: %w", schema, err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{SchemaName: schema})
	if err != nil {
		return fmt.Errorf("platform/db: migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("platform/db: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: apply migrations for %s: %w", schema, err)
	}
	return nil
}
