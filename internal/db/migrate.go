package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/cinescope/apiserver/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewMigrator returns a migrator for the database in cfg. It reads the
// embedded migrations, or the directory dir when one is given.
func NewMigrator(cfg config.DatabaseConfig, dir string) (*migrate.Migrate, error) {
	if dir != "" {
		return migrate.New("file://"+dir, PostgresURL(cfg))
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, PostgresURL(cfg))
}

// MigrateUp applies every pending migration. An up-to-date schema is not an
// error.
func MigrateUp(cfg config.DatabaseConfig, dir string) error {
	m, err := NewMigrator(cfg, dir)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
