package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// MigrationURL returns the golang-migrate database URL for a SQL driver and its dsn.
func MigrationURL(driver, dsn string) (string, error) {
	switch driver {
	case "sqlite":
		if dsn == "" {
			return "", errors.New("storage: sqlite path is required")
		}
		return "sqlite://" + filepath.Clean(dsn), nil
	case "postgres":
		if dsn == "" {
			return "", errors.New("storage: postgres dsn is required")
		}
		return dsn, nil
	}
	return "", fmt.Errorf("storage: driver %q has no migrations", driver)
}

// Migrate applies the embedded storage migrations in the given direction against databaseURL
// (sqlite://path or postgres://...). Already being at the target version is not an error.
func Migrate(databaseURL, direction string) error {
	if databaseURL == "" {
		return errors.New("storage: database url is required")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	sourceDriver, err := iofs.New(MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
