// Package db runs the schema migrations the graph store depends on.
package db

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/vantagecomms/vantage/backend/internal/util"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

// Migrate applies all pending migrations from MIGRATIONS_PATH (default
// internal/db/migrations) against DATABASE_URL. It opens its own short-lived
// database/sql connection; the pgx pool is not involved.
func Migrate() error {
	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "internal/db/migrations")

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			logger.Debug("[DB] Schema already up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("[DB] Migrations applied")
	return nil
}
