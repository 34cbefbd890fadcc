package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/httpfs"

	"audiotome/internal/errdefs"

	// Import the sqlite3 driver. The blank import is used because we only
	// need the driver to be registered with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Init opens a connection to the SQLite database at the specified path and
// verifies it is usable. A failure here means the metadata store is
// unavailable for the whole subsystem, so the error wraps
// errdefs.ErrStorageUnavailable.
func Init(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", errdefs.ErrStorageUnavailable, err)
	}

	// Ping the database to verify the connection is alive.
	if err = database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %v", errdefs.ErrStorageUnavailable, err)
	}

	return database, nil
}

// RunMigrations applies all pending schema migrations from the embedded
// migration files. Migrations are additive (new indexes, new columns) so
// existing records never need a rewrite pass, and golang-migrate's version
// table makes the sequence safe to re-run after an interrupted open.
func RunMigrations(database *sql.DB) error {
	source, err := httpfs.New(http.FS(migrationsFS), "migrations")
	if err != nil {
		return fmt.Errorf("could not create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(database, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("httpfs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("an error occurred while applying migrations: %w", err)
	}

	log.Println("Database migrations applied.")
	return nil
}
