package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // Blank import for sql driver

	"audiotome/internal/blobcache"
	"audiotome/internal/db"
)

// SetupTestDB creates an in-memory SQLite database and applies all embedded
// migrations. It returns the database connection, ready for use in tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use in-memory database for testing to ensure tests are fast and isolated.
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return database
}

// SetupTestBlobCache opens a blob cache in the test's temp directory.
func SetupTestBlobCache(t *testing.T) *blobcache.Cache {
	t.Helper()

	cache, err := blobcache.Open(filepath.Join(t.TempDir(), "blobs.db"))
	if err != nil {
		t.Fatalf("Failed to open test blob cache: %v", err)
	}
	t.Cleanup(func() {
		cache.Close()
	})
	return cache
}
