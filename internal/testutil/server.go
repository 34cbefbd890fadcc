// A shared test setup utility, which simplifies component and API tests.

package testutil

import (
	"database/sql"
	"testing"

	"audiotome/internal/api"
	"audiotome/internal/config"
	"audiotome/internal/core"
)

// SetupTestApp builds a full core.App around an in-memory database and a
// temp-dir blob cache.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()

	database := SetupTestDB(t)
	blobs := SetupTestBlobCache(t)

	cfg := &config.Config{}
	app := core.Build(cfg, database, blobs, "test")

	t.Cleanup(func() {
		app.Playback().Close()
	})
	return app
}

// SetupTestServer initializes a full core.App and api.Server for integration
// testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t)
	return api.NewServer(app), app.DB()
}
