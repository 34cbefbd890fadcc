package core

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"audiotome/internal/blobcache"
	"audiotome/internal/config"
	"audiotome/internal/db"
	"audiotome/internal/downloader"
	"audiotome/internal/jobs"
	"audiotome/internal/library"
	"audiotome/internal/playback"
	"audiotome/internal/store"
	"audiotome/internal/websocket"
)

// App holds the core components of the application that are shared between
// the server and the tests. Both storage handles are opened once here and
// injected everywhere else; nothing re-opens them.
type App struct {
	cfg        *config.Config
	database   *sql.DB
	blobs      *blobcache.Cache
	store      *store.Store
	hub        *websocket.Hub
	library    *library.Manager
	playback   *playback.Controller
	downloader *downloader.Orchestrator
	jobManager *jobs.JobManager
	version    string
}

// New sets up and returns a new App instance. It loads configuration, opens
// both storage systems and runs migrations. A failure to open either store
// is fatal for the whole offline subsystem.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.Init(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	blobs, err := blobcache.Open(cfg.BlobCache.Path)
	if err != nil {
		database.Close()
		return nil, err
	}

	app := Build(cfg, database, blobs, version)
	log.Println("Core application setup complete.")
	return app, nil
}

// Build wires the application components around already opened storage
// handles. Split out of New so tests can inject in-memory stores.
func Build(cfg *config.Config, database *sql.DB, blobs *blobcache.Cache, version string) *App {
	st := store.New(database)
	hub := websocket.NewHub()
	go hub.Run()

	lib := library.New(st, blobs)
	player := playback.New(st, blobs)
	// Clearing everything must also release the player's in-flight locator.
	lib.SetClearHook(player.Close)
	// Player state changes go out to UI clients through the hub.
	player.Subscribe(func(ev playback.Event) {
		hub.BroadcastJSON(ev)
	})

	orch := downloader.New(st, blobs, &http.Client{}, cfg.Downloads.UserAgent)

	jm := jobs.NewManager()
	jobs.RegisterDefaults(jm)

	return &App{
		cfg:        cfg,
		database:   database,
		blobs:      blobs,
		store:      st,
		hub:        hub,
		library:    lib,
		playback:   player,
		downloader: orch,
		jobManager: jm,
		version:    version,
	}
}

func (a *App) Config() *config.Config               { return a.cfg }
func (a *App) DB() *sql.DB                          { return a.database }
func (a *App) Blobs() *blobcache.Cache              { return a.blobs }
func (a *App) Store() *store.Store                  { return a.store }
func (a *App) WsHub() *websocket.Hub                { return a.hub }
func (a *App) Library() *library.Manager            { return a.library }
func (a *App) Playback() *playback.Controller       { return a.playback }
func (a *App) Downloader() *downloader.Orchestrator { return a.downloader }
func (a *App) JobManager() *jobs.JobManager         { return a.jobManager }
func (a *App) Version() string                      { return a.version }

// Close gracefully closes the application's resources.
func (a *App) Close() {
	if a.playback != nil {
		a.playback.Close()
	}
	if a.blobs != nil {
		a.blobs.Close()
	}
	if a.database != nil {
		a.database.Close()
	}
}
