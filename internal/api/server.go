// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"audiotome/internal/core"
	"audiotome/internal/websocket"
)

// Server holds the dependencies for our API.
type Server struct {
	app *core.App
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{app: app}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/version", s.handleGetVersion)

	// Progress websocket for download and job updates.
	r.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(s.app.WsHub(), w, r)
	})

	r.Route("/api", func(r chi.Router) {
		// Offline library
		r.Get("/library", s.handleGetLibrary)
		r.Delete("/library", s.handleClearLibrary)
		r.Delete("/audiobooks/{audiobookID}", s.handleDeleteAudiobook)
		r.Delete("/chapters/{chapterID}", s.handleDeleteChapter)

		// Downloads
		r.Post("/download/chapter", s.handleDownloadChapter)
		r.Post("/download/audiobook", s.handleDownloadAudiobook)

		// Playback
		r.Get("/playback", s.handleGetPlayback)
		r.Post("/playback/{action}", s.handlePlaybackAction)

		// Background jobs
		r.Get("/jobs/status", s.handleGetJobsStatus)
		r.Post("/jobs/run", s.handleRunJob)
	})

	return r
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version()})
}
