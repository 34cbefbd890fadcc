// Handlers for the offline library: listing and the three deletion paths.
// All deletions go through the consistency manager so the audiobook/chapter
// invariant holds on every path.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	listing, err := s.app.Library().Library()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to load offline library")
		return
	}
	RespondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")
	if chapterID == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing chapter ID")
		return
	}
	if err := s.app.Library().DeleteChapter(chapterID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete chapter")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Chapter deleted"})
}

func (s *Server) handleDeleteAudiobook(w http.ResponseWriter, r *http.Request) {
	audiobookID := chi.URLParam(r, "audiobookID")
	if audiobookID == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing audiobook ID")
		return
	}
	if err := s.app.Library().DeleteAudiobook(audiobookID); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete audiobook")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Audiobook deleted"})
}

func (s *Server) handleClearLibrary(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Library().ClearAll(); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to clear offline library")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Offline library cleared"})
}
