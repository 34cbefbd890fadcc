// Handlers exposing the playback state machine. State changes are also
// pushed to clients through the websocket hub by the controller itself; the
// responses here return the resulting snapshot for request/response callers.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"audiotome/internal/errdefs"
	"audiotome/internal/playback"
)

type playbackActionPayload struct {
	AudiobookID string  `json:"audiobook_id,omitempty"`
	ChapterID   string  `json:"chapter_id,omitempty"`
	Position    float64 `json:"position,omitempty"`
	Speed       float64 `json:"speed,omitempty"`
}

func (s *Server) handleGetPlayback(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.Playback().Status())
}

func (s *Server) handlePlaybackAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	var payload playbackActionPayload
	if r.Body != nil {
		// Actions like pause/next/prev/close carry no payload.
		json.NewDecoder(r.Body).Decode(&payload)
	}

	player := s.app.Playback()
	var err error
	switch action {
	case "play":
		if payload.AudiobookID == "" || payload.ChapterID == "" {
			RespondWithError(w, http.StatusBadRequest, "audiobook_id and chapter_id are required")
			return
		}
		err = player.Play(payload.AudiobookID, payload.ChapterID)
	case "pause":
		err = player.TogglePause()
	case "seek":
		err = player.Seek(payload.Position)
	case "speed":
		err = player.SetSpeed(payload.Speed)
	case "next":
		err = player.Next()
	case "prev":
		err = player.Prev()
	case "ended":
		err = player.ChapterEnded()
	case "close":
		player.Close()
	default:
		RespondWithError(w, http.StatusBadRequest, "Unknown playback action")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, errdefs.ErrNotFound):
			RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, playback.ErrPlaylistEdge),
			errors.Is(err, playback.ErrNoActivePlayback):
			RespondWithError(w, http.StatusConflict, err.Error())
		default:
			RespondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, player.Status())
}
