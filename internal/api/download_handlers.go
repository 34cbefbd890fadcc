// Handlers for download triggers. Downloads run in the background; the
// request is acknowledged with 202 and progress flows to clients over the
// websocket hub.

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"audiotome/internal/downloader"
	"audiotome/internal/models"
)

type chapterDownloadPayload struct {
	Audiobook downloader.BookInfo    `json:"audiobook"`
	Chapter   downloader.ChapterInfo `json:"chapter"`
}

type audiobookDownloadPayload struct {
	Audiobook downloader.BookInfo      `json:"audiobook"`
	Chapters  []downloader.ChapterInfo `json:"chapters"`
}

func (s *Server) handleDownloadChapter(w http.ResponseWriter, r *http.Request) {
	var payload chapterDownloadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Audiobook.ID == "" || payload.Chapter.AudioURL == "" {
		RespondWithError(w, http.StatusBadRequest, "Audiobook ID and chapter audio URL are required")
		return
	}

	go func() {
		key := payload.Chapter.Key(payload.Audiobook.ID)
		// Failures are reported through the progress callback.
		s.app.Downloader().DownloadChapter(
			context.Background(), payload.Chapter, payload.Audiobook,
			s.chapterProgressBroadcaster(key))
	}()

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Chapter download started.",
	})
}

func (s *Server) handleDownloadAudiobook(w http.ResponseWriter, r *http.Request) {
	var payload audiobookDownloadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Audiobook.ID == "" || len(payload.Chapters) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Audiobook ID and at least one chapter are required")
		return
	}

	go func() {
		hub := s.app.WsHub()
		summary := s.app.Downloader().DownloadAudiobook(
			context.Background(), payload.Chapters, payload.Audiobook,
			func(chapterKey string, pct float64, msg string) {
				hub.BroadcastJSON(progressUpdate(chapterKey, pct, msg))
			},
			func(pct float64, msg string) {
				hub.BroadcastJSON(models.ProgressUpdate{
					JobID: "downloader", ItemID: payload.Audiobook.ID,
					Message: msg, Progress: pct, Status: "in_progress", Done: pct >= 100,
				})
			})
		hub.BroadcastJSON(models.ProgressUpdate{
			JobID: "downloader", ItemID: payload.Audiobook.ID,
			Message: string(summary.Result), Progress: 100,
			Status: string(summary.Result), Done: true,
		})
	}()

	RespondWithJSON(w, http.StatusAccepted, map[string]string{
		"message": "Audiobook download started.",
	})
}

// chapterProgressBroadcaster adapts the orchestrator's callback contract to
// hub broadcasts for one chapter.
func (s *Server) chapterProgressBroadcaster(chapterKey string) downloader.ProgressFunc {
	return func(pct float64, msg string) {
		s.app.WsHub().BroadcastJSON(progressUpdate(chapterKey, pct, msg))
	}
}

func progressUpdate(chapterKey string, pct float64, msg string) models.ProgressUpdate {
	status := "in_progress"
	done := false
	switch {
	case pct < 0:
		status = "failed"
		done = true
	case pct >= 100:
		status = "completed"
		done = true
	}
	return models.ProgressUpdate{
		JobID: "downloader", ItemID: chapterKey,
		Message: msg, Progress: pct, Status: status, Done: done,
	}
}
