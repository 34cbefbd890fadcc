// Handlers for background job status and manual triggers.

package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (s *Server) handleGetJobsStatus(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.JobManager().Statuses())
}

func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		RespondWithError(w, http.StatusBadRequest, "A job name is required")
		return
	}

	if err := s.app.JobManager().RunJob(payload.Name, s.app); err != nil {
		if strings.Contains(err.Error(), "not found") {
			RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Job started."})
}
