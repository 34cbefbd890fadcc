package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
)

// AudioServer is an httptest origin that serves one audio payload and counts
// how often it was fetched.
type AudioServer struct {
	*httptest.Server
	requests atomic.Int64
}

// Requests reports how many times the payload was fetched.
func (s *AudioServer) Requests() int {
	return int(s.requests.Load())
}

// NewAudioServer serves body on every path. When withLength is false the
// response omits Content-Length, exercising the length-agnostic progress
// path.
func NewAudioServer(t *testing.T, body []byte, withLength bool) *AudioServer {
	t.Helper()

	srv := &AudioServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.requests.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		if withLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		}
		// Write in two chunks so clients observe intermediate progress.
		half := len(body) / 2
		w.Write(body[:half])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.Write(body[half:])
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewFailingAudioServer responds with the given status code on every path.
func NewFailingAudioServer(t *testing.T, status int) *AudioServer {
	t.Helper()

	srv := &AudioServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.requests.Add(1)
		http.Error(w, "not available", status)
	}))
	t.Cleanup(srv.Close)
	return srv
}
