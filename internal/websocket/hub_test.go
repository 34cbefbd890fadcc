package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastJSONReachesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := dialTestHub(t, hub)

	// Registration races with the broadcast; give the hub a beat.
	time.Sleep(50 * time.Millisecond)

	payload := map[string]string{"job_id": "downloader", "message": "Download complete!"}
	hub.BroadcastJSON(payload)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("broadcast was not JSON: %v", err)
	}
	if got["message"] != "Download complete!" {
		t.Errorf("unexpected broadcast payload: %v", got)
	}
}

func TestBroadcastReachesMultipleClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := dialTestHub(t, hub)
	second := dialTestHub(t, hub)
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastJSON(map[string]int{"n": 1})

	for i, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("client %d did not receive the broadcast: %v", i, err)
		}
	}
}

func TestDisconnectedClientIsUnregistered(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := dialTestHub(t, hub)
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	// Broadcasting after the disconnect must not block or panic.
	done := make(chan struct{})
	go func() {
		hub.BroadcastJSON(map[string]string{"after": "close"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after client disconnect")
	}
}
