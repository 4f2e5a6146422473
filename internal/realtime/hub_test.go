package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	a, b := dial(t, srv), dial(t, srv)
	waitFor(t, func() bool { return hub.Count() == 2 })

	err := hub.Broadcast(Message{Type: TypeMatchResult, Payload: map[string]any{"matchId": 101}})
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got map[string]any
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		want := map[string]any{"type": "matchResult", "payload": map[string]any{"matchId": float64(101)}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("message mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestHubRemovesClosedClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })

	if err := hub.Broadcast(Message{Type: "noop"}); err != nil {
		t.Errorf("Broadcast with no clients: %v", err)
	}
}
