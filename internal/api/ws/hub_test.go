package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/sports-wager-ledger/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *websocket.Conn, eventID string) {
	t.Helper()
	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", EventID: eventID}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	var ackMsg ClientMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ackMsg); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ackMsg.Type != "subscribed" || ackMsg.EventID != eventID {
		t.Fatalf("unexpected ack %+v", ackMsg)
	}
}

func TestBroadcastReachesEventAndWildcardSubscribers(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	game := dial(t, srv)
	subscribe(t, game, "A_B_1")
	all := dial(t, srv)
	subscribe(t, all, AllEvents)
	other := dial(t, srv)
	subscribe(t, other, "C_D_2")

	env := events.Envelope{ID: "n1", Type: events.TypeEventLocked, EventID: "A_B_1"}
	hub.Broadcast(env)

	for name, conn := range map[string]*websocket.Conn{"game": game, "all": all} {
		var got events.Envelope
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("%s: read: %v", name, err)
		}
		if got.ID != "n1" || got.Type != events.TypeEventLocked {
			t.Fatalf("%s: unexpected envelope %+v", name, got)
		}
	}

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var none events.Envelope
	if err := other.ReadJSON(&none); err == nil {
		t.Fatalf("expected no delivery to unrelated subscriber, got %+v", none)
	}
}

func TestPing(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	var msg ClientMsg
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "pong" {
		t.Fatalf("expected pong, got %+v", msg)
	}
}
