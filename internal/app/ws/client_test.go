package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"arcadelive/internal/app/presence"
)

type wireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// newTestServer serves /?sid=<session id> with a hub wired to a fresh coordinator.
func newTestServer(t *testing.T, chatLimit func() *rate.Limiter) (*presence.Coordinator, *Hub, string) {
	t.Helper()

	hub := NewHub()
	coord := presence.NewCoordinator(presence.NewRegistry(), hub, nil)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var limit *rate.Limiter
		if chatLimit != nil {
			limit = chatLimit()
		}

		c := NewClient(hub, conn, coord, r.URL.Query().Get("sid"), "", limit)
		if !hub.Register(c) {
			_ = conn.Close()
			return
		}
		coord.OnConnect(c.ID)

		go c.WritePump()
		c.ReadPump()
	}))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	return coord, hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, sid string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url+"/?sid="+sid, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", sid, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt wireEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	return evt
}

func readCount(t *testing.T, conn *websocket.Conn) presence.ViewerCount {
	t.Helper()

	evt := read(t, conn)
	if evt.Name != presence.EventViewerCount {
		t.Fatalf("event = %q, want %q", evt.Name, presence.EventViewerCount)
	}
	var vc presence.ViewerCount
	if err := json.Unmarshal(evt.Data, &vc); err != nil {
		t.Fatal(err)
	}
	return vc
}

func TestClient_PresenceAndChatOverWebSocket(t *testing.T) {
	coord, _, url := newTestServer(t, nil)

	a := dial(t, url, "A")
	send(t, a, `{"event":"join_stream","data":{"streamId":"42"}}`)
	if vc := readCount(t, a); vc != (presence.ViewerCount{StreamID: "42", Count: 1}) {
		t.Fatalf("A got %+v", vc)
	}

	b := dial(t, url, "B")
	send(t, b, `{"event":"join_stream","data":42}`)
	for name, conn := range map[string]*websocket.Conn{"A": a, "B": b} {
		if vc := readCount(t, conn); vc != (presence.ViewerCount{StreamID: "42", Count: 2}) {
			t.Fatalf("%s got %+v", name, vc)
		}
	}

	send(t, a, `{"event":"chat_message","data":{"streamId":42,"userId":7,"username":"ann","message":"hi"}}`)
	for name, conn := range map[string]*websocket.Conn{"A": a, "B": b} {
		evt := read(t, conn)
		if evt.Name != presence.EventNewMessage {
			t.Fatalf("%s got %q", name, evt.Name)
		}
		var msg presence.ChatMessage
		if err := json.Unmarshal(evt.Data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Message != "hi" || msg.UserID != "7" || msg.Username != "ann" || msg.ID == "" {
			t.Errorf("%s got message %+v", name, msg)
		}
	}

	_ = a.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = a.Close()

	if vc := readCount(t, b); vc != (presence.ViewerCount{StreamID: "42", Count: 1}) {
		t.Fatalf("B after A disconnect got %+v", vc)
	}
	if m := coord.Registry().Members("42"); !reflect.DeepEqual(m, []string{"B"}) {
		t.Errorf("Members(42) = %v, want [B]", m)
	}
}

func TestClient_MalformedEventsAreDropped(t *testing.T) {
	coord, _, url := newTestServer(t, nil)

	a := dial(t, url, "A")
	send(t, a, `not json`)
	send(t, a, `{"event":"join_stream"}`)
	send(t, a, `{"event":"join_stream","data":{"streamId":{}}}`)
	send(t, a, `{"event":"chat_message","data":"hi"}`)
	send(t, a, `{"event":"join_stream","data":{"streamId":"9"}}`)

	if vc := readCount(t, a); vc.StreamID != "9" || vc.Count != 1 {
		t.Fatalf("got %+v, want the valid join only", vc)
	}
	if got := coord.Registry().Rooms(); got != 1 {
		t.Errorf("Rooms() = %d, want 1", got)
	}
}

func TestClient_UnknownEventGetsError(t *testing.T) {
	_, _, url := newTestServer(t, nil)

	a := dial(t, url, "A")
	send(t, a, `{"event":"dance","data":{}}`)

	evt := read(t, a)
	if evt.Name != presence.EventError {
		t.Fatalf("event = %q, want error", evt.Name)
	}
}

func TestClient_ChatRateLimitAndLength(t *testing.T) {
	_, _, url := newTestServer(t, func() *rate.Limiter { return rate.NewLimiter(rate.Limit(0.001), 1) })

	a := dial(t, url, "A")
	send(t, a, `{"event":"join_stream","data":"1"}`)
	readCount(t, a)

	long := strings.Repeat("é", MaxMessageLength+1)
	send(t, a, `{"event":"chat_message","data":{"streamId":"1","message":"`+long+`"}}`)
	evt := read(t, a)
	var payload presence.ErrorPayload
	_ = json.Unmarshal(evt.Data, &payload)
	if evt.Name != presence.EventError || payload.Code != 2202 {
		t.Fatalf("oversized message got %s %+v", evt.Name, payload)
	}

	send(t, a, `{"event":"chat_message","data":{"streamId":"1","message":"one"}}`)
	if evt := read(t, a); evt.Name != presence.EventNewMessage {
		t.Fatalf("first message got %q", evt.Name)
	}

	send(t, a, `{"event":"chat_message","data":{"streamId":"1","message":"two"}}`)
	evt = read(t, a)
	_ = json.Unmarshal(evt.Data, &payload)
	if evt.Name != presence.EventError || payload.Code != 1007 {
		t.Fatalf("second message got %s %+v", evt.Name, payload)
	}
}

func TestClient_ShutdownClosesConnections(t *testing.T) {
	_, hub, url := newTestServer(t, nil)

	a := dial(t, url, "A")
	send(t, a, `{"event":"join_stream","data":"1"}`)
	readCount(t, a)

	hub.Shutdown()

	_ = a.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := a.ReadMessage(); err == nil {
		t.Fatal("expected the connection to close")
	}
}
