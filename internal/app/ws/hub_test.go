package ws

import (
	"encoding/json"
	"testing"

	"arcadelive/internal/app/presence"
)

func newTestClient(hub *Hub, id string) *Client {
	return NewClient(hub, nil, nil, id, "", nil)
}

func drain(c *Client) []presence.Event {
	var evts []presence.Event
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return evts
			}
			var raw struct {
				Name string          `json:"event"`
				Data json.RawMessage `json:"data"`
			}
			_ = json.Unmarshal(data, &raw)
			evts = append(evts, presence.Event{Name: raw.Name, Data: raw.Data})
		default:
			return evts
		}
	}
}

func TestHub_BroadcastReachesGroupOnly(t *testing.T) {
	hub := NewHub()
	a, b, c := newTestClient(hub, "a"), newTestClient(hub, "b"), newTestClient(hub, "c")
	for _, cl := range []*Client{a, b, c} {
		if !hub.Register(cl) {
			t.Fatalf("Register(%s) failed", cl.ID)
		}
	}

	hub.JoinGroup("a", "42")
	hub.JoinGroup("b", "42")
	hub.JoinGroup("c", "7")
	hub.JoinGroup("ghost", "42")

	hub.Broadcast("42", presence.NewViewerCountEvent("42", 2))

	if n := len(drain(a)); n != 1 {
		t.Errorf("a got %d events, want 1", n)
	}
	if n := len(drain(b)); n != 1 {
		t.Errorf("b got %d events, want 1", n)
	}
	if n := len(drain(c)); n != 0 {
		t.Errorf("c got %d events, want 0", n)
	}
	if got := hub.GroupSize("42"); got != 2 {
		t.Errorf("GroupSize(42) = %d, want 2", got)
	}

	hub.LeaveGroup("a", "42")
	hub.Broadcast("42", presence.NewViewerCountEvent("42", 1))
	if n := len(drain(a)); n != 0 {
		t.Errorf("a got %d events after leaving", n)
	}
}

func TestHub_SendTargetsOneSession(t *testing.T) {
	hub := NewHub()
	a, b := newTestClient(hub, "a"), newTestClient(hub, "b")
	hub.Register(a)
	hub.Register(b)

	hub.Send("a", presence.NewErrorEvent(1007, "slow down"))
	hub.Send("missing", presence.NewErrorEvent(1007, "nobody"))

	evts := drain(a)
	if len(evts) != 1 || evts[0].Name != presence.EventError {
		t.Fatalf("a got %+v", evts)
	}
	var payload presence.ErrorPayload
	if err := json.Unmarshal(evts[0].Data.(json.RawMessage), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Code != 1007 || payload.Message != "slow down" {
		t.Errorf("payload = %+v", payload)
	}
	if n := len(drain(b)); n != 0 {
		t.Errorf("b got %d events", n)
	}
}

func TestHub_FullQueueDropsForThatClientOnly(t *testing.T) {
	hub := NewHub()
	slow, fast := newTestClient(hub, "slow"), newTestClient(hub, "fast")
	hub.Register(slow)
	hub.Register(fast)
	hub.JoinGroup("slow", "42")
	hub.JoinGroup("fast", "42")

	for i := range sendBufferSize + 10 {
		hub.Broadcast("42", presence.NewViewerCountEvent("42", i))
		if i%16 == 0 {
			drain(fast)
		}
	}

	if got := len(slow.send); got != sendBufferSize {
		t.Errorf("slow queue = %d, want %d", got, sendBufferSize)
	}
	if got := len(fast.send); got >= sendBufferSize {
		t.Errorf("fast queue = %d, should not be full", got)
	}
}

func TestHub_UnregisterClosesQueueAndLeavesGroups(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "a")
	hub.Register(a)
	hub.JoinGroup("a", "7")
	hub.JoinGroup("a", "9")

	hub.Unregister(a)
	hub.Unregister(a)

	if _, ok := <-a.send; ok {
		t.Error("send queue should be closed")
	}
	if hub.GroupSize("7") != 0 || hub.GroupSize("9") != 0 {
		t.Error("groups should be empty after unregister")
	}
	if hub.Len() != 0 {
		t.Errorf("Len() = %d, want 0", hub.Len())
	}

	hub.Broadcast("7", presence.NewViewerCountEvent("7", 0))
	hub.Send("a", presence.NewErrorEvent(1, "x"))
}

func TestHub_RegisterRejectsDuplicateAndAfterShutdown(t *testing.T) {
	hub := NewHub()
	if !hub.Register(newTestClient(hub, "a")) {
		t.Fatal("first Register failed")
	}
	if hub.Register(newTestClient(hub, "a")) {
		t.Error("duplicate session id accepted")
	}

	hub.Shutdown()
	hub.Shutdown()

	if hub.Register(newTestClient(hub, "b")) {
		t.Error("Register after Shutdown accepted")
	}
}

func TestHub_ShutdownClosesQueues(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "a")
	hub.Register(a)

	hub.Shutdown()

	if _, ok := <-a.send; ok {
		t.Error("send queue should be closed after Shutdown")
	}

	hub.Send("a", presence.NewErrorEvent(1, "x"))
	hub.Unregister(a)
	if hub.Len() != 0 {
		t.Errorf("Len() = %d, want 0", hub.Len())
	}
}
