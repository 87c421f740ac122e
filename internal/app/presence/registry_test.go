package presence

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestRegistry_JoinLeaveCounts(t *testing.T) {
	r := NewRegistry()

	steps := []struct {
		op      string
		session string
		want    int
	}{
		{"join", "a", 1},
		{"join", "b", 2},
		{"join", "a", 2},
		{"leave", "a", 1},
		{"leave", "a", 1},
		{"leave", "c", 1},
		{"leave", "b", 0},
	}

	for i, s := range steps {
		var got int
		if s.op == "join" {
			got = r.Join("42", s.session)
		} else {
			got = r.Leave("42", s.session)
		}
		if got != s.want {
			t.Errorf("step %d: %s(%q) = %d, want %d", i, s.op, s.session, got, s.want)
		}
		if c := r.Count("42"); c != s.want {
			t.Errorf("step %d: Count = %d, want %d", i, c, s.want)
		}
	}

	if r.HasRoom("42") {
		t.Error("room should be removed once empty")
	}
}

func TestRegistry_EmptyRoomIsRemoved(t *testing.T) {
	r := NewRegistry()
	r.Join("1", "a")
	r.Leave("1", "a")

	if r.HasRoom("1") {
		t.Error("HasRoom(1) = true after last member left")
	}
	if got := r.Rooms(); got != 0 {
		t.Errorf("Rooms() = %d, want 0", got)
	}
	if got := r.Leave("missing", "a"); got != 0 {
		t.Errorf("Leave on absent room = %d, want 0", got)
	}
	if r.HasRoom("missing") {
		t.Error("Leave must not create a room")
	}
}

func TestRegistry_LeaveAll(t *testing.T) {
	r := NewRegistry()
	r.Track("c")
	r.Join("9", "c")
	r.Join("7", "c")
	r.Join("9", "d")

	got := r.LeaveAll("c")
	want := []RoomCount{{StreamID: "7", Count: 0}, {StreamID: "9", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LeaveAll() = %+v, want %+v", got, want)
	}

	if r.HasRoom("7") {
		t.Error("room 7 should be removed")
	}
	if m := r.Members("9"); !reflect.DeepEqual(m, []string{"d"}) {
		t.Errorf("Members(9) = %v, want [d]", m)
	}
	if j := r.Joined("c"); len(j) != 0 {
		t.Errorf("Joined(c) = %v, want empty", j)
	}
	if got := r.Sessions(); got != 1 {
		t.Errorf("Sessions() = %d, want 1", got)
	}

	if again := r.LeaveAll("c"); again != nil {
		t.Errorf("second LeaveAll() = %+v, want nil", again)
	}
	if never := r.LeaveAll("nobody"); never != nil {
		t.Errorf("LeaveAll(untracked) = %+v, want nil", never)
	}
}

func TestRegistry_TrackedSessionWithoutRooms(t *testing.T) {
	r := NewRegistry()
	r.Track("a")
	r.Track("a")

	if got := r.Sessions(); got != 1 {
		t.Errorf("Sessions() = %d, want 1", got)
	}
	if got := r.LeaveAll("a"); len(got) != 0 {
		t.Errorf("LeaveAll() = %+v, want no entries", got)
	}
	if got := r.Sessions(); got != 0 {
		t.Errorf("Sessions() after LeaveAll = %d, want 0", got)
	}
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	const sessions = 64
	rooms := []string{"1", "2", "3"}

	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, room := range rooms {
				r.Join(room, id)
			}
			r.Leave(rooms[0], id)
		}(fmt.Sprintf("s%d", i))
	}
	wg.Wait()

	if got := r.Count("1"); got != 0 {
		t.Errorf("Count(1) = %d, want 0", got)
	}
	for _, room := range rooms[1:] {
		if got := r.Count(room); got != sessions {
			t.Errorf("Count(%s) = %d, want %d", room, got, sessions)
		}
	}

	for i := range sessions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			r.LeaveAll(id)
		}(fmt.Sprintf("s%d", i))
	}
	wg.Wait()

	if got := r.Rooms(); got != 0 {
		t.Errorf("Rooms() = %d, want 0", got)
	}
	if got := r.Sessions(); got != 0 {
		t.Errorf("Sessions() = %d, want 0", got)
	}
}
