/*
Package presence tracks which real-time sessions watch which live streams and fans chat and
viewer-count events out to every session in a stream's room.

Registry is the single piece of shared mutable state. Coordinator binds transport events to
registry mutations and broadcasts, and hands chat messages to the recent-history writer.
*/
package presence

import (
	"sort"
	"sync"
)

// RoomCount is the membership count of one room after a mutation.
type RoomCount struct {
	StreamID string
	Count    int
}

// Registry maps stream ids to the set of joined session ids, with a reverse index from
// session id to the streams it joined. All methods are safe for concurrent use and each
// mutation is atomic; methods never call each other while holding the lock.
type Registry struct {
	mu sync.RWMutex

	// rooms maps stream id to its member session ids. Empty rooms are deleted.
	rooms map[string]map[string]struct{}

	// sessions maps session id to the stream ids it has joined.
	sessions map[string]map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]struct{}),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Track records a connected session with no memberships. Tracking twice is a no-op.
func (r *Registry) Track(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		r.sessions[sessionID] = make(map[string]struct{})
	}
}

// Join adds sessionID to the room for streamID, creating the room when absent,
// and returns the resulting member count. Joining twice does not double-count.
func (r *Registry) Join(streamID, sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[streamID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[streamID] = members
	}
	members[sessionID] = struct{}{}

	joined, ok := r.sessions[sessionID]
	if !ok {
		joined = make(map[string]struct{})
		r.sessions[sessionID] = joined
	}
	joined[streamID] = struct{}{}

	return len(members)
}

// Leave removes sessionID from the room for streamID and returns the resulting count.
// A room that becomes empty is deleted. Leaving a room the session is not in is a no-op.
func (r *Registry) Leave(streamID, sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if joined, ok := r.sessions[sessionID]; ok {
		delete(joined, streamID)
	}

	return r.removeLocked(streamID, sessionID)
}

// LeaveAll removes sessionID from every room it joined and forgets the session.
// It returns one entry per affected room, ordered by stream id. An untracked session
// yields no entries.
func (r *Registry) LeaveAll(sessionID string) []RoomCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(r.sessions, sessionID)

	counts := make([]RoomCount, 0, len(joined))
	for streamID := range joined {
		counts = append(counts, RoomCount{
			StreamID: streamID,
			Count:    r.removeLocked(streamID, sessionID),
		})
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].StreamID < counts[j].StreamID })
	return counts
}

// removeLocked deletes sessionID from the room and drops the room once empty.
// r.mu must be held for writing.
func (r *Registry) removeLocked(streamID, sessionID string) int {
	members, ok := r.rooms[streamID]
	if !ok {
		return 0
	}

	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, streamID)
		return 0
	}
	return len(members)
}

// Count returns the number of sessions in the room, 0 when the room does not exist.
func (r *Registry) Count(streamID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[streamID])
}

// Members returns a sorted snapshot of the room's session ids.
func (r *Registry) Members(streamID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[streamID]))
	for sessionID := range r.rooms[streamID] {
		members = append(members, sessionID)
	}
	sort.Strings(members)
	return members
}

// Joined returns a sorted snapshot of the stream ids sessionID has joined.
func (r *Registry) Joined(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	streams := make([]string, 0, len(r.sessions[sessionID]))
	for streamID := range r.sessions[sessionID] {
		streams = append(streams, streamID)
	}
	sort.Strings(streams)
	return streams
}

// HasRoom reports whether a room entry exists for streamID.
func (r *Registry) HasRoom(streamID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[streamID]
	return ok
}

// Rooms returns the number of non-empty rooms.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

// Sessions returns the number of tracked sessions.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
