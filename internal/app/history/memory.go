package history

import (
	"context"
	"sync"
	"time"

	"arcadelive/internal/app/presence"
)

// sweepInterval is the minimum time between sweeps of expired rooms.
const sweepInterval = time.Minute

type memoryEntry struct {
	msgs      []presence.ChatMessage
	expiresAt time.Time
}

// MemoryStore is an in-process presence.History used when no Redis URL is configured.
// It has the same cap and expiry semantics as RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	capacity int
	ttl      time.Duration
	now      func() time.Time

	nextSweep time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]*memoryEntry),
		capacity: presence.HistoryCapacity,
		ttl:      presence.HistoryTTL,
		now:      time.Now,
	}
}

// Append implements presence.History.
func (s *MemoryStore) Append(ctx context.Context, streamID string, msg presence.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(streamID)
	now := s.now()

	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
		s.nextSweep = now.Add(sweepInterval)
	}

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}

	entry.msgs = append(entry.msgs, msg)
	if over := len(entry.msgs) - s.capacity; over > 0 {
		entry.msgs = append([]presence.ChatMessage(nil), entry.msgs[over:]...)
	}
	entry.expiresAt = now.Add(s.ttl)

	return nil
}

// Recent implements presence.History.
func (s *MemoryStore) Recent(ctx context.Context, streamID string) ([]presence.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(streamID)
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}

	return append([]presence.ChatMessage(nil), entry.msgs...), nil
}

// Ping implements the health check; the in-process store is always reachable.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of rooms currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweepLocked drops every room whose history has expired at now.
func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
