/*
Package ws is the WebSocket transport for stream presence and chat.

Hub tracks every connected Client and the stream groups it belongs to, and implements
presence.Transport on top of them. Client runs the read and write loops for a single
connection and forwards decoded events to an EventHandler.
*/
package ws

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"arcadelive/internal/app/presence"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/metrics"
)

// Hub owns the set of live clients and the group membership used for fan-out.
type Hub struct {
	// mu guards clients, groups and each client's groups and closed fields.
	// A client's send channel is only closed while mu is held for writing.
	mu sync.RWMutex

	// clients maps session id to its client.
	clients map[string]*Client

	// groups maps a stream id to the session ids receiving its broadcasts.
	groups map[string]map[string]struct{}

	// closed is set by Shutdown; later registrations are refused.
	closed bool

	logger zerolog.Logger
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]struct{}),
		logger:  logx.Component("Hub"),
	}
}

// Register adds c to the hub. It reports false when the hub is shut down or the session id
// is already taken.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if _, ok := h.clients[c.ID]; ok {
		h.logger.Warn().Str("session_id", c.ID).Msg("Duplicate session id rejected.")
		return false
	}

	h.clients[c.ID] = c
	metrics.ConnectedSessions.Inc()
	return true
}

// Unregister removes c from the hub and every group, and closes its send queue.
// Calling it for a client that is no longer registered is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[c.ID]; !ok || cur != c {
		return
	}
	delete(h.clients, c.ID)
	metrics.ConnectedSessions.Dec()

	for group := range c.groups {
		h.removeFromGroupLocked(c.ID, group)
	}
	c.groups = nil

	h.closeClientLocked(c)
}

// JoinGroup implements presence.Transport.
func (h *Hub) JoinGroup(sessionID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[sessionID]
	if !ok {
		return
	}

	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[sessionID] = struct{}{}
	c.groups[group] = struct{}{}
}

// LeaveGroup implements presence.Transport.
func (h *Hub) LeaveGroup(sessionID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[sessionID]; ok {
		delete(c.groups, group)
	}
	h.removeFromGroupLocked(sessionID, group)
}

// Broadcast implements presence.Transport. The event is encoded once and queued for every
// member of the group; a member whose queue is full misses this event only.
func (h *Hub) Broadcast(group string, evt presence.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error().Err(err).Str("event", evt.Name).Msg("Failed to encode broadcast event.")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sessionID := range h.groups[group] {
		if c, ok := h.clients[sessionID]; ok {
			h.enqueueLocked(c, data)
		}
	}
}

// Send implements presence.Transport.
func (h *Hub) Send(sessionID string, evt presence.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error().Err(err).Str("event", evt.Name).Msg("Failed to encode event.")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.clients[sessionID]; ok {
		h.enqueueLocked(c, data)
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// GroupSize returns the number of sessions receiving broadcasts for group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.groups[group])
}

// Shutdown refuses new clients and closes the send queue of every registered client,
// which makes each write loop send a close frame and drop its connection. Read loops then
// fail and run the normal disconnect path.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, c := range h.clients {
		h.closeClientLocked(c)
	}

	h.logger.Info().Int("clients", len(h.clients)).Msg("Hub shut down, closing all sessions.")
}

// enqueueLocked queues data without blocking. h.mu must be held.
func (h *Hub) enqueueLocked(c *Client, data []byte) {
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		metrics.DeliveriesDropped.Inc()
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping event.")
	}
}

// removeFromGroupLocked drops sessionID from group, deleting empty groups. h.mu must be held for writing.
func (h *Hub) removeFromGroupLocked(sessionID, group string) {
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// closeClientLocked closes the client's send queue once. h.mu must be held for writing.
func (h *Hub) closeClientLocked(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
