package presence

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/metrics"
	"arcadelive/internal/pkg/randx"
)

// Transport is the fan-out capability of the connection layer. Groups are keyed by stream id.
// Sends are best effort: a dead or slow recipient is skipped without affecting the others.
type Transport interface {
	JoinGroup(sessionID, group string)
	LeaveGroup(sessionID, group string)
	Broadcast(group string, evt Event)
	Send(sessionID string, evt Event)
}

// Coordinator reacts to session events, mutates the Registry and emits broadcasts.
// A transport calls it from each session's read loop, one event at a time per session,
// so a session's own actions are processed and broadcast in the order they arrived.
type Coordinator struct {
	registry  *Registry
	transport Transport
	history   *HistoryWriter

	now   func() time.Time
	newID func(time.Time) string

	logger zerolog.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDGenerator overrides the chat message id generator.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(c *Coordinator) { c.newID = gen }
}

// NewCoordinator wires a Coordinator. history may be nil to disable recent history.
func NewCoordinator(registry *Registry, transport Transport, history *HistoryWriter, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:  registry,
		transport: transport,
		history:   history,
		now:       time.Now,
		newID:     randx.MessageID,
		logger:    logx.Component("Coordinator"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Registry returns the coordinator's room registry for read-only queries.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// OnConnect records a newly connected session.
func (c *Coordinator) OnConnect(sessionID string) {
	c.registry.Track(sessionID)
	c.logger.Debug().Str("session_id", sessionID).Msg("Session connected.")
}

// OnJoin adds the session to the stream's room, then broadcasts the new viewer count to
// the room, the joiner included. Rejoining still broadcasts. The joiner then receives the
// room's recent history when there is any.
func (c *Coordinator) OnJoin(sessionID, streamID string) {
	streamID = NormalizeStreamID(streamID)
	if streamID == "" {
		c.drop(sessionID, "missing_stream_id", "join_stream without streamId dropped.")
		return
	}

	count := c.registry.Join(streamID, sessionID)
	metrics.ActiveRooms.Set(float64(c.registry.Rooms()))

	c.transport.JoinGroup(sessionID, streamID)
	c.broadcastCount(streamID)

	c.logger.Info().
		Str("session_id", sessionID).
		Str("stream_id", streamID).
		Int("viewers", count).
		Msg("Session joined stream.")

	c.backfill(sessionID, streamID)
}

// OnLeave removes the session from the stream's room and broadcasts the new count to the
// room before detaching the session from the group.
func (c *Coordinator) OnLeave(sessionID, streamID string) {
	streamID = NormalizeStreamID(streamID)
	if streamID == "" {
		c.drop(sessionID, "missing_stream_id", "leave_stream without streamId dropped.")
		return
	}

	count := c.registry.Leave(streamID, sessionID)
	metrics.ActiveRooms.Set(float64(c.registry.Rooms()))

	c.broadcastCount(streamID)
	c.transport.LeaveGroup(sessionID, streamID)

	c.logger.Info().
		Str("session_id", sessionID).
		Str("stream_id", streamID).
		Int("viewers", count).
		Msg("Session left stream.")
}

// OnChatMessage broadcasts a chat message to the stream's room and queues it for the
// room's recent history. History failures never reach the sender.
func (c *Coordinator) OnChatMessage(sessionID string, in ChatInput) {
	streamID := NormalizeStreamID(in.StreamID)
	if streamID == "" {
		c.drop(sessionID, "missing_stream_id", "chat_message without streamId dropped.")
		return
	}

	text := strings.TrimSpace(in.Message)
	if text == "" {
		c.drop(sessionID, "empty_message", "Empty chat_message dropped.")
		return
	}

	now := c.now().UTC()
	msg := ChatMessage{
		ID:        c.newID(now),
		UserID:    in.UserID,
		Username:  in.Username,
		Avatar:    in.Avatar,
		Message:   text,
		Timestamp: now.Format("2006-01-02T15:04:05.000Z07:00"),
	}

	c.transport.Broadcast(streamID, NewMessageEvent(msg))
	metrics.ChatMessages.Inc()

	if c.history != nil {
		c.history.Dispatch(streamID, msg)
	}

	c.logger.Debug().
		Str("session_id", sessionID).
		Str("stream_id", streamID).
		Str("message_id", msg.ID).
		Msg("Chat message broadcast.")
}

// OnDisconnect removes the session from every room it joined and broadcasts each room's
// new count. It is safe for sessions that never joined anything or were never tracked.
func (c *Coordinator) OnDisconnect(sessionID string) {
	counts := c.registry.LeaveAll(sessionID)
	metrics.ActiveRooms.Set(float64(c.registry.Rooms()))

	for _, rc := range counts {
		c.broadcastCount(rc.StreamID)
		c.transport.LeaveGroup(sessionID, rc.StreamID)
	}

	c.logger.Debug().
		Str("session_id", sessionID).
		Int("rooms_left", len(counts)).
		Msg("Session disconnected.")
}

// broadcastCount sends the room's count as of the broadcast. Broadcasts run outside the
// registry lock, so counts from concurrent changes to one room may arrive out of order.
func (c *Coordinator) broadcastCount(streamID string) {
	c.transport.Broadcast(streamID, NewViewerCountEvent(streamID, c.registry.Count(streamID)))
	metrics.ViewerCountBroadcasts.Inc()
}

// backfill sends the room's recent history to the joiner once pending appends are applied.
func (c *Coordinator) backfill(sessionID, streamID string) {
	if c.history == nil {
		return
	}

	queued := c.history.Load(streamID, func(msgs []ChatMessage, err error) {
		if err != nil {
			c.logger.Warn().Err(err).Str("stream_id", streamID).Msg("History backfill skipped, cache read failed.")
			return
		}
		if len(msgs) == 0 {
			return
		}
		c.transport.Send(sessionID, Event{
			Name: EventChatHistory,
			Data: ChatHistory{StreamID: streamID, Messages: msgs},
		})
	})

	if !queued {
		c.logger.Debug().Str("stream_id", streamID).Msg("History backfill skipped, queue full.")
	}
}

func (c *Coordinator) drop(sessionID, reason, msg string) {
	metrics.DroppedEvents.WithLabelValues(reason).Inc()
	c.logger.Warn().Str("session_id", sessionID).Str("reason", reason).Msg(msg)
}
