package ws

import (
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"arcadelive/internal/app/presence"
	"arcadelive/internal/pkg/errs"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/metrics"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// sendBufferSize is the number of outbound events queued per client before drops.
	sendBufferSize = 256

	// MaxMessageLength is the maximum chat message length in characters.
	MaxMessageLength = 500
)

// Client is one WebSocket session.
type Client struct {
	// ID is the session id, unique per connection.
	ID string

	// UserID is the authenticated user id, empty for anonymous sessions.
	UserID string

	hub     *Hub
	conn    *websocket.Conn
	handler EventHandler

	// chatLimit throttles chat_message events; nil disables throttling.
	chatLimit *rate.Limiter

	// send queues encoded events for WritePump. Closed by the hub.
	send chan []byte

	// groups and closed are guarded by hub.mu.
	groups map[string]struct{}
	closed bool

	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, handler EventHandler, sessionID, userID string, chatLimit *rate.Limiter) *Client {
	return &Client{
		ID:        sessionID,
		UserID:    userID,
		hub:       hub,
		conn:      conn,
		handler:   handler,
		chatLimit: chatLimit,
		send:      make(chan []byte, sendBufferSize),
		groups:    make(map[string]struct{}),
		logger: logx.Logger().With().
			Str("session_id", sessionID).
			Str("user_id", userID).
			Logger(),
	}
}

// ReadPump reads events until the connection fails or closes, then reports the disconnect
// to the handler, unregisters the client and closes the connection.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(data)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.handler.OnDisconnect(c.ID)
	c.hub.Unregister(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}

	c.logger.Info().Msg("Client disconnected.")
}

// processInboundMessage decodes one frame and dispatches it. Malformed frames are logged
// and dropped.
func (c *Client) processInboundMessage(data []byte) {
	var evt inboundEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.malformed("invalid_json", err)
		return
	}

	switch evt.Name {
	case EventJoinStream:
		var ref streamRef
		if err := json.Unmarshal(evt.Data, &ref); err != nil {
			c.malformed("invalid_payload", err)
			return
		}
		c.handler.OnJoin(c.ID, ref.StreamID.String())

	case EventLeaveStream:
		var ref streamRef
		if err := json.Unmarshal(evt.Data, &ref); err != nil {
			c.malformed("invalid_payload", err)
			return
		}
		c.handler.OnLeave(c.ID, ref.StreamID.String())

	case EventChatMessage:
		c.handleChat(evt.Data)

	default:
		metrics.DroppedEvents.WithLabelValues("unknown_event").Inc()
		c.logger.Warn().Str("event", evt.Name).Msg("Client sent unsupported event")
		c.SendError(errs.NewError(errs.ErrUnknownEvent))
	}
}

func (c *Client) handleChat(raw json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.malformed("invalid_payload", err)
		return
	}

	if utf8.RuneCountInString(payload.Message) > MaxMessageLength {
		metrics.DroppedEvents.WithLabelValues("message_too_long").Inc()
		c.SendError(errs.NewError(errs.ErrMessageTooLong, MaxMessageLength))
		return
	}

	if c.chatLimit != nil && !c.chatLimit.Allow() {
		metrics.DroppedEvents.WithLabelValues("rate_limited").Inc()
		c.SendError(errs.NewError(errs.ErrRateLimitExceeded))
		return
	}

	in := payload.input()
	if in.UserID == "" {
		in.UserID = c.UserID
	}

	c.handler.OnChatMessage(c.ID, in)
}

func (c *Client) malformed(reason string, err error) {
	metrics.DroppedEvents.WithLabelValues(reason).Inc()
	c.logger.Warn().Err(err).Str("reason", reason).Msg("Client sent malformed event")
}

// SendError queues an error event for this client only.
func (c *Client) SendError(err *errs.CustomError) {
	c.hub.Send(c.ID, presence.NewErrorEvent(err.Code, err.Message))
}

// WritePump writes queued events and periodic pings until the send queue is closed or a
// write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage reports whether WritePump should continue.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
