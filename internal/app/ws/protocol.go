package ws

import (
	"bytes"
	"encoding/json"

	"arcadelive/internal/app/presence"
)

// Inbound event names.
const (
	EventJoinStream  = "join_stream"
	EventLeaveStream = "leave_stream"
	EventChatMessage = "chat_message"
)

// EventHandler receives the decoded events of every session, one event at a time per session.
type EventHandler interface {
	OnConnect(sessionID string)
	OnJoin(sessionID, streamID string)
	OnLeave(sessionID, streamID string)
	OnChatMessage(sessionID string, in presence.ChatInput)
	OnDisconnect(sessionID string)
}

// inboundEvent is the envelope read from clients, mirroring presence.Event.
type inboundEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// streamRef is the payload of join_stream and leave_stream. Clients may send either
// {"streamId": 42} or the bare id.
type streamRef struct {
	StreamID presence.LooseID `json:"streamId"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *streamRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain streamRef
		return json.Unmarshal(data, (*plain)(s))
	}
	return json.Unmarshal(data, &s.StreamID)
}

// chatPayload is the payload of chat_message.
type chatPayload struct {
	StreamID presence.LooseID `json:"streamId"`
	UserID   presence.LooseID `json:"userId"`
	Username string           `json:"username"`
	Avatar   string           `json:"avatar"`
	Message  string           `json:"message"`
}

func (p chatPayload) input() presence.ChatInput {
	return presence.ChatInput{
		StreamID: p.StreamID.String(),
		UserID:   p.UserID.String(),
		Username: p.Username,
		Avatar:   p.Avatar,
		Message:  p.Message,
	}
}
