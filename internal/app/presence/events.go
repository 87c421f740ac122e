package presence

// Outbound event names.
const (
	EventViewerCount = "viewer_count"
	EventNewMessage  = "new_message"
	EventChatHistory = "chat_history"
	EventError       = "error"
)

// Event is the envelope written to every recipient.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// ViewerCount is the payload of viewer_count.
type ViewerCount struct {
	StreamID string `json:"streamId"`
	Count    int    `json:"count"`
}

// ChatMessage is the payload of new_message and the unit stored in recent history.
type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Avatar    string `json:"avatar"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ChatHistory is the payload of chat_history, sent only to a session that just joined.
type ChatHistory struct {
	StreamID string        `json:"streamId"`
	Messages []ChatMessage `json:"messages"`
}

// ErrorPayload is the payload of error, sent only to the offending session.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ChatInput is an inbound chat_message. Username and Avatar are display hints supplied by
// the client and are not verified.
type ChatInput struct {
	StreamID string
	UserID   string
	Username string
	Avatar   string
	Message  string
}

// NewViewerCountEvent builds a viewer_count event.
func NewViewerCountEvent(streamID string, count int) Event {
	return Event{Name: EventViewerCount, Data: ViewerCount{StreamID: streamID, Count: count}}
}

// NewMessageEvent builds a new_message event.
func NewMessageEvent(msg ChatMessage) Event {
	return Event{Name: EventNewMessage, Data: msg}
}

// NewErrorEvent builds an error event.
func NewErrorEvent(code int, message string) Event {
	return Event{Name: EventError, Data: ErrorPayload{Code: code, Message: message}}
}
