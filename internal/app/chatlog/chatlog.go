/*
Package chatlog persists stream chat posted over HTTP.

This path is independent from the real-time fan-out: messages stored here are not broadcast,
and messages broadcast over WebSocket are not stored here.
*/
package chatlog

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"arcadelive/internal/pkg/errs"
)

const (
	// DefaultLimit is the page size used when the caller does not pass one.
	DefaultLimit = 50

	// MaxLimit caps the page size.
	MaxLimit = 100

	// MaxMessageLength is the maximum message length in characters.
	MaxMessageLength = 500
)

// Message is a persisted chat message.
type Message struct {
	ID        int64           `json:"id"`
	StreamID  int64           `json:"streamId"`
	UserID    string          `json:"userId"`
	Message   string          `json:"message"`
	Emotes    json.RawMessage `json:"emotes"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store is the persistence backend of a Service.
type Store interface {
	// List returns up to limit non-deleted messages of the stream with id below before
	// (0 means no cursor), newest first.
	List(ctx context.Context, streamID int64, limit int, before int64) ([]Message, error)

	// Insert stores a validated message.
	Insert(ctx context.Context, streamID int64, userID, message string, emotes json.RawMessage) (Message, error)

	// SoftDelete flags the message deleted when userID sent it or owns the stream.
	// It returns false when no row matched.
	SoftDelete(ctx context.Context, streamID, messageID int64, userID string) (bool, error)
}

// Page is one page of chat history in chronological order.
type Page struct {
	Messages []Message
	HasMore  bool
}

// Service validates chat requests and delegates to a Store.
type Service struct {
	store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the page of messages older than before, oldest first.
func (s *Service) List(ctx context.Context, streamID int64, limit int, before int64) (Page, error) {
	limit = NormalizeLimit(limit)

	msgs, err := s.store.List(ctx, streamID, limit, before)
	if err != nil {
		return Page{}, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []Message{}
	}

	return Page{Messages: msgs, HasMore: len(msgs) == limit}, nil
}

// Create validates and stores a message from userID.
func (s *Service) Create(ctx context.Context, streamID int64, userID, message string, emotes json.RawMessage) (Message, error) {
	if userID == "" {
		return Message{}, errs.NewError(errs.ErrUnauthorized)
	}

	text, customErr := ValidateMessage(message)
	if customErr != nil {
		return Message{}, customErr
	}

	emotes, customErr = NormalizeEmotes(emotes)
	if customErr != nil {
		return Message{}, customErr
	}

	return s.store.Insert(ctx, streamID, userID, text, emotes)
}

// Delete soft-deletes a message. Only the sender or the stream owner may delete; any other
// caller, or a missing message, gets ErrMessageDeleteForbidden.
func (s *Service) Delete(ctx context.Context, streamID, messageID int64, userID string) error {
	if userID == "" {
		return errs.NewError(errs.ErrUnauthorized)
	}

	ok, err := s.store.SoftDelete(ctx, streamID, messageID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NewError(errs.ErrMessageDeleteForbidden)
	}
	return nil
}

// NormalizeLimit clamps a requested page size to 1..MaxLimit, defaulting to DefaultLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ValidateMessage trims message and checks its length.
func ValidateMessage(message string) (string, *errs.CustomError) {
	text := strings.TrimSpace(message)
	if text == "" {
		return "", errs.NewError(errs.ErrMessageEmpty)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", errs.NewError(errs.ErrMessageTooLong, MaxMessageLength)
	}
	return text, nil
}

// NormalizeEmotes returns emotes as a JSON array, defaulting to an empty one.
func NormalizeEmotes(emotes json.RawMessage) (json.RawMessage, *errs.CustomError) {
	trimmed := strings.TrimSpace(string(emotes))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("[]"), nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}
	return json.RawMessage(trimmed), nil
}
