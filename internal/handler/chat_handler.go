package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"arcadelive/internal/app/chatlog"
	"arcadelive/internal/pkg/auth/jwt"
	"arcadelive/internal/pkg/errs"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/req"
	"arcadelive/internal/pkg/resp"
)

// CreateChatInput is the body of POST /api/streams/{streamId}/chat.
type CreateChatInput struct {
	Message string          `json:"message"`
	Emotes  json.RawMessage `json:"emotes,omitempty"`
}

// ChatPageMeta is the pagination metadata of a chat listing.
type ChatPageMeta struct {
	StreamID int64 `json:"streamId"`
	Count    int   `json:"count"`
	HasMore  bool  `json:"hasMore"`
}

// HandleListChat returns persisted chat messages in chronological order.
// Query: limit (default 50, max 100) and before (message id cursor).
func HandleListChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamID, ok := parseID(chi.URLParam(r, "streamId"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidStreamID))
			return
		}

		limit := req.QueryInt(r, "limit", chatlog.DefaultLimit)
		before, _ := req.QueryInt64(r, "before")

		page, err := deps.Chat.List(r.Context(), streamID, limit, before)
		if err != nil {
			respondChatError(w, r, err, "Failed to list chat messages")
			return
		}

		resp.RespondPage(w, r, page.Messages, ChatPageMeta{
			StreamID: streamID,
			Count:    len(page.Messages),
			HasMore:  page.HasMore,
		})
	}
}

// HandleCreateChat stores a chat message from the authenticated user.
func HandleCreateChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamID, ok := parseID(chi.URLParam(r, "streamId"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidStreamID))
			return
		}

		var input CreateChatInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		identity := jwt.GetPayloadFromContext(r)

		msg, err := deps.Chat.Create(r.Context(), streamID, identity.UserID, input.Message, input.Emotes)
		if err != nil {
			respondChatError(w, r, err, "Failed to create chat message")
			return
		}

		resp.RespondCreated(w, r, msg)
	}
}

// HandleDeleteChat soft-deletes a message when the caller sent it or owns the stream.
func HandleDeleteChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamID, ok := parseID(chi.URLParam(r, "streamId"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidStreamID))
			return
		}

		messageID, ok := parseID(chi.URLParam(r, "messageId"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		identity := jwt.GetPayloadFromContext(r)

		if err := deps.Chat.Delete(r.Context(), streamID, messageID, identity.UserID); err != nil {
			respondChatError(w, r, err, "Failed to delete chat message")
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"id": messageID, "deleted": true})
	}
}

// respondChatError sends business errors as they are and logs anything else as ErrUnknown.
func respondChatError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		resp.RespondError(w, r, customErr)
		return
	}

	logx.Error(err, msg, "path", r.URL.Path)
	resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
}

// parseID parses a positive decimal id.
func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
