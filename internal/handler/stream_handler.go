package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arcadelive/internal/app/presence"
	"arcadelive/internal/pkg/errs"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/resp"
)

// recentChatTimeout bounds the history cache read of HandleGetRecentChat.
const recentChatTimeout = 2 * time.Second

// HandleGetViewers returns the live viewer count of a stream.
func HandleGetViewers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamID := presence.NormalizeStreamID(chi.URLParam(r, "streamId"))
		if streamID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidStreamID))
			return
		}

		resp.RespondSuccess(w, r, presence.ViewerCount{
			StreamID: streamID,
			Count:    deps.Coordinator.Registry().Count(streamID),
		})
	}
}

// HandleGetRecentChat returns the recent real-time chat history of a stream.
func HandleGetRecentChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamID := presence.NormalizeStreamID(chi.URLParam(r, "streamId"))
		if streamID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidStreamID))
			return
		}

		msgs := []presence.ChatMessage{}
		if deps.History != nil {
			ctx, cancel := context.WithTimeout(r.Context(), recentChatTimeout)
			defer cancel()

			recent, err := deps.History.Recent(ctx, streamID)
			if err != nil {
				logx.Error(err, "Failed to read recent chat history", "stream_id", streamID)
				resp.RespondError(w, r, errs.NewError(errs.ErrHistoryUnavailable))
				return
			}
			if recent != nil {
				msgs = recent
			}
		}

		resp.RespondSuccess(w, r, presence.ChatHistory{StreamID: streamID, Messages: msgs})
	}
}
