package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arcadelive/internal/app/ws"
	"arcadelive/internal/pkg/auth/jwt"
	"arcadelive/internal/pkg/errs"
	"arcadelive/internal/pkg/limiter"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/randx"
	"arcadelive/internal/pkg/resp"
)

// HandleWebSocket upgrades the request and runs the session until it disconnects.
// An optional token query parameter attaches a user id to the session and an invalid one is
// rejected before the upgrade. Without it, the identity from a Bearer Authorization header is used.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, connectLimiter, chatLimiter *limiter.KeyedLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !connectLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		var userID string
		if token := r.URL.Query().Get("token"); token != "" {
			payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
			if err != nil {
				logx.Warn("WebSocket connection rejected: Invalid token.", "error", err.Error())
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}
			userID = payload.UserID
		} else if payload := jwt.GetPayloadFromContext(r); payload != nil {
			userID = payload.UserID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error())
			return
		}

		sessionID := randx.SessionID()
		client := ws.NewClient(deps.Hub, conn, deps.Coordinator, sessionID, userID, chatLimiter.Get(sessionID))
		defer chatLimiter.Forget(sessionID)

		if !deps.Hub.Register(client) {
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}

		deps.Coordinator.OnConnect(sessionID)

		logx.Info("WebSocket connection established", "session_id", sessionID, "user_id", userID)

		go client.WritePump()
		client.ReadPump()
	}
}
