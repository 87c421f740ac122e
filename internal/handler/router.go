/*
Package handler provides the HTTP handlers and routing setup for the live presence server.

This file defines the main Router, applying middleware like logging, CORS, identity extraction
and IP-based rate limiting before delegating requests to the API and WebSocket handlers.
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"arcadelive/internal/pkg/auth/jwt"
	"arcadelive/internal/pkg/limiter"
	"arcadelive/internal/pkg/logx"
	"arcadelive/internal/pkg/metrics"
	"arcadelive/internal/pkg/resp"
)

const (
	ConnectRate   = 0.2
	ConnectBurst  = 5
	ChatPostRate  = 1
	ChatPostBurst = 10
)

// healthCheckTimeout bounds the history store ping made by /health.
const healthCheckTimeout = time.Second

// Router sets up the main HTTP routing table for the application.
// The returned stop func ends the rate limiters' cleanup goroutines.
func Router(deps *AppDeps) (http.Handler, func()) {
	connectLimiter := limiter.New(rate.Limit(ConnectRate), ConnectBurst)
	chatPostLimiter := limiter.New(rate.Limit(ChatPostRate), ChatPostBurst)
	sessionChatLimiter := limiter.New(rate.Limit(deps.Config.ChatRate), deps.Config.ChatBurst)

	stop := func() {
		connectLimiter.Stop()
		chatPostLimiter.Stop()
		sessionChatLimiter.Stop()
	}

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":   "ok",
			"service":  "Arcade Live",
			"sessions": deps.Hub.Len(),
			"rooms":    deps.Coordinator.Registry().Rooms(),
		}

		if deps.Cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			data["history"] = "ok"
			if err := deps.Cache.Ping(ctx); err != nil {
				logx.Warn("Health check: history store unreachable.", "error", err.Error())
				data["status"] = "degraded"
				data["history"] = "unavailable"
			}
		}

		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/streams/{streamId}", func(stream chi.Router) {
			stream.Get("/viewers", HandleGetViewers(deps))
			stream.Get("/chat/recent", HandleGetRecentChat(deps))

			if deps.Chat == nil {
				return
			}

			stream.Get("/chat", HandleListChat(deps))
			stream.Group(func(authed chi.Router) {
				authed.Use(jwt.RequireIdentity)
				authed.With(chatPostLimiter.Middleware).Post("/chat", HandleCreateChat(deps))
				authed.Delete("/chat/{messageId}", HandleDeleteChat(deps))
			})
		})
	})

	r.With(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret)).
		Get("/ws", HandleWebSocket(deps, wsUpgrader, connectLimiter, sessionChatLimiter))

	return r, stop
}
