package handler

import (
	"context"

	"arcadelive/internal/app/chatlog"
	"arcadelive/internal/app/presence"
	"arcadelive/internal/app/ws"
	"arcadelive/internal/configs"
)

// AppDeps carries the components the HTTP layer is wired to.
type AppDeps struct {
	Config      *configs.AppConfig
	Hub         *ws.Hub
	Coordinator *presence.Coordinator
	History     *presence.HistoryWriter

	// Cache is the recent-history store behind History, checked by /health. Nil skips the check.
	Cache Pinger

	// Chat is nil when no database is configured; the chat persistence routes are then not mounted.
	Chat *chatlog.Service
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
