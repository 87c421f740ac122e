/*
Package main is the entry point for the Arcade Live presence and chat server.

It loads configuration, initializes logging, wires the history cache, room registry,
WebSocket hub and optional chat database, serves HTTP, and on SIGINT or SIGTERM shuts
everything down in order: HTTP listener, live sessions, history writer, then the stores.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"arcadelive/internal/app/chatlog"
	"arcadelive/internal/app/db"
	"arcadelive/internal/app/history"
	"arcadelive/internal/app/presence"
	"arcadelive/internal/app/ws"
	"arcadelive/internal/configs"
	"arcadelive/internal/handler"
	"arcadelive/internal/pkg/logx"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("redis", cfg.RedisURL != "").
		Bool("database", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Recent chat history: Redis when configured, process memory otherwise.
	var store interface {
		presence.History
		handler.Pinger
	}
	if cfg.RedisURL != "" {
		redisStore, err := history.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logx.Fatal(err, "Failed to connect to Redis")
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		logx.Warn("REDIS_URL not set, keeping chat history in memory.")
		store = history.NewMemoryStore()
	}

	writer := presence.NewHistoryWriter(store, cfg.HistoryWorkers, cfg.HistoryQueueSize)
	hub := ws.NewHub()
	coordinator := presence.NewCoordinator(presence.NewRegistry(), hub, writer)

	deps := &handler.AppDeps{
		Config:      cfg,
		Hub:         hub,
		Coordinator: coordinator,
		History:     writer,
		Cache:       store,
	}

	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize database")
		}
		defer pool.Close()
		deps.Chat = chatlog.NewService(chatlog.NewRepository(pool))
	} else {
		logx.Warn("DATABASE_URL not set, chat persistence endpoints disabled.")
	}

	router, stopRouter := handler.Router(deps)
	defer stopRouter()

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logx.Info(fmt.Sprintf("Arcade Live server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logx.Info("Received shutdown signal. Starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)

		// Hijacked WebSocket connections are not tracked by the server.
		hub.Shutdown()
		writer.Close()

		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logx.Error(err, "Server stopped with error")
		return
	}

	logx.Info("Server gracefully stopped.")
}
