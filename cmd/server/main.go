package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suPer8Hu/roomchat/internal/account"
	"github.com/suPer8Hu/roomchat/internal/ai"
	"github.com/suPer8Hu/roomchat/internal/chat"
	"github.com/suPer8Hu/roomchat/internal/config"
	"github.com/suPer8Hu/roomchat/internal/db"
	"github.com/suPer8Hu/roomchat/internal/httpapi"
	"github.com/suPer8Hu/roomchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/roomchat/internal/session"
	"github.com/suPer8Hu/roomchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/roomchat/internal/store/redisstore"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.Load()
	slog.Info("Starting server", "port", cfg.Port, "session_store", cfg.SessionStore, "async", cfg.AsyncEnabled)

	gdb := db.Connect(cfg.DBDSN)

	catalog := ai.DefaultCatalog()
	if _, err := catalog.Lookup(cfg.DefaultModel); err != nil {
		catalog.Register(ai.Model{ID: cfg.DefaultModel})
	}

	client := ai.NewOpenRouterClient(cfg.OpenRouterBaseURL, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
	svc := chat.NewService(chat.NewRepo(gdb), client, cfg.ChatCallTimeout)
	ctrl := session.NewController(account.NewStore(gdb), svc, catalog)

	var sessions session.Store = session.NewMemoryStore(cfg.SessionTTL)
	if cfg.RedisEnabled() {
		rdb, err := redisstore.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		sessions = redisstore.NewSessionStore(rdb, cfg.SessionTTL)
		ctrl.WithLockout(redisstore.NewLoginLockout(rdb))
		slog.Info("Redis connected", "addr", cfg.RedisAddr)
	}

	// the worker reads the api key from the shared session store
	var jobs handlers.JobPublisher
	switch {
	case cfg.AsyncEnabled && !cfg.RedisEnabled():
		slog.Warn("ASYNC_ENABLED needs SESSION_STORE=redis, async send disabled")
	case cfg.AsyncEnabled:
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			slog.Error("Failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		jobs = pub
	}

	h := handlers.NewHandler(cfg, ctrl, sessions, jobs)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// sends wait on the upstream model
		WriteTimeout: cfg.ChatCallTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
