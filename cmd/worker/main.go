package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/suPer8Hu/roomchat/internal/ai"
	"github.com/suPer8Hu/roomchat/internal/chat"
	"github.com/suPer8Hu/roomchat/internal/config"
	"github.com/suPer8Hu/roomchat/internal/db"
	"github.com/suPer8Hu/roomchat/internal/session"
	"github.com/suPer8Hu/roomchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/roomchat/internal/store/redisstore"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := config.Load()
	if !cfg.RedisEnabled() {
		slog.Error("Worker needs SESSION_STORE=redis to read api keys")
		os.Exit(1)
	}

	gdb := db.Connect(cfg.DBDSN)
	repo := chat.NewRepo(gdb)
	client := ai.NewOpenRouterClient(cfg.OpenRouterBaseURL, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
	svc := chat.NewService(repo, client, cfg.ChatCallTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	sessions := redisstore.NewSessionStore(rdb, cfg.SessionTTL)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, cfg.WorkerConcurrency)
	if err != nil {
		slog.Error("Failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.Run(ctx, func(ctx context.Context, m rabbitmq.JobMessage) error {
		return handleJob(ctx, svc, repo, sessions, m.JobID)
	})
	if err != nil {
		slog.Error("Worker stopped", "error", err)
		os.Exit(1)
	}
}

// handleJob runs a queued send with the credential currently held by the
// job's session. A logged out or expired session fails the job.
func handleJob(ctx context.Context, svc *chat.Service, repo *chat.Repo, sessions session.Store, jobID string) error {
	job, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != chat.JobQueued {
		slog.Info("Skipping job", "job_id", jobID, "status", job.Status)
		return nil
	}

	sess, err := sessions.Load(ctx, job.SessionID)
	if err == nil && (!sess.LoggedIn || sess.Username != job.Username) {
		err = session.ErrNotAuthenticated
	}
	if err == nil && sess.APIKey == "" {
		err = session.ErrMissingCredential
	}
	if err != nil {
		_ = repo.MarkJobFailed(ctx, jobID, err.Error())
		return fmt.Errorf("job %s: %w", jobID, err)
	}

	msg, err := svc.RunJob(ctx, job, sess.APIKey)
	if errors.Is(err, chat.ErrJobNotQueued) {
		slog.Info("Skipping job", "job_id", jobID, "reason", "already claimed")
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Job done", "job_id", jobID, "message_id", msg.ID, "room_id", job.RoomID)
	return nil
}
