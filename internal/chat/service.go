package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/roomchat/internal/ai"
)

const defaultCallTimeout = 30 * time.Second

// Service runs a single prompt/reply exchange and records it.
type Service struct {
	repo      *Repo
	completer ai.Completer
	timeout   time.Duration
}

func NewService(repo *Repo, completer ai.Completer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Service{repo: repo, completer: completer, timeout: timeout}
}

func (s *Service) Repo() *Repo { return s.repo }

// Exchange calls the completer and appends exactly one row. Upstream
// failures are not returned: their text becomes the stored reply.
// Only storage errors surface to the caller. The row is written even when
// ctx is cancelled mid-call.
func (s *Service) Exchange(ctx context.Context, username string, roomID uint64, model, credential, prompt string) (*Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	reply, err := s.completer.Complete(callCtx, credential, model, prompt)
	cancel()
	if err != nil {
		reply = ReplyForError(err)
	}
	return s.repo.AppendMessage(context.WithoutCancel(ctx), username, roomID, model, prompt, reply)
}

// ReplyForError renders an adapter failure the way it is stored in the log:
// "[Error <status>] <body>" for HTTP errors, "[Exception] <detail>" otherwise.
func ReplyForError(err error) string {
	var httpErr *ai.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	var tErr *ai.TransportError
	if errors.As(err, &tErr) {
		return tErr.Error()
	}
	return "[Exception] " + err.Error()
}

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey != nil {
		k := strings.TrimSpace(*job.IdempotencyKey)
		job.IdempotencyKey = &k
	}
	return s.repo.CreateJobOrGetExisting(ctx, job)
}

// GetJob returns the job only if it belongs to username.
func (s *Service) GetJob(ctx context.Context, username, jobID string) (*Job, error) {
	job, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Username != username {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// RunJob performs the exchange for a queued job and records the outcome on
// the job row. The room must still exist and belong to the job's owner.
// ErrJobNotQueued means another delivery already claimed the job.
func (s *Service) RunJob(ctx context.Context, job *Job, credential string) (*Message, error) {
	if err := s.repo.UpdateJobStatusRunning(ctx, job.ID); err != nil {
		return nil, err
	}
	done := context.WithoutCancel(ctx)
	if _, err := s.repo.GetRoom(ctx, job.Username, job.RoomID); err != nil {
		_ = s.repo.MarkJobFailed(done, job.ID, err.Error())
		return nil, err
	}
	msg, err := s.Exchange(ctx, job.Username, job.RoomID, job.Model, credential, job.Prompt)
	if err != nil {
		_ = s.repo.MarkJobFailed(done, job.ID, err.Error())
		return nil, err
	}
	if err := s.repo.MarkJobSucceeded(done, job.ID, msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}
