package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/roomchat/internal/ai"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeCompleter struct {
	reply string
	err   error

	calls      int
	credential string
	model      string
	prompt     string
	deadline   bool
}

func (f *fakeCompleter) Complete(ctx context.Context, credential, model, prompt string) (string, error) {
	f.calls++
	f.credential, f.model, f.prompt = credential, model, prompt
	_, f.deadline = ctx.Deadline()
	return f.reply, f.err
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "chat.db")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Room{}, &Message{}, &Job{}))
	return db
}

func newTestService(t *testing.T, c ai.Completer) (*Service, *Repo) {
	t.Helper()
	repo := NewRepo(openTestDB(t))
	return NewService(repo, c, time.Second), repo
}

func TestExchange_StoresReply(t *testing.T) {
	fc := &fakeCompleter{reply: "hi there"}
	svc, repo := newTestService(t, fc)
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)

	msg, err := svc.Exchange(ctx, "alice", room.ID, ai.DefaultModel, "key", "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, fc.calls)
	assert.True(t, fc.deadline)
	assert.Equal(t, "key", fc.credential)
	assert.Equal(t, "hello", msg.Prompt)
	assert.Equal(t, "hi there", msg.Reply)

	hist, err := repo.History(ctx, "alice", room.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, ai.DefaultModel, hist[0].Model)
}

func TestExchange_HTTPErrorBecomesReply(t *testing.T) {
	fc := &fakeCompleter{err: &ai.HTTPError{Status: 401, Body: "unauthorized"}}
	svc, repo := newTestService(t, fc)
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)

	msg, err := svc.Exchange(ctx, "alice", room.ID, "m", "key", "hello")
	require.NoError(t, err)
	assert.Equal(t, "[Error 401] unauthorized", msg.Reply)
}

func TestExchange_TransportErrorBecomesReply(t *testing.T) {
	fc := &fakeCompleter{err: &ai.TransportError{Detail: "dial tcp: refused"}}
	svc, repo := newTestService(t, fc)
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)

	msg, err := svc.Exchange(ctx, "alice", room.ID, "m", "key", "hello")
	require.NoError(t, err)
	assert.Equal(t, "[Exception] dial tcp: refused", msg.Reply)
}

// cancellingCompleter cancels the caller's context mid-call, the way a
// client disconnect does, and fails like the adapter would.
type cancellingCompleter struct {
	cancel context.CancelFunc
}

func (c *cancellingCompleter) Complete(ctx context.Context, credential, model, prompt string) (string, error) {
	c.cancel()
	<-ctx.Done()
	return "", &ai.TransportError{Detail: ctx.Err().Error(), Err: ctx.Err()}
}

func TestExchange_CancelledCallStillStoresRow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, repo := newTestService(t, &cancellingCompleter{cancel: cancel})

	room, err := repo.CreateRoom(context.Background(), "alice", "General")
	require.NoError(t, err)

	msg, err := svc.Exchange(ctx, "alice", room.ID, "m", "key", "hello")
	require.NoError(t, err)
	assert.Equal(t, "[Exception] context canceled", msg.Reply)

	hist, err := repo.History(context.Background(), "alice", room.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "hello", hist[0].Prompt)
	assert.Equal(t, "[Exception] context canceled", hist[0].Reply)
}

func TestReplyForError_PlainError(t *testing.T) {
	assert.Equal(t, "[Exception] boom", ReplyForError(errors.New("boom")))
}

func TestRunJob(t *testing.T) {
	fc := &fakeCompleter{reply: "done"}
	svc, repo := newTestService(t, fc)
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)

	job := &Job{ID: "01JOB0000000000000000000AA", Username: "alice", SessionID: "s1", RoomID: room.ID, Model: "m", Prompt: "p", Status: JobQueued}
	_, created, err := svc.CreateJobOrGetExisting(ctx, job)
	require.NoError(t, err)
	require.True(t, created)

	msg, err := svc.RunJob(ctx, job, "key")
	require.NoError(t, err)

	got, err := svc.GetJob(ctx, "alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobSucceeded, got.Status)
	require.NotNil(t, got.ResultMessageID)
	assert.Equal(t, msg.ID, *got.ResultMessageID)

	_, err = svc.GetJob(ctx, "bob", job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunJob_SecondDeliverySkipped(t *testing.T) {
	fc := &fakeCompleter{reply: "done"}
	svc, repo := newTestService(t, fc)
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)
	job := &Job{ID: "01JOB0000000000000000000AE", Username: "alice", SessionID: "s1", RoomID: room.ID, Model: "m", Prompt: "p", Status: JobQueued}
	_, _, err = svc.CreateJobOrGetExisting(ctx, job)
	require.NoError(t, err)

	_, err = svc.RunJob(ctx, job, "key")
	require.NoError(t, err)

	_, err = svc.RunJob(ctx, job, "key")
	assert.ErrorIs(t, err, ErrJobNotQueued)
	assert.Equal(t, 1, fc.calls)

	hist, err := repo.History(ctx, "alice", room.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	got, err := repo.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobSucceeded, got.Status)
}

func TestRunJob_RoomGone(t *testing.T) {
	fc := &fakeCompleter{reply: "done"}
	svc, repo := newTestService(t, fc)
	ctx := context.Background()

	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)
	job := &Job{ID: "01JOB0000000000000000000AB", Username: "alice", SessionID: "s1", RoomID: room.ID, Model: "m", Prompt: "p", Status: JobQueued}
	_, created, err := svc.CreateJobOrGetExisting(ctx, job)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, repo.DeleteRoom(ctx, room.ID))

	_, err = svc.RunJob(ctx, job, "key")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 0, fc.calls)

	got, err := repo.GetJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
}

func TestCreateJobOrGetExisting_Idempotent(t *testing.T) {
	svc, repo := newTestService(t, &fakeCompleter{})
	ctx := context.Background()
	room, err := repo.CreateRoom(ctx, "alice", "General")
	require.NoError(t, err)

	key := "k-1"
	first := &Job{ID: "01JOB0000000000000000000AC", Username: "alice", SessionID: "s1", RoomID: room.ID, Model: "m", Prompt: "p", Status: JobQueued, IdempotencyKey: &key}
	_, created, err := svc.CreateJobOrGetExisting(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	key2 := "k-1"
	second := &Job{ID: "01JOB0000000000000000000AD", Username: "alice", SessionID: "s1", RoomID: room.ID, Model: "m", Prompt: "p", Status: JobQueued, IdempotencyKey: &key2}
	got, created, err := svc.CreateJobOrGetExisting(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, got.ID)
}
