package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/suPer8Hu/roomchat/internal/common"
	"gorm.io/gorm"
)

type Repo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// CreateRoom inserts a room for username. The name is trimmed first.
func (r *Repo) CreateRoom(ctx context.Context, username, name string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	room := &Room{Username: username, Name: name}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&Room{}).
			Where("username = ? AND room_name = ?", username, name).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrDuplicateName
		}
		return tx.Create(room).Error
	})
	if common.IsUniqueViolation(err) {
		return nil, ErrDuplicateName
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ListRooms returns the user's rooms in creation order.
func (r *Repo) ListRooms(ctx context.Context, username string) ([]Room, error) {
	var rooms []Room
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("id ASC").
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// GetRoom returns the room if it exists and belongs to username.
func (r *Repo) GetRoom(ctx context.Context, username string, roomID uint64) (*Room, error) {
	var room Room
	err := r.db.WithContext(ctx).
		Where("id = ? AND username = ?", roomID, username).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoom removes the room and every message in it in one transaction.
// sqlite lock contention is retried with exponential backoff.
func (r *Repo) DeleteRoom(ctx context.Context, roomID uint64) error {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = r.deleteRoomOnce(ctx, roomID)
		if err == nil || !common.IsBusy(err) {
			return err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("DeleteRoom hit a locked database, retrying", "room_id", roomID, "attempt", i+1, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}

func (r *Repo) deleteRoomOnce(ctx context.Context, roomID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", roomID).Delete(&Room{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}

// AppendMessage stores one exchange. Room ownership is the caller's job.
func (r *Repo) AppendMessage(ctx context.Context, username string, roomID uint64, model, prompt, reply string) (*Message, error) {
	m := &Message{
		Username:  username,
		RoomID:    roomID,
		Model:     model,
		Prompt:    prompt,
		Reply:     reply,
		Timestamp: r.now().Format(time.RFC3339Nano),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// History returns the room transcript in insertion order.
func (r *Repo) History(ctx context.Context, username string, roomID uint64) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("username = ? AND room_id = ?", username, roomID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// ClearHistory deletes every message for username in roomID.
func (r *Repo) ClearHistory(ctx context.Context, username string, roomID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("username = ? AND room_id = ?", username, roomID).
		Delete(&Message{})
	return res.RowsAffected, res.Error
}

// Job CRUD
func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateJobStatusRunning claims a queued job. It returns ErrJobNotQueued
// when the job is missing or already past queued.
func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotQueued
	}
	return nil
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string, messageID uint64) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobSucceeded,
			"result_message_id": messageID,
			"error":             nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            JobFailed,
			"error":             errMsg,
			"result_message_id": nil,
		}).Error
}

func (r *Repo) GetJobByUserAndIdempotencyKey(ctx context.Context, username string, key string) (*Job, error) {
	var job Job
	err := r.db.WithContext(ctx).
		Where("username = ? AND idempotency_key = ?", username, key).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJobOrGetExisting creates a job, or returns the existing one when
// (username, idempotency_key) is already taken.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.GetJobByUserAndIdempotencyKey(ctx, job.Username, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}

	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}
