package redisstore

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/roomchat/internal/session"
)

const (
	lockoutKeyPrefix  = "lockout:"
	lockoutTTL        = 25 * time.Hour // auto-cleanup
	failThreshold     = 3
	maxLockoutMinutes = 24 * 60
)

// LoginLockout locks a username after every failThreshold consecutive
// failures. Redis errors fail open.
type LoginLockout struct {
	rdb *redis.Client
	now func() time.Time
}

var _ session.Lockout = (*LoginLockout)(nil)

func NewLoginLockout(rdb *redis.Client) *LoginLockout {
	return &LoginLockout{rdb: rdb, now: time.Now}
}

// lockoutDuration is 15 min at the first tier and doubles per tier,
// capped at 24h.
func lockoutDuration(failCount int) time.Duration {
	tier := failCount / failThreshold
	if tier <= 0 {
		return 0
	}
	if tier > 8 {
		tier = 8
	}
	minutes := 15 * (1 << (tier - 1))
	if minutes > maxLockoutMinutes {
		minutes = maxLockoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (lo *LoginLockout) IsLocked(ctx context.Context, username string) (bool, time.Duration) {
	lockedUntil, err := lo.rdb.HGet(ctx, lockoutKeyPrefix+username, "locked_until").Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Lockout lookup failed", "username", username, "error", err)
		}
		return false, 0
	}
	ts, err := strconv.ParseInt(lockedUntil, 10, 64)
	if err != nil {
		return false, 0
	}
	remaining := time.Unix(ts, 0).Sub(lo.now())
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

func (lo *LoginLockout) RecordFailure(ctx context.Context, username string) {
	key := lockoutKeyPrefix + username

	n, err := lo.rdb.HIncrBy(ctx, key, "fail_count", 1).Result()
	if err != nil {
		slog.Warn("Lockout increment failed", "username", username, "error", err)
		return
	}
	if err := lo.rdb.Expire(ctx, key, lockoutTTL).Err(); err != nil {
		slog.Warn("Lockout expire failed", "username", username, "error", err)
	}

	if n%failThreshold == 0 {
		until := lo.now().Add(lockoutDuration(int(n))).Unix()
		if err := lo.rdb.HSet(ctx, key, "locked_until", strconv.FormatInt(until, 10)).Err(); err != nil {
			slog.Warn("Lockout set failed", "username", username, "error", err)
		}
	}
}

func (lo *LoginLockout) RecordSuccess(ctx context.Context, username string) {
	if err := lo.rdb.Del(ctx, lockoutKeyPrefix+username).Err(); err != nil {
		slog.Warn("Lockout reset failed", "username", username, "error", err)
	}
}
