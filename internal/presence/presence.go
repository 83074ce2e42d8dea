// Package presence keeps a short-lived cache of user presence in Redis in
// front of the durable users.status column. Reads prefer the cache and fall
// back to the database when the key has expired.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parley-im/parley/internal/common"
	"github.com/parley-im/parley/internal/repository"
)

const (
	keyPrefix  = "presence:"
	defaultTTL = 2 * time.Minute
)

type Tracker struct {
	rdb    *redis.Client
	users  repository.UserRepository
	logger *zap.Logger
	ttl    time.Duration
}

// New connects to Redis and returns a Tracker backed by the given user
// repository. The connection is verified with a ping before returning.
func New(ctx context.Context, redisURL string, users repository.UserRepository, logger *zap.Logger) (*Tracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Tracker{
		rdb:    rdb,
		users:  users,
		logger: logger,
		ttl:    defaultTTL,
	}, nil
}

func (t *Tracker) Close() error {
	return t.rdb.Close()
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// SetStatus records a presence update. The database row is the source of
// truth; the cache write is best effort and a failure only logs.
func (t *Tracker) SetStatus(ctx context.Context, userID uuid.UUID, status string) error {
	now := time.Now().UTC()
	if err := t.users.UpdatePresence(ctx, userID, status, now); err != nil {
		return err
	}

	if err := t.rdb.Set(ctx, key(userID), status, t.ttl).Err(); err != nil {
		t.logger.Warn("presence cache set failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
	return nil
}

// Heartbeat refreshes the cache TTL for an online user without touching the
// database on every call.
func (t *Tracker) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	ok, err := t.rdb.Expire(ctx, key(userID), t.ttl).Result()
	if err != nil {
		return fmt.Errorf("refresh presence ttl: %w", err)
	}
	if !ok {
		// Key expired between heartbeats; re-establish it.
		return t.SetStatus(ctx, userID, "online")
	}
	return nil
}

// Status resolves a user's presence, reading through to the database when
// the cache misses. An unknown user is ErrNotFound.
func (t *Tracker) Status(ctx context.Context, userID uuid.UUID) (string, error) {
	val, err := t.rdb.Get(ctx, key(userID)).Result()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		t.logger.Warn("presence cache read failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	u, err := t.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", common.ErrNotFound
	}
	if u.Status == "" {
		return "offline", nil
	}
	return u.Status, nil
}
