// Package session holds the Redis-backed session store. The SQL and
// in-memory backends live with the other repositories.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eventmarket/internal/models"
)

const keyPrefix = "session:"

// RedisStore keeps each session as a JSON value whose key TTL tracks the
// session expiry, so Redis drops stale sessions on its own.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func redisKey(token string) string {
	return keyPrefix + token
}

func (s *RedisStore) CreateSession(ctx context.Context, sess models.Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now().UTC()
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKey(sess.Token), data, ttl).Err()
}

func (s *RedisStore) GetSession(ctx context.Context, token string) (models.Session, error) {
	data, err := s.rdb.Get(ctx, redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, models.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// TouchSession moves the expiry forward. Unknown tokens are ignored.
func (s *RedisStore) TouchSession(ctx context.Context, token string, expiresAt time.Time) error {
	sess, err := s.GetSession(ctx, token)
	if errors.Is(err, models.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.DeleteSession(ctx, token)
	}
	sess.ExpiresAt = expiresAt
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.SetXX(ctx, redisKey(token), data, ttl).Err()
}

func (s *RedisStore) DeleteSession(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, redisKey(token)).Err()
}

// PurgeExpired is a no-op; Redis expires keys itself.
func (s *RedisStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
