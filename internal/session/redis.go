package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthcareplus/echannelling/internal/wizard"
)

// RedisStore keeps sessions as JSON values with a sliding TTL. Save uses
// WATCH/MULTI so concurrent writers cannot both win.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{redis: client, ttl: ttl, now: time.Now}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("wizard:session:%s", id)
}

// Create stores a new session at version 1.
func (s *RedisStore) Create(ctx context.Context, snap wizard.Snapshot) (Record, error) {
	rec := newRecord(snap, s.now().UTC())
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("session: marshal: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, s.key(rec.ID), data, s.ttl).Result()
	if err != nil {
		return Record{}, fmt.Errorf("session: create: %w", err)
	}
	if !ok {
		return Record{}, fmt.Errorf("session: create: id collision %s", rec.ID)
	}
	return rec, nil
}

// Get loads a session.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	return s.load(ctx, s.redis, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, c getter, id string) (Record, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("session: get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	return rec, nil
}

// Save writes rec if its version is still current.
func (s *RedisStore) Save(ctx context.Context, rec Record) (Record, error) {
	key := s.key(rec.ID)
	var next Record
	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, rec.ID)
		if err != nil {
			return err
		}
		if current.Version != rec.Version {
			return ErrConflict
		}
		next = Record{
			ID:              rec.ID,
			Version:         rec.Version + 1,
			Snapshot:        rec.Snapshot,
			SubmittingUntil: rec.SubmittingUntil,
			CreatedAt:       current.CreatedAt,
			UpdatedAt:       s.now().UTC(),
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("session: marshal: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, redis.TxFailedErr):
		return Record{}, ErrConflict
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		return Record{}, err
	default:
		return Record{}, fmt.Errorf("session: save: %w", err)
	}
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
