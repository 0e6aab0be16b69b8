package doctors

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthcareplus/echannelling/pkg/logging"
)

// DefaultCacheTTL applies when NewCachedDirectory gets a non-positive ttl.
const DefaultCacheTTL = 5 * time.Minute

// CachedDirectory is a read-through Redis cache in front of another
// directory. Cache failures fall through to the backing directory.
type CachedDirectory struct {
	next   Directory
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedDirectory wraps next with a cache. A nil client disables caching.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedDirectory {
	if next == nil {
		panic("doctors: backing directory required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedDirectory{next: next, redis: client, ttl: ttl, logger: logger}
}

func (c *CachedDirectory) doctorKey(id string) string {
	return fmt.Sprintf("doctors:doctor:%s", id)
}

func (c *CachedDirectory) listKey(f Filter) string {
	raw := fmt.Sprintf("%s|%s|%t", strings.ToLower(strings.TrimSpace(f.Specialty)), strings.ToLower(strings.TrimSpace(f.Query)), f.AvailableOnly)
	sum := sha1.Sum([]byte(raw))
	return "doctors:list:" + hex.EncodeToString(sum[:])
}

// Get serves id from cache, loading and storing it on a miss.
// Unknown ids are not cached.
func (c *CachedDirectory) Get(ctx context.Context, id string) (Doctor, error) {
	var doc Doctor
	if c.load(ctx, c.doctorKey(id), &doc) {
		return doc, nil
	}
	doc, err := c.next.Get(ctx, id)
	if err != nil {
		return Doctor{}, err
	}
	c.store(ctx, c.doctorKey(id), doc)
	return doc, nil
}

// List serves a filtered listing from cache, loading it on a miss.
func (c *CachedDirectory) List(ctx context.Context, f Filter) ([]Doctor, error) {
	key := c.listKey(f)
	var list []Doctor
	if c.load(ctx, key, &list) {
		return list, nil
	}
	list, err := c.next.List(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, list)
	return list, nil
}

// Invalidate drops the cached entry for id and every cached listing.
func (c *CachedDirectory) Invalidate(ctx context.Context, id string) error {
	if c.redis == nil {
		return nil
	}
	keys := []string{c.doctorKey(id)}
	iter := c.redis.Scan(ctx, 0, "doctors:list:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("doctors: scan cache: %w", err)
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("doctors: invalidate cache: %w", err)
	}
	return nil
}

func (c *CachedDirectory) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("doctor cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("doctor cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *CachedDirectory) store(ctx context.Context, key string, v any) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("doctor cache write failed", "key", key, "error", err)
	}
}
