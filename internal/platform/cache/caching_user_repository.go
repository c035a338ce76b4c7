// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace_backend/internal/feature/auth/domain/entity"
)

// DefaultUserTTL is used when no positive ttl is configured.
const DefaultUserTTL = 5 * time.Minute

// UserRepository is the store decorated by CachingUserRepository.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]entity.User, error)
}

// HitRecorder counts cache hits and misses.
type HitRecorder interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
}

// Option configures a CachingUserRepository.
type Option func(*CachingUserRepository)

// WithRecorder reports hits and misses to rec.
func WithRecorder(rec HitRecorder) Option {
	return func(c *CachingUserRepository) {
		c.recorder = rec
	}
}

// CachingUserRepository decorates a UserRepository with a Redis read-through
// cache for lookups by id. Profile reads and every authenticated handler go
// through FindByID, so that is the hot path. Lookups by email always hit the
// store because registration relies on them for the duplicate check.
//
// Cached entries include the password hash, since UpdateProfile verifies the
// current password against the record returned by FindByID. A miss only
// fills the cache when no Update or Delete of the same user committed while
// the row was being read, so an old hash is never written back.
type CachingUserRepository struct {
	inner     UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	recorder  HitRecorder
}

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
// A nil rdb disables caching.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner UserRepository, namespace string, opts ...Option) *CachingUserRepository {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	if namespace == "" {
		namespace = "users"
	}
	c := &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create persists a new user. Nothing is cached until the first lookup.
func (c *CachingUserRepository) Create(ctx context.Context, user *entity.User) error {
	return c.inner.Create(ctx, user)
}

// FindByEmail always reads the store.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email)
}

// FindByID checks the cache first and falls back to the store.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var u entity.User
		if err := json.Unmarshal(b, &u); err == nil {
			c.hit()
			return &u, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}
	c.miss()

	// 2) Fallback to database, storing the result only if no write
	// bumped the version key in between
	return c.load(ctx, id, key)
}

// load reads the store inside WATCH on the version key. Update and Delete
// increment that key after committing, so a fill that raced with a write is
// discarded by EXEC instead of caching the pre-write row.
func (c *CachingUserRepository) load(ctx context.Context, id, key string) (*entity.User, error) {
	var (
		u        *entity.User
		innerErr error
		ran      bool
	)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		ran = true
		u, innerErr = c.inner.FindByID(ctx, id)
		if innerErr != nil {
			return innerErr
		}
		b, err := json.Marshal(u)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, c.versionKey(id))

	switch {
	case innerErr != nil:
		return nil, innerErr
	case !ran:
		// WATCH itself failed; Redis is unusable for this call
		return c.inner.FindByID(ctx, id)
	case errors.Is(err, redis.TxFailedErr):
		slog.Debug("user cache fill skipped after concurrent write", "user_id", id)
	case err != nil:
		slog.Warn("user cache fill failed", "user_id", id, "error", err)
	}
	return u, nil
}

// Update writes through to the store and drops the cached entry.
func (c *CachingUserRepository) Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error) {
	u, err := c.inner.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return u, nil
}

// Delete removes the user from the store and drops the cached entry.
func (c *CachingUserRepository) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// List always reads the store.
func (c *CachingUserRepository) List(ctx context.Context) ([]entity.User, error) {
	return c.inner.List(ctx)
}

func (c *CachingUserRepository) invalidate(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	// Bump the version first so in-flight fills abort, then drop the entry.
	verKey := c.versionKey(id)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, verKey)
		p.Expire(ctx, verKey, c.ttl)
		p.Del(ctx, c.cacheKey(id))
		return nil
	})
	if err != nil {
		slog.Warn("user cache invalidation failed", "user_id", id, "error", err)
	}
}

func (c *CachingUserRepository) hit() {
	if c.recorder != nil {
		c.recorder.RecordCacheHit(c.namespace)
	}
}

func (c *CachingUserRepository) miss() {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(c.namespace)
	}
}

// cacheKey generates a cache key for a user id.
func (c *CachingUserRepository) cacheKey(id string) string {
	return c.namespace + ":id:" + safe(id)
}

// versionKey is incremented on every write of the user.
func (c *CachingUserRepository) versionKey(id string) string {
	return c.namespace + ":ver:" + safe(id)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
