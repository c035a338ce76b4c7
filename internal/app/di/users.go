// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "marketplace_backend/internal/feature/auth/adapters"
	"marketplace_backend/internal/platform/cache"
	"marketplace_backend/internal/platform/metrics"
)

// NewUserRepository creates the user store every feature shares.
// If Redis is available, lookups by id go through a read-through cache.
// Otherwise, it falls back to the database store alone.
func NewUserRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration, m *metrics.Metrics) cache.UserRepository {
	store := authadapters.NewUserGorm(db)
	if rdb == nil {
		return store
	}
	var opts []cache.Option
	if m != nil {
		opts = append(opts, cache.WithRecorder(m))
	}
	return cache.NewCachingUserRepository(rdb, ttl, store, "users", opts...)
}
