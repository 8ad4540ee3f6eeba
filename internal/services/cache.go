package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/vidtube-backend/internal/models"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultProfileTTL bounds how stale a cached public profile can get.
	DefaultProfileTTL = 10 * time.Minute
)

// ProfileCache caches public profiles by username in Redis. A nil
// *ProfileCache is valid and caches nothing. Cache errors are logged and
// treated as misses; Redis is never required to serve a request.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *ProfileCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{rdb: rdb, ttl: ttl, log: log}
}

func (c *ProfileCache) Get(ctx context.Context, username string) (*models.Profile, bool) {
	if c == nil {
		return nil, false
	}

	val, err := c.rdb.Get(ctx, profileKey(username)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "profile cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var p models.Profile
	if err := json.Unmarshal(val, &p); err != nil {
		c.log.WarnContext(ctx, "profile cache entry corrupt", slog.String("username", username))
		return nil, false
	}
	return &p, true
}

func (c *ProfileCache) Set(ctx context.Context, p *models.Profile) {
	if c == nil || p == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, profileKey(p.Username), data, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "profile cache write failed", slog.String("error", err.Error()))
	}
}

// Invalidate drops cached profiles, e.g. after a rename or new avatar.
func (c *ProfileCache) Invalidate(ctx context.Context, usernames ...string) {
	if c == nil || len(usernames) == 0 {
		return
	}

	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, profileKey(u))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.WarnContext(ctx, "profile cache invalidation failed", slog.String("error", err.Error()))
	}
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s%s:%s", CacheKeyPrefix, resource, identifier)
}

func profileKey(username string) string {
	return CacheKey("profile", strings.ToLower(username))
}
