// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// slides.go provides a Valkey-backed cache (L2) of rendered carousel slides.
// Public views of the same carousel revision skip template rendering
// entirely. Entries are keyed by carousel id and its updated_at, so an edit
// makes older entries unreachable even before they expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	slidesKeyPrefix = "slides:"

	// DefaultSlidesTTL is how long a rendered carousel stays cached.
	DefaultSlidesTTL = 10 * time.Minute
)

// SlideCache stores the rendered SVG of every slide of a carousel revision.
// A nil *SlideCache is valid and never hits.
type SlideCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlideCache creates a slide cache backed by the given Valkey client.
func NewSlideCache(client *redis.Client, ttl time.Duration) *SlideCache {
	if client == nil {
		return nil
	}
	if ttl == 0 {
		ttl = DefaultSlidesTTL
	}
	return &SlideCache{client: client, ttl: ttl}
}

// SlidesKey returns the key of one carousel revision.
func SlidesKey(id uuid.UUID, updatedAt time.Time) string {
	return fmt.Sprintf("%s%s:%d", slidesKeyPrefix, id, updatedAt.UnixNano())
}

// Get returns the cached SVGs of a carousel revision.
func (sc *SlideCache) Get(ctx context.Context, id uuid.UUID, updatedAt time.Time) ([]string, bool) {
	if sc == nil {
		return nil, false
	}
	key := SlidesKey(id, updatedAt)
	val, err := sc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("slide cache get error", "key", key, "error", err)
		return nil, false
	}

	var svgs []string
	if err := json.Unmarshal(val, &svgs); err != nil {
		slog.Warn("slide cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("slide cache hit", "key", key)
	return svgs, true
}

// Set stores the rendered SVGs of a carousel revision.
func (sc *SlideCache) Set(ctx context.Context, id uuid.UUID, updatedAt time.Time, svgs []string) {
	if sc == nil {
		return
	}
	key := SlidesKey(id, updatedAt)
	data, err := json.Marshal(svgs)
	if err != nil {
		slog.Warn("slide cache encode error", "key", key, "error", err)
		return
	}
	if err := sc.client.Set(ctx, key, data, sc.ttl).Err(); err != nil {
		slog.Warn("slide cache set error", "key", key, "error", err)
	}
}

// Invalidate removes every cached revision of one carousel.
func (sc *SlideCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if sc == nil {
		return
	}
	if n := sc.deleteMatching(ctx, slidesKeyPrefix+id.String()+":*"); n > 0 {
		slog.Debug("slide cache invalidated", "carousel_id", id, "deleted", n)
	}
}

// InvalidateAll removes all cached slides. Used when the template catalog
// changes, since every rendered slide could be affected.
func (sc *SlideCache) InvalidateAll(ctx context.Context) {
	if sc == nil {
		return
	}
	if n := sc.deleteMatching(ctx, slidesKeyPrefix+"*"); n > 0 {
		slog.Info("slide cache fully cleared", "deleted", n)
	}
}

func (sc *SlideCache) deleteMatching(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := sc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("slide cache scan error", "pattern", pattern, "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := sc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("slide cache delete error", "error", err)
			} else {
				deleted += len(keys)
			}
		}
		cursor = next
		if cursor == 0 {
			return deleted
		}
	}
}
