// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache.go provides the in-memory thumbnail cache for rendered slides.
// This is the L1 cache: editors re-render the same slide many times while
// tweaking unrelated fields, so output is keyed by a fingerprint of the full
// render input and any change to that input is a cache miss.
package engine

import (
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"slidesmith/internal/fingerprint"
)

// DefaultThumbnailTTL is how long a rendered slide stays cached.
const DefaultThumbnailTTL = 10 * time.Minute

// thumbnailCache wraps go-cache; it is safe for concurrent use.
type thumbnailCache struct {
	c *gocache.Cache
}

func newThumbnailCache(ttl time.Duration) *thumbnailCache {
	return &thumbnailCache{c: gocache.New(ttl, 2*ttl)}
}

// cacheKeyFor derives the key from the render input. Input only holds
// plain values, so encoding cannot fail.
func cacheKeyFor(in Input) string {
	return string(fingerprint.MustOf(fingerprint.DomainRender, in))
}

func (c *thumbnailCache) get(key string) (string, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return "", false
	}
	svg, ok := v.(string)
	return svg, ok
}

func (c *thumbnailCache) put(key, svg string) {
	c.c.SetDefault(key, svg)
	slog.Debug("slide thumbnail cached", "key", key[:12], "size", c.c.ItemCount())
}

func (c *thumbnailCache) count() int {
	return c.c.ItemCount()
}

func (c *thumbnailCache) flush() {
	c.c.Flush()
	slog.Debug("slide thumbnail cache cleared")
}
