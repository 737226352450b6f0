// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package supervisor

import (
	"context"
	"time"

	"github.com/harmonium-fm/harmonium/internal/cache"
	"github.com/harmonium-fm/harmonium/internal/metrics"
)

// CacheCleanupService periodically evicts expired entries from a TTL
// cache. Without it, entries that are never re-read would only expire
// lazily and keep their memory.
type CacheCleanupService struct {
	name     string
	cache    *cache.Cache
	interval time.Duration
}

// NewCacheCleanupService creates a cleanup loop for the given cache.
// The name distinguishes multiple caches in supervisor logs.
func NewCacheCleanupService(name string, c *cache.Cache, interval time.Duration) *CacheCleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheCleanupService{
		name:     name,
		cache:    c,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (s *CacheCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cache.Cleanup()
			metrics.CacheSize.WithLabelValues(s.name).Set(float64(s.cache.GetStats().TotalKeys))
		}
	}
}

// String implements fmt.Stringer for suture's service logging.
func (s *CacheCleanupService) String() string {
	return s.name + "-cache-cleanup"
}
