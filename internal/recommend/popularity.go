// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/cache"
	"github.com/harmonium-fm/harmonium/internal/metrics"
	"github.com/harmonium-fm/harmonium/internal/store"
)

const popularityCacheKey = "popularity:albums"

// PopularityIndex aggregates play counts across all users per album.
// It is a quality / tie-breaking signal, never the sole ranking
// criterion. The aggregate is cached for hours; callers must tolerate
// staleness because popularity changes slowly.
type PopularityIndex struct {
	history store.HistoryStore
	cache   *cache.Cache
	refresh time.Duration
	logger  zerolog.Logger
}

// NewPopularityIndex creates a popularity index backed by the given
// history store. ttlCache should be configured with the popularity TTL
// (~24h in production).
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPopularityIndex(history store.HistoryStore, ttlCache *cache.Cache, refresh time.Duration, logger zerolog.Logger) *PopularityIndex {
	if refresh <= 0 {
		refresh = 24 * time.Hour
	}
	return &PopularityIndex{
		history: history,
		cache:   ttlCache,
		refresh: refresh,
		logger:  logger.With().Str("component", "popularity").Logger(),
	}
}

// AlbumPopularity returns total play count per album id across the full
// user population, served from cache when fresh.
func (p *PopularityIndex) AlbumPopularity(ctx context.Context) (map[string]uint64, error) {
	if cached, ok := p.cache.Get(popularityCacheKey); ok {
		if counts, ok := cached.(map[string]uint64); ok {
			metrics.RecordCacheHit("popularity")
			return counts, nil
		}
	}
	metrics.RecordCacheMiss("popularity")
	return p.Recompute(ctx)
}

// Recompute rebuilds the aggregate from every user's album stats in one
// batch fetch and refreshes the cache.
func (p *PopularityIndex) Recompute(ctx context.Context) (map[string]uint64, error) {
	start := time.Now()

	histories, err := p.history.AllHistories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load histories: %w", err)
	}

	counts := make(map[string]uint64)
	for _, history := range histories {
		for _, stat := range history.ListenedAlbums {
			counts[stat.AlbumID] += stat.PlayCount
		}
	}

	p.cache.Set(popularityCacheKey, counts)
	metrics.RecordPopularityRefresh(time.Since(start), len(counts))

	p.logger.Debug().
		Int("albums", len(counts)).
		Int("users", len(histories)).
		Dur("elapsed", time.Since(start)).
		Msg("popularity index recomputed")

	return counts, nil
}

// Serve runs the background refresh loop. It implements suture.Service
// and is supervised from the application tree; a failed recompute is
// logged and retried on the next tick rather than crashing the service.
func (p *PopularityIndex) Serve(ctx context.Context) error {
	// Warm the cache on startup so the first request never pays the
	// full aggregation cost.
	if _, err := p.Recompute(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("initial popularity recompute failed")
	}

	ticker := time.NewTicker(p.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Recompute(ctx); err != nil {
				p.logger.Warn().Err(err).Msg("popularity recompute failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (p *PopularityIndex) String() string {
	return "popularity-index"
}

// maxCount returns the largest value of the popularity map, minimum 1
// so score normalization never divides by zero.
func maxCount(counts map[string]uint64) uint64 {
	var max uint64 = 1
	for _, count := range counts {
		if count > max {
			max = count
		}
	}
	return max
}
