// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import (
	"math"
	"time"

	"github.com/harmonium-fm/harmonium/internal/models"
)

// Recency factor step function over the time since the most recent
// listen event. Recent listens dominate "based on your listening"
// signals without a decayed counter maintained at write time.
const (
	recencyFactorWeek    = 1.0 // < 7 days
	recencyFactorMonth   = 0.6 // < 30 days
	recencyFactorQuarter = 0.3 // < 90 days
	recencyFactorStale   = 0.1 // >= 90 days, or no history
)

// recencyFactor picks the decay factor for the most recent listen in a
// stat's history relative to now.
func recencyFactor(lastListen, now time.Time) float64 {
	if lastListen.IsZero() {
		return recencyFactorStale
	}

	elapsed := now.Sub(lastListen)
	switch {
	case elapsed < 7*24*time.Hour:
		return recencyFactorWeek
	case elapsed < 30*24*time.Hour:
		return recencyFactorMonth
	case elapsed < 90*24*time.Hour:
		return recencyFactorQuarter
	default:
		return recencyFactorStale
	}
}

// WeightAlbumStatsByRecency returns an ephemeral copy of the album stats
// where each entry's play count is ceil(raw * factor * w). The stored
// entities are never mutated.
func WeightAlbumStatsByRecency(stats []models.ListenedAlbumStat, w float64, now time.Time) []models.ListenedAlbumStat {
	weighted := make([]models.ListenedAlbumStat, len(stats))
	for i, stat := range stats {
		weighted[i] = stat
		weighted[i].PlayCount = weightedCount(stat.PlayCount, stat.LastListen(), w, now)
	}
	return weighted
}

// WeightSongStatsByRecency is the song-stat counterpart of
// WeightAlbumStatsByRecency.
func WeightSongStatsByRecency(stats []models.ListenedSongStat, w float64, now time.Time) []models.ListenedSongStat {
	weighted := make([]models.ListenedSongStat, len(stats))
	for i, stat := range stats {
		weighted[i] = stat
		weighted[i].PlayCount = weightedCount(stat.PlayCount, stat.LastListen(), w, now)
	}
	return weighted
}

// weightedCount computes ceil(raw * recencyFactor * w).
func weightedCount(raw uint64, lastListen time.Time, w float64, now time.Time) uint64 {
	factor := recencyFactor(lastListen, now)
	scaled := math.Ceil(float64(raw) * factor * w)
	if scaled < 0 {
		return 0
	}
	return uint64(scaled)
}
