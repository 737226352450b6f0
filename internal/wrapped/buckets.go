// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package wrapped

import (
	"time"

	"github.com/harmonium-fm/harmonium/internal/models"
)

// Time-of-day bucket boundaries (inclusive start hour).
const (
	morningStart   = 6
	afternoonStart = 12
	eveningStart   = 18
)

// filterSongStatsByYear keeps only the listen events inside the
// [start, end) window, recomputing play counts from the surviving
// events. Stats whose events all fall outside the window drop out.
func filterSongStatsByYear(stats []models.ListenedSongStat, start, end time.Time) []models.ListenedSongStat {
	filtered := make([]models.ListenedSongStat, 0, len(stats))
	for _, stat := range stats {
		events := eventsInWindow(stat.ListenHistory, start, end)
		if len(events) == 0 {
			continue
		}
		stat.ListenHistory = events
		stat.PlayCount = uint64(len(events))
		filtered = append(filtered, stat)
	}
	return filtered
}

// filterAlbumStatsByYear is the album-stat counterpart of
// filterSongStatsByYear.
func filterAlbumStatsByYear(stats []models.ListenedAlbumStat, start, end time.Time) []models.ListenedAlbumStat {
	filtered := make([]models.ListenedAlbumStat, 0, len(stats))
	for _, stat := range stats {
		events := eventsInWindow(stat.ListenHistory, start, end)
		if len(events) == 0 {
			continue
		}
		stat.ListenHistory = events
		stat.PlayCount = uint64(len(events))
		filtered = append(filtered, stat)
	}
	return filtered
}

func eventsInWindow(events []time.Time, start, end time.Time) []time.Time {
	kept := make([]time.Time, 0, len(events))
	for _, event := range events {
		if event.IsZero() {
			continue
		}
		if event.Before(start) || !event.Before(end) {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

// listeningTimes buckets song listen events by hour of day:
// morning [06,12), afternoon [12,18), evening [18,24), night [00,06).
func listeningTimes(stats []models.ListenedSongStat) models.ListeningTimes {
	var times models.ListeningTimes
	for _, stat := range stats {
		for _, event := range stat.ListenHistory {
			switch hour := event.Hour(); {
			case hour >= morningStart && hour < afternoonStart:
				times.Morning++
			case hour >= afternoonStart && hour < eveningStart:
				times.Afternoon++
			case hour >= eveningStart:
				times.Evening++
			default:
				times.Night++
			}
		}
	}
	return times
}

// languageBreakdown counts album plays per catalog language. Albums
// without a language tag are grouped under Unknown.
func languageBreakdown(stats []models.ListenedAlbumStat, albums map[string]models.Album) map[string]uint64 {
	breakdown := make(map[string]uint64)
	for _, stat := range stats {
		lang := unknownLabel
		if album, ok := albums[stat.AlbumID]; ok && album.Lang != "" {
			lang = album.Lang
		}
		breakdown[lang] += stat.PlayCount
	}
	return breakdown
}

// totalListens sums yearly album plays.
func totalListens(stats []models.ListenedAlbumStat) uint64 {
	var total uint64
	for _, stat := range stats {
		total += stat.PlayCount
	}
	return total
}

// albumIDs collects the distinct album ids referenced by the yearly
// song and album stats, for one batch catalog fetch.
func albumIDs(songs []models.ListenedSongStat, albums []models.ListenedAlbumStat) []string {
	seen := make(map[string]struct{}, len(songs)+len(albums))
	ids := make([]string, 0, len(songs)+len(albums))
	for _, stat := range songs {
		if _, ok := seen[stat.AlbumID]; ok {
			continue
		}
		seen[stat.AlbumID] = struct{}{}
		ids = append(ids, stat.AlbumID)
	}
	for _, stat := range albums {
		if _, ok := seen[stat.AlbumID]; ok {
			continue
		}
		seen[stat.AlbumID] = struct{}{}
		ids = append(ids, stat.AlbumID)
	}
	return ids
}
