// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/cache"
	"github.com/harmonium-fm/harmonium/internal/metrics"
	"github.com/harmonium-fm/harmonium/internal/models"
	"github.com/harmonium-fm/harmonium/internal/store"
)

// Taste-profile result caps.
const (
	maxTopArtists = 5
	maxTopGenres  = 3
	maxTopSongs   = 20
)

// Extractor derives taste profiles (top artists, genres, songs) from
// listening-history stats. It is safe for concurrent use.
type Extractor struct {
	catalog store.CatalogStore
	history store.HistoryStore

	// profiles caches full per-user profiles for a short window; the
	// key space grows with the user population, so a size-bounded LRU
	// keeps it in check.
	profiles *cache.LRUCache

	logger zerolog.Logger
}

// NewExtractor creates a taste-profile extractor.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewExtractor(catalog store.CatalogStore, history store.HistoryStore, profiles *cache.LRUCache, logger zerolog.Logger) *Extractor {
	return &Extractor{
		catalog:  catalog,
		history:  history,
		profiles: profiles,
		logger:   logger.With().Str("component", "profile").Logger(),
	}
}

// Profile returns the user's taste profile, recomputing on cache miss.
// The profile is derived from raw (unweighted) play counts.
func (e *Extractor) Profile(ctx context.Context, userID string) (*models.UserTasteProfile, error) {
	if cached, ok := e.profiles.Get(userID); ok {
		if profile, ok := cached.(*models.UserTasteProfile); ok {
			metrics.RecordCacheHit("profile")
			return profile, nil
		}
	}
	metrics.RecordCacheMiss("profile")

	history, err := e.history.UserHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	topSongs, err := e.TopListenedSongs(ctx, history.ListenedSongs, maxTopSongs)
	if err != nil {
		return nil, err
	}

	artists, genres, err := e.albumAttributions(ctx, history.ListenedAlbums)
	if err != nil {
		return nil, err
	}

	profile := &models.UserTasteProfile{
		TopArtists: artists,
		TopGenres:  genres,
		TopSongs:   topSongs,
	}
	e.profiles.Set(userID, profile)

	return profile, nil
}

// TopListenedSongs sorts the song stats by play count descending and
// resolves the top entries to their owning albums. A song whose album no
// longer exists in the catalog is skipped with a warning rather than
// failing the whole operation.
func (e *Extractor) TopListenedSongs(ctx context.Context, stats []models.ListenedSongStat, limit int) ([]models.TopSong, error) {
	if limit <= 0 {
		limit = maxTopSongs
	}

	sorted := make([]models.ListenedSongStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PlayCount != sorted[j].PlayCount {
			return sorted[i].PlayCount > sorted[j].PlayCount
		}
		return sorted[i].SongTitle < sorted[j].SongTitle
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	albums, err := e.resolveAlbums(ctx, albumIDsOfSongStats(sorted))
	if err != nil {
		return nil, err
	}

	songs := make([]models.TopSong, 0, len(sorted))
	for _, stat := range sorted {
		album, ok := albums[stat.AlbumID]
		if !ok {
			e.logger.Warn().
				Str("albumId", stat.AlbumID).
				Str("songTitle", stat.SongTitle).
				Msg("song stat references missing album, skipping")
			continue
		}
		songs = append(songs, models.TopSong{SongTitle: stat.SongTitle, Album: album})
	}

	return songs, nil
}

// FavoriteArtists attributes each listened album's play count to every
// artist tag on the album and returns the top 5 by attributed count.
// Albums that no longer resolve are skipped silently.
func (e *Extractor) FavoriteArtists(ctx context.Context, stats []models.ListenedAlbumStat) ([]string, error) {
	artists, _, err := e.attributions(ctx, stats, true, false)
	return artists, err
}

// FavoriteGenres is the genre counterpart of FavoriteArtists, capped at
// the top 3.
func (e *Extractor) FavoriteGenres(ctx context.Context, stats []models.ListenedAlbumStat) ([]models.Genre, error) {
	_, genres, err := e.attributions(ctx, stats, false, true)
	return genres, err
}

// albumAttributions computes both top artists and top genres in one
// catalog pass.
func (e *Extractor) albumAttributions(ctx context.Context, stats []models.ListenedAlbumStat) ([]string, []models.Genre, error) {
	return e.attributions(ctx, stats, true, true)
}

// attributions aggregates play counts per artist and per genre across
// the given album stats. An album with no tags contributes nothing; an
// album id that no longer resolves is skipped silently.
func (e *Extractor) attributions(ctx context.Context, stats []models.ListenedAlbumStat, wantArtists, wantGenres bool) ([]string, []models.Genre, error) {
	artistCounts := make(map[string]uint64)
	genreCounts := make(map[models.Genre]uint64)

	ids := make([]string, 0, len(stats))
	for _, stat := range stats {
		ids = append(ids, stat.AlbumID)
	}
	albums, err := e.resolveAlbums(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	for _, stat := range stats {
		album, ok := albums[stat.AlbumID]
		if !ok {
			// Stale catalog reference; skipped silently for these
			// aggregations.
			continue
		}

		if wantArtists {
			for _, artist := range album.Artist {
				artistCounts[artist] += stat.PlayCount
			}
		}
		if wantGenres {
			for _, genre := range album.Genre {
				genreCounts[genre] += stat.PlayCount
			}
		}
	}

	var topArtists []string
	if wantArtists {
		topArtists = topKeysByCount(artistCounts, maxTopArtists)
	}

	var topGenres []models.Genre
	if wantGenres {
		topGenres = topKeysByCount(genreCounts, maxTopGenres)
	}

	return topArtists, topGenres, nil
}

// resolveAlbums batch-fetches the given album ids and returns them
// keyed by id. Unknown ids are absent.
func (e *Extractor) resolveAlbums(ctx context.Context, ids []string) (map[string]models.Album, error) {
	if len(ids) == 0 {
		return map[string]models.Album{}, nil
	}

	albums, err := e.catalog.AlbumsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve albums: %w", err)
	}

	byID := make(map[string]models.Album, len(albums))
	for _, album := range albums {
		byID[album.ID] = album
	}
	return byID, nil
}

// albumIDsOfSongStats collects the owning album ids of song stats.
func albumIDsOfSongStats(stats []models.ListenedSongStat) []string {
	ids := make([]string, 0, len(stats))
	for _, stat := range stats {
		ids = append(ids, stat.AlbumID)
	}
	return ids
}

// topKeysByCount returns the keys with the highest counts, descending,
// ties broken by key order for determinism within one computation.
func topKeysByCount[K ~string](counts map[K]uint64, limit int) []K {
	keys := make([]K, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
