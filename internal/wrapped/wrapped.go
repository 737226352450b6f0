// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package wrapped computes the yearly personalized listening summary:
// top songs and albums of the current calendar year, time-of-day
// listening buckets, language breakdown and the percentile standing of
// the user relative to the full listener population.
//
// Percentiles are a best-effort analytics feature: any single album or
// user lookup failure during aggregation is logged and excluded from the
// distribution rather than failing the computation.
package wrapped

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/models"
	"github.com/harmonium-fm/harmonium/internal/store"
)

// ErrUserNotFound indicates the wrapped report was requested for a user
// that does not exist. The HTTP layer maps this to 404.
var ErrUserNotFound = errors.New("user not found")

// Result list caps.
const (
	maxWrappedSongs  = 5
	maxWrappedAlbums = 6
)

// topPerformanceThreshold is the best-percentile cutoff (top 10%) for
// an artist to appear in topPerformances.
const topPerformanceThreshold = 10.0

// neutralPercentile is reported when the user has no qualifying album
// stats to rank against.
const neutralPercentile = 50.0

// unknownLabel is the sentinel for songs whose album cannot be resolved.
const unknownLabel = "Unknown"

// Config carries the engine's environment-dependent settings.
type Config struct {
	// CDNBaseURL prefixes relative cover paths.
	CDNBaseURL string

	// DefaultCoverPath is the placeholder used when cover resolution
	// fails.
	DefaultCoverPath string

	// Now is the clock defining "this year". Defaults to time.Now.
	Now func() time.Time
}

// Engine computes wrapped statistics. It is safe for concurrent use.
type Engine struct {
	catalog store.CatalogStore
	history store.HistoryStore
	users   store.UserStore

	cdnBaseURL   string
	defaultCover string
	now          func() time.Time

	logger zerolog.Logger
}

// NewEngine creates a wrapped statistics engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEngine(catalog store.CatalogStore, history store.HistoryStore, users store.UserStore, cfg Config, logger zerolog.Logger) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	defaultCover := cfg.DefaultCoverPath
	if defaultCover == "" {
		defaultCover = "/static/cover-placeholder.png"
	}

	return &Engine{
		catalog:      catalog,
		history:      history,
		users:        users,
		cdnBaseURL:   strings.TrimRight(cfg.CDNBaseURL, "/"),
		defaultCover: defaultCover,
		now:          now,
		logger:       logger.With().Str("component", "wrapped").Logger(),
	}
}

// Compute builds the wrapped report for one user, restricted to the
// current calendar year's listen events. Returns ErrUserNotFound when
// the user does not exist; an empty listening year yields zeroed totals
// and the neutral percentile rather than an error.
func (e *Engine) Compute(ctx context.Context, userID string) (*models.WrappedStats, error) {
	exists, err := e.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	history, err := e.history.UserHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	now := e.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	yearEnd := yearStart.AddDate(1, 0, 0)

	songStats := filterSongStatsByYear(history.ListenedSongs, yearStart, yearEnd)
	albumStats := filterAlbumStatsByYear(history.ListenedAlbums, yearStart, yearEnd)

	albums, err := e.resolveAlbums(ctx, albumIDs(songStats, albumStats))
	if err != nil {
		return nil, err
	}

	stats := &models.WrappedStats{
		Year:              now.Year(),
		TopSongs:          e.topSongs(songStats, albums),
		TopAlbums:         e.topAlbums(albumStats, albums),
		ListeningTimes:    listeningTimes(songStats),
		LanguageBreakdown: languageBreakdown(albumStats, albums),
		TotalListens:      totalListens(albumStats),
	}

	percentiles, err := e.albumPercentiles(ctx, albumStats, history.ListenedAlbums, albums)
	if err != nil {
		return nil, err
	}
	stats.AlbumPercentiles = percentiles
	stats.ArtistStats = aggregateByArtist(percentiles)
	stats.TopPerformances = topPerformances(stats.ArtistStats)
	stats.Percentile = globalPercentile(stats.ArtistStats)

	return stats, nil
}

// topSongs returns the top yearly songs by play count, annotated with
// the owning album's artists joined by " & ", with Unknown sentinels
// when the album cannot be resolved.
func (e *Engine) topSongs(stats []models.ListenedSongStat, albums map[string]models.Album) []models.WrappedSong {
	sorted := make([]models.ListenedSongStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PlayCount != sorted[j].PlayCount {
			return sorted[i].PlayCount > sorted[j].PlayCount
		}
		return sorted[i].SongTitle < sorted[j].SongTitle
	})
	if len(sorted) > maxWrappedSongs {
		sorted = sorted[:maxWrappedSongs]
	}

	songs := make([]models.WrappedSong, 0, len(sorted))
	for _, stat := range sorted {
		artist := unknownLabel
		albumTitle := unknownLabel
		if album, ok := albums[stat.AlbumID]; ok {
			if len(album.Artist) > 0 {
				artist = strings.Join(album.Artist, " & ")
			}
			albumTitle = album.Title
		}
		songs = append(songs, models.WrappedSong{
			SongTitle:  stat.SongTitle,
			Artist:     artist,
			AlbumTitle: albumTitle,
			PlayCount:  stat.PlayCount,
		})
	}
	return songs
}

// topAlbums returns the top yearly albums by play count with resolved
// cover URLs.
func (e *Engine) topAlbums(stats []models.ListenedAlbumStat, albums map[string]models.Album) []models.WrappedAlbum {
	sorted := make([]models.ListenedAlbumStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PlayCount != sorted[j].PlayCount {
			return sorted[i].PlayCount > sorted[j].PlayCount
		}
		return sorted[i].AlbumID < sorted[j].AlbumID
	})
	if len(sorted) > maxWrappedAlbums {
		sorted = sorted[:maxWrappedAlbums]
	}

	results := make([]models.WrappedAlbum, 0, len(sorted))
	for _, stat := range sorted {
		album, ok := albums[stat.AlbumID]
		if !ok {
			e.logger.Warn().
				Str("albumId", stat.AlbumID).
				Msg("album stat references missing album, skipping")
			continue
		}
		results = append(results, models.WrappedAlbum{
			AlbumID:   album.ID,
			Title:     album.Title,
			Artist:    album.Artist,
			Cover:     e.resolveCoverURL(album.Cover),
			PlayCount: stat.PlayCount,
		})
	}
	return results
}

// resolveCoverURL resolves a catalog cover reference to a client-usable
// URL: absolute URLs pass through, relative paths are prefixed with the
// CDN base and percent-encoded, and anything unusable falls back to the
// default placeholder.
func (e *Engine) resolveCoverURL(cover string) string {
	if cover == "" {
		return e.defaultCover
	}
	if strings.HasPrefix(cover, "http://") || strings.HasPrefix(cover, "https://") {
		return cover
	}
	if e.cdnBaseURL == "" {
		return e.defaultCover
	}

	escaped := url.PathEscape(strings.TrimLeft(cover, "/"))
	return e.cdnBaseURL + "/" + escaped
}

// albumPercentiles computes the user's percentile per listened album
// against the full population's play-count distribution for that album.
//
// The yearly stats only select which albums are ranked; the ranking
// itself compares the user's stored lifetime play count against the
// population's stored lifetime counts, so both sides of the comparison
// share one counting basis.
func (e *Engine) albumPercentiles(ctx context.Context, yearly, lifetime []models.ListenedAlbumStat, albums map[string]models.Album) ([]models.PercentileResult, error) {
	if len(yearly) == 0 {
		return nil, nil
	}

	histories, err := e.history.AllHistories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load population histories: %w", err)
	}

	lifetimeCounts := make(map[string]uint64, len(lifetime))
	for _, stat := range lifetime {
		lifetimeCounts[stat.AlbumID] = stat.PlayCount
	}

	// distribution[albumID] holds every user's play count for the album.
	distribution := make(map[string][]uint64, len(yearly))
	for _, stat := range yearly {
		distribution[stat.AlbumID] = nil
	}
	for _, history := range histories {
		for _, stat := range history.ListenedAlbums {
			counts, tracked := distribution[stat.AlbumID]
			if !tracked {
				continue
			}
			distribution[stat.AlbumID] = append(counts, stat.PlayCount)
		}
	}

	results := make([]models.PercentileResult, 0, len(yearly))
	for _, stat := range yearly {
		var artists []string
		if album, ok := albums[stat.AlbumID]; ok {
			artists = album.Artist
		} else {
			e.logger.Warn().
				Str("albumId", stat.AlbumID).
				Msg("percentile entry references missing album")
		}

		playCount := lifetimeCounts[stat.AlbumID]
		percentile := percentileOf(playCount, distribution[stat.AlbumID])
		results = append(results, models.PercentileResult{
			AlbumID:      stat.AlbumID,
			ArtistList:   artists,
			Percentile:   percentile,
			TopPercent:   topPercentOf(percentile),
			TotalListens: playCount,
		})
	}

	return results, nil
}

// percentileOf ranks one play count against the full population
// distribution for an album: the share of listeners with strictly lower
// play counts, as a percentage. A distribution of one listener (the
// requesting user) yields 0, the best standing by convention; there is
// no meaningful rank against an empty comparison set.
func percentileOf(playCount uint64, counts []uint64) float64 {
	if len(counts) <= 1 {
		return 0
	}

	lower := 0
	for _, count := range counts {
		if count < playCount {
			lower++
		}
	}
	return float64(lower) / float64(len(counts)) * 100
}

// topPercentOf converts a percentile to the displayed "top X%" figure,
// rounded to one decimal with a 0.1 floor; "top 0%" reads as
// impossible.
func topPercentOf(percentile float64) float64 {
	top := roundOneDecimal(100 - percentile)
	if top < 0.1 {
		return 0.1
	}
	return top
}

func roundOneDecimal(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// aggregateByArtist rolls per-album percentiles up to per-artist stats:
// total listens across the artist's albums and the artist's best
// (lowest) percentile.
func aggregateByArtist(percentiles []models.PercentileResult) []models.AggregatedArtistStat {
	type artistAgg struct {
		listens uint64
		best    float64
	}

	aggs := make(map[string]*artistAgg)
	for _, result := range percentiles {
		for _, artist := range result.ArtistList {
			agg, ok := aggs[artist]
			if !ok {
				agg = &artistAgg{best: result.Percentile}
				aggs[artist] = agg
			}
			agg.listens += result.TotalListens
			if result.Percentile < agg.best {
				agg.best = result.Percentile
			}
		}
	}

	stats := make([]models.AggregatedArtistStat, 0, len(aggs))
	for artist, agg := range aggs {
		stats = append(stats, models.AggregatedArtistStat{
			ArtistName:     artist,
			TotalListens:   agg.listens,
			BestPercentile: agg.best,
		})
	}

	// Best standing first; ties by name for determinism.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].BestPercentile != stats[j].BestPercentile {
			return stats[i].BestPercentile < stats[j].BestPercentile
		}
		return stats[i].ArtistName < stats[j].ArtistName
	})

	return stats
}

// topPerformances renders the artists whose best percentile clears the
// top-10% threshold, best first.
func topPerformances(stats []models.AggregatedArtistStat) []models.TopPerformance {
	performances := make([]models.TopPerformance, 0)
	for _, stat := range stats {
		if stat.BestPercentile > topPerformanceThreshold {
			continue
		}
		topPercent := topPercentOf(stat.BestPercentile)
		performances = append(performances, models.TopPerformance{
			ArtistName:   stat.ArtistName,
			TopPercent:   topPercent,
			TotalListens: stat.TotalListens,
			Message:      fmt.Sprintf("you're in the top %.1f%% of listeners of %s", topPercent, stat.ArtistName),
		})
	}
	return performances
}

// globalPercentile derives the user's overall standing from the single
// best artist percentile. This conflates "best artist standing" with
// "overall taste percentile"; the formula is preserved for
// compatibility with existing clients.
func globalPercentile(stats []models.AggregatedArtistStat) float64 {
	if len(stats) == 0 {
		return neutralPercentile
	}

	best := stats[0].BestPercentile
	for _, stat := range stats[1:] {
		if stat.BestPercentile < best {
			best = stat.BestPercentile
		}
	}
	return best
}

// resolveAlbums batch-fetches album documents keyed by id.
func (e *Engine) resolveAlbums(ctx context.Context, ids []string) (map[string]models.Album, error) {
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
