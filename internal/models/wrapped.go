// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package models provides the domain data structures shared across the
// Harmonium backend: catalog documents, listening-history stats and the
// derived recommendation and wrapped-report shapes.
package models

// WrappedSong is a top-song entry in the yearly wrapped report.
type WrappedSong struct {
	SongTitle  string `json:"songTitle"`
	Artist     string `json:"artist"`
	AlbumTitle string `json:"albumTitle"`
	PlayCount  uint64 `json:"playCount"`
}

// WrappedAlbum is a top-album entry in the yearly wrapped report.
// Cover is a fully resolved URL: absolute catalog URLs pass through,
// relative paths are resolved against the CDN base, and failures fall
// back to the default placeholder.
type WrappedAlbum struct {
	AlbumID   string   `json:"albumId"`
	Title     string   `json:"title"`
	Artist    []string `json:"artist"`
	Cover     string   `json:"cover"`
	PlayCount uint64   `json:"playCount"`
}

// ListeningTimes buckets every individual listen timestamp of the year
// by local hour of day: morning [6,12), afternoon [12,18),
// evening [18,24), night [0,6).
type ListeningTimes struct {
	Morning   uint64 `json:"morning"`
	Afternoon uint64 `json:"afternoon"`
	Evening   uint64 `json:"evening"`
	Night     uint64 `json:"night"`
}

// PercentileResult is the user's standing for one album relative to the
// full listener population of that album.
//
// Invariants: Percentile is in [0,100] and TopPercent in [0.1,100]. An
// album with fewer than two total listeners yields Percentile 0 (best)
// by convention, never a value computed from an empty comparison set.
type PercentileResult struct {
	AlbumID      string   `json:"albumId"`
	ArtistList   []string `json:"artistList"`
	Percentile   float64  `json:"percentile"`
	TopPercent   float64  `json:"topPercent"`
	TotalListens uint64   `json:"totalListens"`
}

// AggregatedArtistStat is the user's single best standing across all
// albums by one artist. BestPercentile is the minimum (best) percentile
// across those albums.
type AggregatedArtistStat struct {
	ArtistName     string  `json:"artistName"`
	TotalListens   uint64  `json:"totalListens"`
	BestPercentile float64 `json:"bestPercentile"`
}

// TopPerformance is a rendered "top X% of listeners" entry for an artist
// whose best percentile clears the top-10% threshold.
type TopPerformance struct {
	ArtistName   string  `json:"artistName"`
	TopPercent   float64 `json:"topPercent"`
	TotalListens uint64  `json:"totalListens"`
	Message      string  `json:"message"`
}

// WrappedStats is the complete yearly wrapped report for one user,
// restricted to the current calendar year's listen events.
type WrappedStats struct {
	Year              int                    `json:"year"`
	TopSongs          []WrappedSong          `json:"topSongs"`
	TopAlbums         []WrappedAlbum         `json:"topAlbums"`
	ListeningTimes    ListeningTimes         `json:"listeningTimes"`
	LanguageBreakdown map[string]uint64      `json:"languageBreakdown"`
	AlbumPercentiles  []PercentileResult     `json:"albumPercentiles"`
	ArtistStats       []AggregatedArtistStat `json:"artistStats"`
	TopPerformances   []TopPerformance       `json:"topPerformances"`
	Percentile        float64                `json:"percentile"`
	TotalListens      uint64                 `json:"totalListens"`
}
