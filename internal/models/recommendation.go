// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package models

// RecommendedAlbum is a single album entry in a recommendation list.
// Title has the display normalization applied (label prefix stripped,
// trimmed, diacritics removed).
type RecommendedAlbum struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Artist []string `json:"artist"`
	Genre  []Genre  `json:"genre"`
	Cover  string   `json:"cover"`
}

// RecommendedSong is a single song entry in a recommendation list.
type RecommendedSong struct {
	Title       string   `json:"title"`
	File        string   `json:"file"`
	AlbumID     string   `json:"albumId"`
	AlbumTitle  string   `json:"albumTitle"`
	AlbumArtist []string `json:"albumArtist"`
}

// RecommendationResult is the complete per-user recommendation set:
// five independently computed, independently capped lists.
//
// Cross-list invariant: no album id appears twice across the four album
// lists combined, and no (lowercased, trimmed) song title appears twice
// in SimilarToLikedSongs.
type RecommendationResult struct {
	BasedOnArtists        []RecommendedAlbum `json:"basedOnArtists"`
	BasedOnGenres         []RecommendedAlbum `json:"basedOnGenres"`
	FavoriteAlbums        []RecommendedAlbum `json:"favoriteAlbums"`
	SimilarToLikedSongs   []RecommendedSong  `json:"similarToLikedSongs"`
	BasedOnListenedAlbums []RecommendedAlbum `json:"basedOnListenedAlbums"`
}
