// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package models

import "time"

// ListenedSongStat tracks how often a user has played a single song.
// One stat exists per (user, song) pair; it is created lazily on the
// first listen event and mutated (count incremented, timestamp appended)
// on every subsequent one.
type ListenedSongStat struct {
	SongTitle     string      `bson:"songTitle" json:"songTitle"`
	SongFile      string      `bson:"songFile" json:"songFile"`
	AlbumID       string      `bson:"albumId" json:"albumId"`
	PlayCount     uint64      `bson:"playCount" json:"playCount"`
	ListenHistory []time.Time `bson:"listenHistory" json:"listenHistory"`
}

// LastListen returns the most recent listen timestamp, or the zero time
// when no history exists. ListenHistory is append-only and ordered, so
// the last element is the most recent.
func (s *ListenedSongStat) LastListen() time.Time {
	if len(s.ListenHistory) == 0 {
		return time.Time{}
	}
	return s.ListenHistory[len(s.ListenHistory)-1]
}

// ListenedAlbumStat tracks how often a user has played any song of an
// album. Same lifecycle as ListenedSongStat.
type ListenedAlbumStat struct {
	AlbumID       string      `bson:"albumId" json:"albumId"`
	PlayCount     uint64      `bson:"playCount" json:"playCount"`
	ListenHistory []time.Time `bson:"listenHistory" json:"listenHistory"`
}

// LastListen returns the most recent listen timestamp, or the zero time
// when no history exists.
func (s *ListenedAlbumStat) LastListen() time.Time {
	if len(s.ListenHistory) == 0 {
		return time.Time{}
	}
	return s.ListenHistory[len(s.ListenHistory)-1]
}

// UserHistory is the per-user listening history document.
type UserHistory struct {
	UserID         string              `bson:"_id" json:"userId"`
	ListenedSongs  []ListenedSongStat  `bson:"listenedSongs" json:"listenedSongs"`
	ListenedAlbums []ListenedAlbumStat `bson:"listenedAlbums" json:"listenedAlbums"`
}

// IsEmpty reports whether the user has never listened to anything.
func (h *UserHistory) IsEmpty() bool {
	return len(h.ListenedSongs) == 0 && len(h.ListenedAlbums) == 0
}

// UserTasteProfile is the derived summary of a user's listening history.
// It is recomputed per request (or served from a short-TTL cache) and is
// never persisted. Ordering is by descending aggregated play count; ties
// break deterministically within one computation.
type UserTasteProfile struct {
	TopArtists []string  `json:"topArtists"`
	TopGenres  []Genre   `json:"topGenres"`
	TopSongs   []TopSong `json:"topSongs"`
}

// TopSong pairs a frequently played song with its owning album.
type TopSong struct {
	SongTitle string `json:"songTitle"`
	Album     Album  `json:"album"`
}
