// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package store defines the data-store collaborators the engines read
// from, plus their MongoDB implementations. The catalog and history
// collections are owned by the wider platform; this backend treats them
// as read-mostly collaborators and never redesigns their persistence.
package store

import (
	"context"
	"time"

	"github.com/harmonium-fm/harmonium/internal/models"
)

// CatalogStore reads album documents from the catalog collection.
//
// Lookups by id return a nil album (not an error) when the id does not
// resolve; listening-history entries routinely outlive their catalog
// albums, and every call site decides between skip-and-log and
// propagation.
type CatalogStore interface {
	// AlbumByID resolves one album. A nil album with nil error means the
	// id is not in the catalog.
	AlbumByID(ctx context.Context, id string) (*models.Album, error)

	// AlbumsByIDs resolves a batch of album ids in one query. Unknown
	// ids are simply absent from the result; aggregation loops
	// batch-fetch once instead of issuing a read per iteration.
	AlbumsByIDs(ctx context.Context, ids []string) ([]models.Album, error)

	// AlbumsByArtists returns albums carrying at least one of the given
	// artist tags.
	AlbumsByArtists(ctx context.Context, artists []string) ([]models.Album, error)

	// AlbumsByGenres returns albums carrying at least one of the given
	// genre tags.
	AlbumsByGenres(ctx context.Context, genres []models.Genre) ([]models.Album, error)

	// AlbumsBySongTitles returns albums containing a song whose title
	// matches one of the given titles (case-insensitive).
	AlbumsBySongTitles(ctx context.Context, titles []string) ([]models.Album, error)
}

// HistoryStore reads and appends per-user listening history.
type HistoryStore interface {
	// UserHistory returns the user's history document. A user that has
	// never listened to anything yields an empty (non-nil) document.
	UserHistory(ctx context.Context, userID string) (*models.UserHistory, error)

	// AllHistories returns every user's history document. Used by the
	// popularity index and the percentile engine, which batch-fetch once
	// and aggregate in memory.
	AllHistories(ctx context.Context) ([]models.UserHistory, error)

	// RecordListen increments the per-song and per-album counters and
	// appends the listen timestamp, creating stats lazily on first
	// listen.
	RecordListen(ctx context.Context, userID string, album *models.Album, song models.Song, at time.Time) error

	// DeleteUserData removes the user's history document. Part of the
	// best-effort account-deletion cleanup; not atomic across
	// collections.
	DeleteUserData(ctx context.Context, userID string) error
}

// FavoritesStore reads the per-user set of explicitly favorited albums.
type FavoritesStore interface {
	FavoriteAlbumIDs(ctx context.Context, userID string) ([]string, error)
}

// UserStore answers existence checks against the user collection.
type UserStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
}
