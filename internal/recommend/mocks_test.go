// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/harmonium-fm/harmonium/internal/models"
)

// mockCatalog is an in-memory CatalogStore backed by a fixed album set.
type mockCatalog struct {
	albums map[string]models.Album
	err    error
}

func newMockCatalog(albums ...models.Album) *mockCatalog {
	byID := make(map[string]models.Album, len(albums))
	for _, album := range albums {
		byID[album.ID] = album
	}
	return &mockCatalog{albums: byID}
}

func (m *mockCatalog) AlbumByID(_ context.Context, id string) (*models.Album, error) {
	if m.err != nil {
		return nil, m.err
	}
	album, ok := m.albums[id]
	if !ok {
		return nil, nil
	}
	return &album, nil
}

func (m *mockCatalog) AlbumsByIDs(_ context.Context, ids []string) ([]models.Album, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Album
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if album, ok := m.albums[id]; ok {
			out = append(out, album)
		}
	}
	return out, nil
}

func (m *mockCatalog) AlbumsByArtists(_ context.Context, artists []string) ([]models.Album, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]struct{}, len(artists))
	for _, a := range artists {
		want[a] = struct{}{}
	}
	var out []models.Album
	for _, album := range m.sorted() {
		if album.HasAnyArtist(want) {
			out = append(out, album)
		}
	}
	return out, nil
}

func (m *mockCatalog) AlbumsByGenres(_ context.Context, genres []models.Genre) ([]models.Album, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[models.Genre]struct{}, len(genres))
	for _, g := range genres {
		want[g] = struct{}{}
	}
	var out []models.Album
	for _, album := range m.sorted() {
		if album.HasAnyGenre(want) {
			out = append(out, album)
		}
	}
	return out, nil
}

func (m *mockCatalog) AlbumsBySongTitles(_ context.Context, titles []string) ([]models.Album, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		want[normalizeSongTitle(title)] = struct{}{}
	}
	var out []models.Album
	for _, album := range m.sorted() {
		for _, song := range album.Songs {
			if _, ok := want[normalizeSongTitle(song.Title)]; ok {
				out = append(out, album)
				break
			}
		}
	}
	return out, nil
}

// sorted returns the album set in deterministic id order.
func (m *mockCatalog) sorted() []models.Album {
	out := make([]models.Album, 0, len(m.albums))
	for _, album := range m.albums {
		out = append(out, album)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// mockHistory is an in-memory HistoryStore.
type mockHistory struct {
	histories map[string]*models.UserHistory
	err       error
	deleted   []string
}

func newMockHistory(histories ...*models.UserHistory) *mockHistory {
	byID := make(map[string]*models.UserHistory, len(histories))
	for _, h := range histories {
		byID[h.UserID] = h
	}
	return &mockHistory{histories: byID}
}

func (m *mockHistory) UserHistory(_ context.Context, userID string) (*models.UserHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	if h, ok := m.histories[userID]; ok {
		return h, nil
	}
	return &models.UserHistory{UserID: userID}, nil
}

func (m *mockHistory) AllHistories(_ context.Context) ([]models.UserHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.histories))
	for id := range m.histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.UserHistory, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.histories[id])
	}
	return out, nil
}

func (m *mockHistory) RecordListen(_ context.Context, _ string, _ *models.Album, _ models.Song, _ time.Time) error {
	return m.err
}

func (m *mockHistory) DeleteUserData(_ context.Context, userID string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, userID)
	delete(m.histories, userID)
	return nil
}

// mockFavorites is an in-memory FavoritesStore.
type mockFavorites struct {
	favorites map[string][]string
	err       error
}

func (m *mockFavorites) FavoriteAlbumIDs(_ context.Context, userID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.favorites[userID], nil
}
