// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/auth"
	"github.com/harmonium-fm/harmonium/internal/cache"
	"github.com/harmonium-fm/harmonium/internal/models"
	"github.com/harmonium-fm/harmonium/internal/recommend"
	"github.com/harmonium-fm/harmonium/internal/wrapped"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

// mockCatalog backs the API tests with a fixed album set.
type mockCatalog struct {
	albums map[string]models.Album
}

func newMockCatalog(albums ...models.Album) *mockCatalog {
	byID := make(map[string]models.Album, len(albums))
	for _, album := range albums {
		byID[album.ID] = album
	}
	return &mockCatalog{albums: byID}
}

func (m *mockCatalog) AlbumByID(_ context.Context, id string) (*models.Album, error) {
	album, ok := m.albums[id]
	if !ok {
		return nil, nil
	}
	return &album, nil
}

func (m *mockCatalog) AlbumsByIDs(_ context.Context, ids []string) ([]models.Album, error) {
	var out []models.Album
	for _, id := range ids {
		if album, ok := m.albums[id]; ok {
			out = append(out, album)
		}
	}
	return out, nil
}

func (m *mockCatalog) AlbumsByArtists(_ context.Context, artists []string) ([]models.Album, error) {
	want := make(map[string]struct{}, len(artists))
	for _, a := range artists {
		want[a] = struct{}{}
	}
	var out []models.Album
	for _, album := range m.albums {
		if album.HasAnyArtist(want) {
			out = append(out, album)
		}
	}
	return out, nil
}

func (m *mockCatalog) AlbumsByGenres(_ context.Context, genres []models.Genre) ([]models.Album, error) {
	want := make(map[models.Genre]struct{}, len(genres))
	for _, g := range genres {
		want[g] = struct{}{}
	}
	var out []models.Album
	for _, album := range m.albums {
		if album.HasAnyGenre(want) {
			out = append(out, album)
		}
	}
	return out, nil
}

func (m *mockCatalog) AlbumsBySongTitles(_ context.Context, _ []string) ([]models.Album, error) {
	return nil, nil
}

// mockHistory records listen calls and serves fixed histories.
type mockHistory struct {
	histories map[string]*models.UserHistory
	recorded  []models.Song
	deleted   []string
}

func (m *mockHistory) UserHistory(_ context.Context, userID string) (*models.UserHistory, error) {
	if h, ok := m.histories[userID]; ok {
		return h, nil
	}
	return &models.UserHistory{UserID: userID}, nil
}

func (m *mockHistory) AllHistories(_ context.Context) ([]models.UserHistory, error) {
	out := make([]models.UserHistory, 0, len(m.histories))
	for _, h := range m.histories {
		out = append(out, *h)
	}
	return out, nil
}

func (m *mockHistory) RecordListen(_ context.Context, _ string, _ *models.Album, song models.Song, _ time.Time) error {
	m.recorded = append(m.recorded, song)
	return nil
}

func (m *mockHistory) DeleteUserData(_ context.Context, userID string) error {
	m.deleted = append(m.deleted, userID)
	return nil
}

// mockFavorites serves fixed favorite sets.
type mockFavorites struct {
	favorites map[string][]string
}

func (m *mockFavorites) FavoriteAlbumIDs(_ context.Context, userID string) ([]string, error) {
	return m.favorites[userID], nil
}

// mockUsers answers existence checks.
type mockUsers struct {
	known map[string]bool
}

func (m *mockUsers) Exists(_ context.Context, userID string) (bool, error) {
	return m.known[userID], nil
}

// testBackend bundles the full API stack over in-memory stores.
type testBackend struct {
	server  *httptest.Server
	jwt     *auth.JWTManager
	history *mockHistory
}

func newTestBackend(t *testing.T, catalog *mockCatalog, history *mockHistory, users *mockUsers, ready func(ctx context.Context) error) *testBackend {
	t.Helper()

	logger := zerolog.Nop()
	extractor := recommend.NewExtractor(catalog, history, cache.NewLRU(16, time.Minute), logger)
	popularity := recommend.NewPopularityIndex(history, cache.New(time.Hour), time.Hour, logger)
	ranker := recommend.NewRanker(
		catalog, history, &mockFavorites{}, extractor, popularity,
		cache.New(time.Hour), recommend.RankerConfig{Seed: 7}, logger,
	)
	engine := wrapped.NewEngine(catalog, history, users, wrapped.Config{}, logger)

	if ready == nil {
		ready = func(context.Context) error { return nil }
	}

	jwtManager := auth.NewJWTManager(testJWTSecret, time.Hour)
	middleware := NewMiddleware(MiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitDisabled:  true,
		RequestTimeout:     10 * time.Second,
	}, jwtManager)
	handler := NewHandler(ranker, extractor, engine, catalog, history, ready, logger)

	server := httptest.NewServer(NewRouter(handler, middleware).Setup())
	t.Cleanup(server.Close)

	return &testBackend{server: server, jwt: jwtManager, history: history}
}

func (b *testBackend) request(t *testing.T, method, path, userID string, body string) (*http.Response, *models.APIResponse) {
	t.Helper()

	req, err := http.NewRequest(method, b.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if userID != "" {
		token, err := b.jwt.GenerateToken(userID)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, &envelope
}

func assertErrorCode(t *testing.T, envelope *models.APIResponse, code string) {
	t.Helper()
	if envelope.Status != "error" {
		t.Fatalf("status = %q, want error", envelope.Status)
	}
	if envelope.Error == nil || envelope.Error.Code != code {
		t.Fatalf("error = %+v, want code %q", envelope.Error, code)
	}
}

func TestAPIUnauthorized(t *testing.T) {
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, nil)

	resp, envelope := backend.request(t, http.MethodGet, "/api/v1/recommendations", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	assertErrorCode(t, envelope, "UNAUTHORIZED")
}

func TestAPIInvalidToken(t *testing.T) {
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, nil)

	req, _ := http.NewRequest(http.MethodGet, backend.server.URL+"/api/v1/recommendations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRecommendationsNoHistory(t *testing.T) {
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, nil)

	resp, envelope := backend.request(t, http.MethodGet, "/api/v1/recommendations", "u1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	assertErrorCode(t, envelope, "NO_LISTENING_HISTORY")
}

func TestRecommendationsCachedFlag(t *testing.T) {
	catalog := newMockCatalog(
		models.Album{ID: "l1", Artist: []string{"Alpha"}},
		models.Album{ID: "c1", Artist: []string{"Alpha"}},
	)
	history := &mockHistory{histories: map[string]*models.UserHistory{
		"u1": {
			UserID: "u1",
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "l1", PlayCount: 3, ListenHistory: []time.Time{time.Now().Add(-time.Hour)}},
			},
		},
	}}
	backend := newTestBackend(t, catalog, history, &mockUsers{}, nil)

	resp, envelope := backend.request(t, http.MethodGet, "/api/v1/recommendations", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Fatalf("status = %q, want success", envelope.Status)
	}
	if envelope.Metadata.Cached {
		t.Error("first response must not be cached")
	}

	_, envelope = backend.request(t, http.MethodGet, "/api/v1/recommendations", "u1", "")
	if !envelope.Metadata.Cached {
		t.Error("second response should be served from cache")
	}

	_, envelope = backend.request(t, http.MethodGet, "/api/v1/recommendations?forceRefresh=true", "u1", "")
	if envelope.Metadata.Cached {
		t.Error("forceRefresh must bypass the cache")
	}
}

func TestWrappedUnknownUser(t *testing.T) {
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, nil)

	resp, envelope := backend.request(t, http.MethodGet, "/api/v1/wrapped", "ghost", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	assertErrorCode(t, envelope, "USER_NOT_FOUND")
}

func TestWrappedKnownUser(t *testing.T) {
	users := &mockUsers{known: map[string]bool{"u1": true}}
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, users, nil)

	resp, envelope := backend.request(t, http.MethodGet, "/api/v1/wrapped", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Errorf("status = %q, want success", envelope.Status)
	}
}

func TestRecordListen(t *testing.T) {
	catalog := newMockCatalog(models.Album{ID: "a1", Title: "Album"})
	history := &mockHistory{}
	backend := newTestBackend(t, catalog, history, &mockUsers{}, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid listen",
			body:       `{"albumId":"a1","songTitle":"Hit","songFile":"hit.flac"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"albumId":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_BODY",
		},
		{
			name:       "missing fields",
			body:       `{"albumId":"a1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "unknown album",
			body:       `{"albumId":"nope","songTitle":"Hit","songFile":"hit.flac"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "ALBUM_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, envelope := backend.request(t, http.MethodPost, "/api/v1/listens", "u1", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode != "" {
				assertErrorCode(t, envelope, tt.wantCode)
			}
		})
	}

	if len(history.recorded) != 1 || history.recorded[0].Title != "Hit" {
		t.Errorf("recorded = %+v, want one Hit entry", history.recorded)
	}
}

func TestDeleteUserData(t *testing.T) {
	history := &mockHistory{histories: map[string]*models.UserHistory{"u1": {UserID: "u1"}}}
	backend := newTestBackend(t, newMockCatalog(), history, &mockUsers{}, nil)

	resp, envelope := backend.request(t, http.MethodDelete, "/api/v1/me", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Errorf("status = %q, want success", envelope.Status)
	}
	if len(history.deleted) != 1 || history.deleted[0] != "u1" {
		t.Errorf("deleted = %v, want [u1]", history.deleted)
	}
}

func TestHealthEndpoints(t *testing.T) {
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, nil)

	// Liveness needs no auth.
	resp, envelope := backend.request(t, http.MethodGet, "/healthz/live", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Errorf("live envelope = %q, want success", envelope.Status)
	}

	resp, _ = backend.request(t, http.MethodGet, "/healthz/ready", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200", resp.StatusCode)
	}
}

func TestHealthReadyDatabaseDown(t *testing.T) {
	down := func(context.Context) error { return errors.New("no reachable servers") }
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, down)

	resp, envelope := backend.request(t, http.MethodGet, "/healthz/ready", "", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	assertErrorCode(t, envelope, "NOT_READY")
}

func TestRequestIDHeader(t *testing.T) {
	backend := newTestBackend(t, newMockCatalog(), &mockHistory{}, &mockUsers{}, nil)

	resp, _ := backend.request(t, http.MethodGet, "/healthz/live", "", "")
	if resp.Header.Get(requestIDHeader) == "" {
		t.Error("response missing request id header")
	}
}
