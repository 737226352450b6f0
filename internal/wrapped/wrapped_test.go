// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package wrapped

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/models"
)

var testNow = time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)

// mockCatalog answers batch album lookups from a fixed set.
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

func (m *mockCatalog) AlbumsByArtists(_ context.Context, _ []string) ([]models.Album, error) {
	return nil, nil
}

func (m *mockCatalog) AlbumsByGenres(_ context.Context, _ []models.Genre) ([]models.Album, error) {
	return nil, nil
}

func (m *mockCatalog) AlbumsBySongTitles(_ context.Context, _ []string) ([]models.Album, error) {
	return nil, nil
}

// mockHistory serves fixed per-user histories.
type mockHistory struct {
	histories map[string]*models.UserHistory
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

func (m *mockHistory) RecordListen(_ context.Context, _ string, _ *models.Album, _ models.Song, _ time.Time) error {
	return nil
}

func (m *mockHistory) DeleteUserData(_ context.Context, _ string) error {
	return nil
}

// mockUsers answers existence checks.
type mockUsers struct {
	known map[string]bool
	err   error
}

func (m *mockUsers) Exists(_ context.Context, userID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.known[userID], nil
}

func newTestEngine(catalog *mockCatalog, history *mockHistory, users *mockUsers) *Engine {
	return NewEngine(catalog, history, users, Config{
		CDNBaseURL:       "https://cdn.harmonium.fm/covers",
		DefaultCoverPath: "/static/cover-placeholder.png",
		Now:              func() time.Time { return testNow },
	}, zerolog.Nop())
}

func thisYear(month time.Month, day, hour int) time.Time {
	return time.Date(testNow.Year(), month, day, hour, 0, 0, 0, time.UTC)
}

func floatsEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeUnknownUser(t *testing.T) {
	engine := newTestEngine(newMockCatalog(), &mockHistory{}, &mockUsers{})

	_, err := engine.Compute(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestComputeEmptyYear(t *testing.T) {
	// All events are from last year; totals zero out and the percentile
	// stays neutral.
	lastYear := testNow.AddDate(-1, 0, 0)
	history := &mockHistory{histories: map[string]*models.UserHistory{
		"u1": {
			UserID: "u1",
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "a1", PlayCount: 9, ListenHistory: []time.Time{lastYear}},
			},
		},
	}}
	engine := newTestEngine(newMockCatalog(), history, &mockUsers{known: map[string]bool{"u1": true}})

	stats, err := engine.Compute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats.TotalListens != 0 {
		t.Errorf("TotalListens = %d, want 0", stats.TotalListens)
	}
	if len(stats.TopAlbums) != 0 || len(stats.TopSongs) != 0 {
		t.Errorf("expected empty top lists, got %d albums, %d songs", len(stats.TopAlbums), len(stats.TopSongs))
	}
	if !floatsEqual(stats.Percentile, neutralPercentile) {
		t.Errorf("Percentile = %v, want %v", stats.Percentile, neutralPercentile)
	}
	if stats.Year != testNow.Year() {
		t.Errorf("Year = %d, want %d", stats.Year, testNow.Year())
	}
}

func TestComputeFullReport(t *testing.T) {
	catalog := newMockCatalog(
		models.Album{ID: "a1", Title: "First", Artist: []string{"Alpha", "Beta"}, Lang: "en", Cover: "covers/first.png"},
		models.Album{ID: "a2", Title: "Second", Artist: []string{"Gamma"}, Cover: "https://img.example/second.png"},
	)
	history := &mockHistory{histories: map[string]*models.UserHistory{
		"u1": {
			UserID: "u1",
			ListenedSongs: []models.ListenedSongStat{
				{SongTitle: "Hit", AlbumID: "a1", PlayCount: 3, ListenHistory: []time.Time{
					thisYear(time.March, 1, 8), thisYear(time.March, 2, 13), thisYear(time.March, 3, 2),
				}},
				{SongTitle: "Deep Cut", AlbumID: "a2", PlayCount: 1, ListenHistory: []time.Time{
					thisYear(time.April, 1, 19),
				}},
			},
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "a1", PlayCount: 3, ListenHistory: []time.Time{
					thisYear(time.March, 1, 8), thisYear(time.March, 2, 13), thisYear(time.March, 3, 2),
				}},
				{AlbumID: "a2", PlayCount: 1, ListenHistory: []time.Time{
					thisYear(time.April, 1, 19),
				}},
			},
		},
		"u2": {
			UserID: "u2",
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "a1", PlayCount: 1, ListenHistory: []time.Time{thisYear(time.May, 5, 10)}},
			},
		},
	}}
	engine := newTestEngine(catalog, history, &mockUsers{known: map[string]bool{"u1": true}})

	stats, err := engine.Compute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if stats.TotalListens != 4 {
		t.Errorf("TotalListens = %d, want 4", stats.TotalListens)
	}

	if len(stats.TopSongs) != 2 {
		t.Fatalf("TopSongs length = %d, want 2", len(stats.TopSongs))
	}
	if stats.TopSongs[0].SongTitle != "Hit" {
		t.Errorf("top song = %q, want Hit", stats.TopSongs[0].SongTitle)
	}
	if stats.TopSongs[0].Artist != "Alpha & Beta" {
		t.Errorf("top song artist = %q, want %q", stats.TopSongs[0].Artist, "Alpha & Beta")
	}

	if len(stats.TopAlbums) != 2 {
		t.Fatalf("TopAlbums length = %d, want 2", len(stats.TopAlbums))
	}
	if stats.TopAlbums[0].Cover != "https://cdn.harmonium.fm/covers/covers%2Ffirst.png" {
		t.Errorf("CDN cover = %q", stats.TopAlbums[0].Cover)
	}
	if stats.TopAlbums[1].Cover != "https://img.example/second.png" {
		t.Errorf("absolute cover = %q", stats.TopAlbums[1].Cover)
	}

	// Buckets: 8h morning, 13h afternoon, 19h evening, 2h night.
	times := stats.ListeningTimes
	if times.Morning != 1 || times.Afternoon != 1 || times.Evening != 1 || times.Night != 1 {
		t.Errorf("ListeningTimes = %+v, want one per bucket", times)
	}

	if stats.LanguageBreakdown["en"] != 3 {
		t.Errorf(`LanguageBreakdown["en"] = %d, want 3`, stats.LanguageBreakdown["en"])
	}
	if stats.LanguageBreakdown[unknownLabel] != 1 {
		t.Errorf(`LanguageBreakdown["Unknown"] = %d, want 1`, stats.LanguageBreakdown[unknownLabel])
	}

	// a1: u1 plays 3 vs population [3,1] -> 1/2*100 = 50.
	// a2: u1 is the only listener -> 0 by convention.
	if len(stats.AlbumPercentiles) != 2 {
		t.Fatalf("AlbumPercentiles length = %d, want 2", len(stats.AlbumPercentiles))
	}
	byAlbum := make(map[string]models.PercentileResult)
	for _, result := range stats.AlbumPercentiles {
		byAlbum[result.AlbumID] = result
	}
	if !floatsEqual(byAlbum["a1"].Percentile, 50) {
		t.Errorf("a1 percentile = %v, want 50", byAlbum["a1"].Percentile)
	}
	if !floatsEqual(byAlbum["a2"].Percentile, 0) {
		t.Errorf("a2 percentile = %v, want 0", byAlbum["a2"].Percentile)
	}

	// Best-of-best across artists: Gamma's a2 standing (0).
	if !floatsEqual(stats.Percentile, 0) {
		t.Errorf("global percentile = %v, want 0", stats.Percentile)
	}
}

func TestComputePercentileUsesLifetimeCounts(t *testing.T) {
	// u1 played a1 ten times overall but only twice this year; u2 has
	// five lifetime plays. Both sides of the percentile rank on the
	// stored lifetime counts, so u1 stands at 10 vs [10,5] = 50, not at
	// the 2 yearly plays vs the lifetime population.
	lastYear := testNow.AddDate(-1, 0, 0)
	u1Events := []time.Time{thisYear(time.February, 1, 9), thisYear(time.February, 2, 9)}
	for i := 0; i < 8; i++ {
		u1Events = append(u1Events, lastYear)
	}

	catalog := newMockCatalog(
		models.Album{ID: "a1", Title: "First", Artist: []string{"Alpha"}},
	)
	history := &mockHistory{histories: map[string]*models.UserHistory{
		"u1": {
			UserID: "u1",
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "a1", PlayCount: 10, ListenHistory: u1Events},
			},
		},
		"u2": {
			UserID: "u2",
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "a1", PlayCount: 5, ListenHistory: []time.Time{thisYear(time.May, 5, 10)}},
			},
		},
	}}
	engine := newTestEngine(catalog, history, &mockUsers{known: map[string]bool{"u1": true}})

	stats, err := engine.Compute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(stats.AlbumPercentiles) != 1 {
		t.Fatalf("AlbumPercentiles length = %d, want 1", len(stats.AlbumPercentiles))
	}
	result := stats.AlbumPercentiles[0]
	if !floatsEqual(result.Percentile, 50) {
		t.Errorf("a1 percentile = %v, want 50", result.Percentile)
	}
	if result.TotalListens != 10 {
		t.Errorf("TotalListens = %d, want 10", result.TotalListens)
	}
}

func TestComputeSingleListenerTopPerformance(t *testing.T) {
	// The sole listener of an album ranks at percentile 0, which clears
	// the top-performance threshold and renders as "top 100.0%".
	catalog := newMockCatalog(
		models.Album{ID: "a1", Title: "Obscure", Artist: []string{"Solo"}},
	)
	history := &mockHistory{histories: map[string]*models.UserHistory{
		"u1": {
			UserID: "u1",
			ListenedAlbums: []models.ListenedAlbumStat{
				{AlbumID: "a1", PlayCount: 2, ListenHistory: []time.Time{
					thisYear(time.June, 1, 20), thisYear(time.June, 2, 20),
				}},
			},
		},
	}}
	engine := newTestEngine(catalog, history, &mockUsers{known: map[string]bool{"u1": true}})

	stats, err := engine.Compute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(stats.TopPerformances) != 1 {
		t.Fatalf("TopPerformances length = %d, want 1", len(stats.TopPerformances))
	}
	performance := stats.TopPerformances[0]
	if performance.ArtistName != "Solo" {
		t.Errorf("ArtistName = %q, want Solo", performance.ArtistName)
	}
	if !floatsEqual(performance.TopPercent, 100.0) {
		t.Errorf("TopPercent = %v, want 100.0", performance.TopPercent)
	}
	want := "you're in the top 100.0% of listeners of Solo"
	if performance.Message != want {
		t.Errorf("Message = %q, want %q", performance.Message, want)
	}
}

func TestPercentileOf(t *testing.T) {
	tests := []struct {
		name      string
		playCount uint64
		counts    []uint64
		want      float64
	}{
		{"no listeners", 5, nil, 0},
		{"single listener", 5, []uint64{5}, 0},
		{"half strictly lower", 3, []uint64{1, 3, 3, 5}, 25},
		{"all lower", 10, []uint64{1, 2, 3, 10}, 75},
		{"lowest count", 1, []uint64{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentileOf(tt.playCount, tt.counts)
			if !floatsEqual(got, tt.want) {
				t.Errorf("percentileOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopPercentOf(t *testing.T) {
	tests := []struct {
		percentile float64
		want       float64
	}{
		{0, 100},
		{50, 50},
		{99.94, 0.1},
		{99.95, 0.1},
		{100, 0.1},
		{87.66, 12.3},
	}
	for _, tt := range tests {
		if got := topPercentOf(tt.percentile); !floatsEqual(got, tt.want) {
			t.Errorf("topPercentOf(%v) = %v, want %v", tt.percentile, got, tt.want)
		}
	}
}

func TestAggregateByArtist(t *testing.T) {
	percentiles := []models.PercentileResult{
		{AlbumID: "a1", ArtistList: []string{"Alpha"}, Percentile: 40, TotalListens: 10},
		{AlbumID: "a2", ArtistList: []string{"Alpha", "Beta"}, Percentile: 5, TotalListens: 4},
	}

	stats := aggregateByArtist(percentiles)
	if len(stats) != 2 {
		t.Fatalf("stats length = %d, want 2", len(stats))
	}

	// Alpha's best percentile is the minimum across both albums; sorting
	// is best-first with name tiebreak.
	if stats[0].ArtistName != "Alpha" || !floatsEqual(stats[0].BestPercentile, 5) {
		t.Errorf("stats[0] = %+v, want Alpha at 5", stats[0])
	}
	if stats[0].TotalListens != 14 {
		t.Errorf("Alpha listens = %d, want 14", stats[0].TotalListens)
	}
	if stats[1].ArtistName != "Beta" || !floatsEqual(stats[1].BestPercentile, 5) {
		t.Errorf("stats[1] = %+v, want Beta at 5", stats[1])
	}
}

func TestTopPerformances(t *testing.T) {
	stats := []models.AggregatedArtistStat{
		{ArtistName: "Elite", BestPercentile: 2.5, TotalListens: 40},
		{ArtistName: "Edge", BestPercentile: 10, TotalListens: 8},
		{ArtistName: "Casual", BestPercentile: 60, TotalListens: 3},
	}

	performances := topPerformances(stats)
	if len(performances) != 2 {
		t.Fatalf("performances length = %d, want 2", len(performances))
	}
	if performances[0].ArtistName != "Elite" {
		t.Errorf("performances[0] = %q, want Elite", performances[0].ArtistName)
	}
	if !floatsEqual(performances[0].TopPercent, 97.5) {
		t.Errorf("TopPercent = %v, want 97.5", performances[0].TopPercent)
	}
	want := "you're in the top 97.5% of listeners of Elite"
	if performances[0].Message != want {
		t.Errorf("Message = %q, want %q", performances[0].Message, want)
	}
}

func TestGlobalPercentile(t *testing.T) {
	if got := globalPercentile(nil); !floatsEqual(got, neutralPercentile) {
		t.Errorf("globalPercentile(nil) = %v, want %v", got, neutralPercentile)
	}
	stats := []models.AggregatedArtistStat{
		{ArtistName: "A", BestPercentile: 20},
		{ArtistName: "B", BestPercentile: 7},
	}
	if got := globalPercentile(stats); !floatsEqual(got, 7) {
		t.Errorf("globalPercentile = %v, want 7", got)
	}
}

func TestResolveCoverURL(t *testing.T) {
	engine := newTestEngine(newMockCatalog(), &mockHistory{}, &mockUsers{})

	tests := []struct {
		name  string
		cover string
		want  string
	}{
		{"empty falls back", "", "/static/cover-placeholder.png"},
		{"absolute http passthrough", "http://img.example/c.png", "http://img.example/c.png"},
		{"absolute https passthrough", "https://img.example/c.png", "https://img.example/c.png"},
		{"relative gets CDN prefix", "c.png", "https://cdn.harmonium.fm/covers/c.png"},
		{"leading slash trimmed", "/c.png", "https://cdn.harmonium.fm/covers/c.png"},
		{"path escaped", "my covers/c.png", "https://cdn.harmonium.fm/covers/my%20covers%2Fc.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.resolveCoverURL(tt.cover); got != tt.want {
				t.Errorf("resolveCoverURL(%q) = %q, want %q", tt.cover, got, tt.want)
			}
		})
	}
}

func TestResolveCoverURL_NoCDNConfigured(t *testing.T) {
	engine := NewEngine(newMockCatalog(), &mockHistory{}, &mockUsers{}, Config{
		Now: func() time.Time { return testNow },
	}, zerolog.Nop())

	if got := engine.resolveCoverURL("c.png"); got != "/static/cover-placeholder.png" {
		t.Errorf("cover = %q, want placeholder", got)
	}
}
