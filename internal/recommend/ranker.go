// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/cache"
	"github.com/harmonium-fm/harmonium/internal/metrics"
	"github.com/harmonium-fm/harmonium/internal/models"
	"github.com/harmonium-fm/harmonium/internal/store"
)

// Number of recency-weighted listened albums whose artists and genres
// seed the "based on listened albums" category.
const listenedAlbumSeeds = 8

// Entries returned when a fallback rescues an emptied favorite-albums
// category.
const favoriteFallbackCount = 3

// Cap for the favorite-albums category before alphabetical sorting.
const favoriteSampleCount = 15

// RankerConfig carries the injectable knobs of the ranker.
type RankerConfig struct {
	// Seed seeds the scoring random source. Zero selects a time-based
	// seed; tests pass a fixed seed for reproducible ranking order.
	Seed int64

	// Now is the clock used for recency weighting and the per-day cache
	// key. Defaults to time.Now.
	Now func() time.Time

	// Weights are the default signal weights, merged under any
	// per-request overrides.
	Weights Weights
}

// Ranker produces the per-user multi-signal recommendation sets.
// It is safe for concurrent use.
type Ranker struct {
	catalog    store.CatalogStore
	history    store.HistoryStore
	favorites  store.FavoritesStore
	extractor  *Extractor
	popularity *PopularityIndex

	// results caches one recommendation set per user per calendar day.
	// New listen events do not invalidate it; only expiry or an
	// explicit force refresh does.
	results *cache.Cache

	defaults Weights
	now      func() time.Time

	rng   *rand.Rand
	rngMu sync.Mutex

	logger zerolog.Logger
}

// NewRanker creates a recommendation ranker.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRanker(
	catalog store.CatalogStore,
	history store.HistoryStore,
	favorites store.FavoritesStore,
	extractor *Extractor,
	popularity *PopularityIndex,
	results *cache.Cache,
	cfg RankerConfig,
	logger zerolog.Logger,
) *Ranker {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	defaults := cfg.Weights
	if defaults == (Weights{}) {
		defaults = DefaultWeights()
	}

	return &Ranker{
		catalog:    catalog,
		history:    history,
		favorites:  favorites,
		extractor:  extractor,
		popularity: popularity,
		results:    results,
		defaults:   defaults,
		now:        now,
		rng:        rand.New(rand.NewSource(seed)), //nolint:gosec // recommendation shuffling needs no crypto entropy
		logger:     logger.With().Str("component", "ranker").Logger(),
	}
}

// Generate computes the recommendation set for a user, serving the
// cached per-day set unless forceRefresh is set. The returned bool
// reports whether the set came from cache. Returns
// ErrNoListeningHistory when the user has never listened to anything.
func (r *Ranker) Generate(ctx context.Context, userID string, overrides map[string]float64, forceRefresh bool) (*models.RecommendationResult, bool, error) {
	start := r.now()
	logger := r.logger.With().Str("userId", userID).Logger()

	history, err := r.history.UserHistory(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("load history: %w", err)
	}
	if history.IsEmpty() {
		return nil, false, ErrNoListeningHistory
	}

	key := r.cacheKey(userID)
	if !forceRefresh {
		if cached, ok := r.results.Get(key); ok {
			if result, ok := cached.(*models.RecommendationResult); ok {
				metrics.RecordCacheHit("recommendation")
				logger.Debug().Msg("serving cached recommendations")
				return result, true, nil
			}
		}
		metrics.RecordCacheMiss("recommendation")
	}

	weights := r.defaults.Merge(overrides)

	popularity, err := r.popularity.AlbumPopularity(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load popularity index: %w", err)
	}
	scorer := newScorer(r, popularity, weights.popularityShare())

	listened := listenedAlbumSet(history)
	weightedAlbums := WeightAlbumStatsByRecency(history.ListenedAlbums, weights.Recency, r.now())

	favoriteArtists, err := r.extractor.FavoriteArtists(ctx, weightedAlbums)
	if err != nil {
		return nil, false, fmt.Errorf("extract favorite artists: %w", err)
	}
	favoriteGenres, err := r.extractor.FavoriteGenres(ctx, weightedAlbums)
	if err != nil {
		return nil, false, fmt.Errorf("extract favorite genres: %w", err)
	}
	topSongs, err := r.extractor.TopListenedSongs(ctx, history.ListenedSongs, maxTopSongs)
	if err != nil {
		return nil, false, fmt.Errorf("extract top songs: %w", err)
	}

	byArtists, err := r.artistCategory(ctx, favoriteArtists, listened, scorer, weights)
	if err != nil {
		return nil, false, err
	}
	byGenres, err := r.genreCategory(ctx, favoriteGenres, listened, scorer, weights)
	if err != nil {
		return nil, false, err
	}
	favoriteAlbums, err := r.favoriteCategory(ctx, userID, listened)
	if err != nil {
		return nil, false, err
	}
	byListened, err := r.listenedCategory(ctx, weightedAlbums, listened, scorer, weights)
	if err != nil {
		return nil, false, err
	}
	similarSongs, err := r.songCategory(ctx, topSongs, scorer, weights)
	if err != nil {
		return nil, false, err
	}

	result := dedupResult(byArtists, byGenres, favoriteAlbums, byListened, similarSongs)
	r.results.Set(key, result)

	logger.Debug().
		Int("byArtists", len(result.BasedOnArtists)).
		Int("byGenres", len(result.BasedOnGenres)).
		Int("favorites", len(result.FavoriteAlbums)).
		Int("songs", len(result.SimilarToLikedSongs)).
		Int("byListened", len(result.BasedOnListenedAlbums)).
		Dur("elapsed", r.now().Sub(start)).
		Msg("recommendations generated")

	return result, false, nil
}

// InvalidateUser drops the user's cached set for today. Used by the
// account-deletion path.
func (r *Ranker) InvalidateUser(userID string) {
	r.results.Delete(r.cacheKey(userID))
}

// cacheKey builds the per-user per-calendar-day cache key.
func (r *Ranker) cacheKey(userID string) string {
	return fmt.Sprintf("recs:%s:%s", userID, r.now().Format("2006-01-02"))
}

// artistCategory ranks catalog albums by the user's favorite artists.
func (r *Ranker) artistCategory(ctx context.Context, artists []string, listened map[string]struct{}, score *scorer, weights Weights) ([]models.RecommendedAlbum, error) {
	candidates, err := r.catalog.AlbumsByArtists(ctx, artists)
	if err != nil {
		return nil, fmt.Errorf("artist candidates: %w", err)
	}
	return r.rankCategory(candidates, listened, score, categoryCap(baseCountArtists, weights.SimilarArtists)), nil
}

// genreCategory ranks catalog albums by the user's favorite genres.
func (r *Ranker) genreCategory(ctx context.Context, genres []models.Genre, listened map[string]struct{}, score *scorer, weights Weights) ([]models.RecommendedAlbum, error) {
	candidates, err := r.catalog.AlbumsByGenres(ctx, genres)
	if err != nil {
		return nil, fmt.Errorf("genre candidates: %w", err)
	}
	return r.rankCategory(candidates, listened, score, categoryCap(baseCountGenres, weights.FavoriteGenres)), nil
}

// listenedCategory seeds on the top recency-weighted listened albums
// and ranks catalog albums sharing an artist or genre with them.
func (r *Ranker) listenedCategory(ctx context.Context, weighted []models.ListenedAlbumStat, listened map[string]struct{}, score *scorer, weights Weights) ([]models.RecommendedAlbum, error) {
	seeds := make([]models.ListenedAlbumStat, len(weighted))
	copy(seeds, weighted)
	sort.SliceStable(seeds, func(i, j int) bool {
		if seeds[i].PlayCount != seeds[j].PlayCount {
			return seeds[i].PlayCount > seeds[j].PlayCount
		}
		return seeds[i].AlbumID < seeds[j].AlbumID
	})
	if len(seeds) > listenedAlbumSeeds {
		seeds = seeds[:listenedAlbumSeeds]
	}

	ids := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		ids = append(ids, seed.AlbumID)
	}
	seedAlbums, err := r.catalog.AlbumsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve seed albums: %w", err)
	}

	artistSet := make(map[string]struct{})
	genreSet := make(map[models.Genre]struct{})
	for _, album := range seedAlbums {
		for _, artist := range album.Artist {
			artistSet[artist] = struct{}{}
		}
		for _, genre := range album.Genre {
			genreSet[genre] = struct{}{}
		}
	}

	artists := make([]string, 0, len(artistSet))
	for artist := range artistSet {
		artists = append(artists, artist)
	}
	genres := make([]models.Genre, 0, len(genreSet))
	for genre := range genreSet {
		genres = append(genres, genre)
	}

	byArtist, err := r.catalog.AlbumsByArtists(ctx, artists)
	if err != nil {
		return nil, fmt.Errorf("listened-album artist candidates: %w", err)
	}
	byGenre, err := r.catalog.AlbumsByGenres(ctx, genres)
	if err != nil {
		return nil, fmt.Errorf("listened-album genre candidates: %w", err)
	}

	seen := make(map[string]struct{}, len(byArtist)+len(byGenre))
	candidates := make([]models.Album, 0, len(byArtist)+len(byGenre))
	for _, album := range append(byArtist, byGenre...) {
		if _, dup := seen[album.ID]; dup {
			continue
		}
		seen[album.ID] = struct{}{}
		candidates = append(candidates, album)
	}

	return r.rankCategory(candidates, listened, score, categoryCap(baseCountListenedAlbums, weights.ListenedAlbums)), nil
}

// favoriteCategory starts from the user's explicitly favorited albums,
// expands to same-artist albums the user hasn't favorited, filters out
// already-listened albums, random-samples to the category size and
// sorts alphabetically. This category surfaces catalog breadth from
// known-liked artists rather than optimizing a relevance score.
//
// When the listened filter empties a non-empty candidate set, the first
// few pre-filter entries are returned instead of an empty list.
func (r *Ranker) favoriteCategory(ctx context.Context, userID string, listened map[string]struct{}) ([]models.RecommendedAlbum, error) {
	favoriteIDs, err := r.favorites.FavoriteAlbumIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if len(favoriteIDs) == 0 {
		return nil, nil
	}

	favorited, err := r.catalog.AlbumsByIDs(ctx, favoriteIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve favorites: %w", err)
	}

	favoritedSet := make(map[string]struct{}, len(favoriteIDs))
	for _, id := range favoriteIDs {
		favoritedSet[id] = struct{}{}
	}

	artistSet := make(map[string]struct{})
	for _, album := range favorited {
		for _, artist := range album.Artist {
			artistSet[artist] = struct{}{}
		}
	}
	artists := make([]string, 0, len(artistSet))
	for artist := range artistSet {
		artists = append(artists, artist)
	}
	sort.Strings(artists)

	expansion, err := r.catalog.AlbumsByArtists(ctx, artists)
	if err != nil {
		return nil, fmt.Errorf("favorite expansion: %w", err)
	}

	pre := make([]models.Album, 0, len(favorited)+len(expansion))
	seen := make(map[string]struct{}, len(favorited)+len(expansion))
	for _, album := range favorited {
		if _, dup := seen[album.ID]; dup {
			continue
		}
		seen[album.ID] = struct{}{}
		pre = append(pre, album)
	}
	for _, album := range expansion {
		if _, dup := seen[album.ID]; dup {
			continue
		}
		if _, isFavorite := favoritedSet[album.ID]; isFavorite {
			continue
		}
		seen[album.ID] = struct{}{}
		pre = append(pre, album)
	}

	post := make([]models.Album, 0, len(pre))
	for _, album := range pre {
		if _, done := listened[album.ID]; done {
			continue
		}
		post = append(post, album)
	}
	if len(post) == 0 && len(pre) > 0 {
		post = pre
		if len(post) > favoriteFallbackCount {
			post = post[:favoriteFallbackCount]
		}
	}

	if len(post) > favoriteSampleCount {
		r.rngMu.Lock()
		r.rng.Shuffle(len(post), func(i, j int) {
			post[i], post[j] = post[j], post[i]
		})
		r.rngMu.Unlock()
		post = post[:favoriteSampleCount]
	}

	results := formatAlbums(post)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Title < results[j].Title
	})

	return results, nil
}

// songCategory finds catalog songs matching the user's top-listened
// titles and shuffles them with a popularity-biased random sort.
func (r *Ranker) songCategory(ctx context.Context, topSongs []models.TopSong, score *scorer, weights Weights) ([]models.RecommendedSong, error) {
	limit := categoryCap(baseCountSongs, weights.FavoriteSongs)
	if limit <= 0 || len(topSongs) == 0 {
		return nil, nil
	}

	titles := make([]string, 0, len(topSongs))
	titleSet := make(map[string]struct{}, len(topSongs))
	for _, song := range topSongs {
		titles = append(titles, song.SongTitle)
		titleSet[normalizeSongTitle(song.SongTitle)] = struct{}{}
	}

	matching, err := r.catalog.AlbumsBySongTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("song candidates: %w", err)
	}

	type scoredSong struct {
		song  models.RecommendedSong
		score float64
	}

	var scored []scoredSong
	for _, album := range matching {
		for _, song := range album.Songs {
			if _, match := titleSet[normalizeSongTitle(song.Title)]; !match {
				continue
			}
			scored = append(scored, scoredSong{
				song: models.RecommendedSong{
					Title:       FormatTitle(song.Title),
					File:        song.File,
					AlbumID:     album.ID,
					AlbumTitle:  FormatTitle(album.Title),
					AlbumArtist: album.Artist,
				},
				score: score.score(album.ID),
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	seen := make(map[string]struct{}, len(scored))
	results := make([]models.RecommendedSong, 0, limit)
	for _, entry := range scored {
		key := normalizeSongTitle(entry.song.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, entry.song)
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// rankCategory scores candidates, drops already-listened albums, sorts
// by score descending and caps the list.
func (r *Ranker) rankCategory(candidates []models.Album, listened map[string]struct{}, score *scorer, limit int) []models.RecommendedAlbum {
	if limit <= 0 {
		return nil
	}

	type scoredAlbum struct {
		album models.Album
		score float64
	}

	scored := make([]scoredAlbum, 0, len(candidates))
	for _, album := range candidates {
		if _, done := listened[album.ID]; done {
			continue
		}
		scored = append(scored, scoredAlbum{album: album, score: score.score(album.ID)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]models.RecommendedAlbum, 0, len(scored))
	for _, entry := range scored {
		results = append(results, formatAlbum(entry.album))
	}
	return results
}

// scorer computes per-candidate scores mixing randomization with
// normalized popularity: random * (1 - share) + (pop / maxPop) * share.
// The random term keeps result sets diverse across users with identical
// taste profiles.
type scorer struct {
	ranker     *Ranker
	popularity map[string]uint64
	maxPop     float64
	share      float64
}

func newScorer(r *Ranker, popularity map[string]uint64, share float64) *scorer {
	return &scorer{
		ranker:     r,
		popularity: popularity,
		maxPop:     float64(maxCount(popularity)),
		share:      share,
	}
}

func (s *scorer) score(albumID string) float64 {
	s.ranker.rngMu.Lock()
	random := s.ranker.rng.Float64()
	s.ranker.rngMu.Unlock()

	popNorm := float64(s.popularity[albumID]) / s.maxPop
	return random*(1-s.share) + popNorm*s.share
}

// categoryCap computes floor(base * weight).
func categoryCap(base int, weight float64) int {
	return int(math.Floor(float64(base) * weight))
}

// listenedAlbumSet collects the album ids the user has listened to,
// from both album and song stats.
func listenedAlbumSet(history *models.UserHistory) map[string]struct{} {
	listened := make(map[string]struct{}, len(history.ListenedAlbums))
	for _, stat := range history.ListenedAlbums {
		listened[stat.AlbumID] = struct{}{}
	}
	for _, stat := range history.ListenedSongs {
		listened[stat.AlbumID] = struct{}{}
	}
	return listened
}

// formatAlbum maps a catalog album to its recommendation shape with the
// display title normalization applied.
func formatAlbum(album models.Album) models.RecommendedAlbum {
	return models.RecommendedAlbum{
		ID:     album.ID,
		Title:  FormatTitle(album.Title),
		Artist: album.Artist,
		Genre:  album.Genre,
		Cover:  album.Cover,
	}
}

func formatAlbums(albums []models.Album) []models.RecommendedAlbum {
	results := make([]models.RecommendedAlbum, 0, len(albums))
	for _, album := range albums {
		results = append(results, formatAlbum(album))
	}
	return results
}

// dedupResult applies the cross-category first-seen-wins dedup in the
// fixed evaluation order: artists, genres, favorites, listened albums.
// Songs are deduped separately by normalized title inside songCategory.
//
// When dedup empties a non-empty favorite-albums list, the first few
// pre-dedup entries are restored so the UI section never renders empty.
func dedupResult(byArtists, byGenres, favorites, byListened []models.RecommendedAlbum, songs []models.RecommendedSong) *models.RecommendationResult {
	seen := make(map[string]struct{})

	keep := func(list []models.RecommendedAlbum) []models.RecommendedAlbum {
		kept := make([]models.RecommendedAlbum, 0, len(list))
		for _, album := range list {
			if _, dup := seen[album.ID]; dup {
				continue
			}
			seen[album.ID] = struct{}{}
			kept = append(kept, album)
		}
		return kept
	}

	dedupedArtists := keep(byArtists)
	dedupedGenres := keep(byGenres)
	dedupedFavorites := keep(favorites)
	dedupedListened := keep(byListened)

	if len(dedupedFavorites) == 0 && len(favorites) > 0 {
		fallback := favorites
		if len(fallback) > favoriteFallbackCount {
			fallback = fallback[:favoriteFallbackCount]
		}
		dedupedFavorites = fallback
	}

	return &models.RecommendationResult{
		BasedOnArtists:        dedupedArtists,
		BasedOnGenres:         dedupedGenres,
		FavoriteAlbums:        dedupedFavorites,
		SimilarToLikedSongs:   songs,
		BasedOnListenedAlbums: dedupedListened,
	}
}
