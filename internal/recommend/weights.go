// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package recommend

// Weight keys accepted as per-request overrides.
const (
	WeightSimilarArtists = "similarArtists"
	WeightFavoriteGenres = "favoriteGenres"
	WeightListenedAlbums = "listenedAlbums"
	WeightFavoriteSongs  = "favoriteSongs"
	WeightRecency        = "recency"
	WeightPopularity     = "popularity"
)

// Base result counts per category; the effective cap is
// floor(base * category weight).
const (
	baseCountArtists        = 15
	baseCountGenres         = 6
	baseCountListenedAlbums = 8
	baseCountSongs          = 6
)

// Weights tunes the multi-signal ranker. Category weights scale the
// result caps; Recency scales the play-count decay transform and
// Popularity sets the popularity share of each candidate's score.
type Weights struct {
	SimilarArtists float64 `json:"similarArtists"`
	FavoriteGenres float64 `json:"favoriteGenres"`
	ListenedAlbums float64 `json:"listenedAlbums"`
	FavoriteSongs  float64 `json:"favoriteSongs"`
	Recency        float64 `json:"recency"`
	Popularity     float64 `json:"popularity"`
}

// DefaultWeights returns the production defaults.
func DefaultWeights() Weights {
	return Weights{
		SimilarArtists: 4,
		FavoriteGenres: 5,
		ListenedAlbums: 3,
		FavoriteSongs:  2,
		Recency:        1.5,
		Popularity:     1,
	}
}

// Merge overlays caller-supplied weights onto the defaults per key;
// missing keys keep their default. Negative values are ignored.
func (w Weights) Merge(overrides map[string]float64) Weights {
	for key, value := range overrides {
		if value < 0 {
			continue
		}
		switch key {
		case WeightSimilarArtists:
			w.SimilarArtists = value
		case WeightFavoriteGenres:
			w.FavoriteGenres = value
		case WeightListenedAlbums:
			w.ListenedAlbums = value
		case WeightFavoriteSongs:
			w.FavoriteSongs = value
		case WeightRecency:
			w.Recency = value
		case WeightPopularity:
			w.Popularity = value
		}
	}
	return w
}

// popularityShare maps the popularity weight onto the [0,1) share of
// each candidate's score: share = w/(1+w). The share never reaches 1,
// so the random term always contributes and popularity stays a
// tie-breaking signal rather than the sole ranking criterion.
func (w Weights) popularityShare() float64 {
	if w.Popularity <= 0 {
		return 0
	}
	return w.Popularity / (1 + w.Popularity)
}
