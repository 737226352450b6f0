// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package api

import (
	"net/http"
	"strconv"

	"github.com/harmonium-fm/harmonium/internal/recommend"
)

// ListenRequest is the body of POST /api/v1/listens, reporting one
// completed song playback.
type ListenRequest struct {
	AlbumID   string `json:"albumId" validate:"required,max=128"`
	SongTitle string `json:"songTitle" validate:"required,max=512"`
	SongFile  string `json:"songFile" validate:"required,max=1024"`
}

// weightKeys lists the recognized weight-override query parameters of
// the recommendations endpoint.
var weightKeys = []string{
	recommend.WeightSimilarArtists,
	recommend.WeightFavoriteGenres,
	recommend.WeightListenedAlbums,
	recommend.WeightFavoriteSongs,
	recommend.WeightRecency,
	recommend.WeightPopularity,
}

// parseWeightOverrides extracts per-signal weight overrides from query
// parameters, e.g. ?recency=2&favoriteGenres=0. Unknown parameters and
// malformed numbers are ignored; negative values are dropped later by
// the weight merge.
func parseWeightOverrides(r *http.Request) map[string]float64 {
	query := r.URL.Query()
	overrides := make(map[string]float64)
	for _, key := range weightKeys {
		value := query.Get(key)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		overrides[key] = parsed
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}
