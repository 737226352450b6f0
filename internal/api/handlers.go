// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/harmonium-fm/harmonium/internal/metrics"
	"github.com/harmonium-fm/harmonium/internal/models"
	"github.com/harmonium-fm/harmonium/internal/recommend"
	"github.com/harmonium-fm/harmonium/internal/store"
	"github.com/harmonium-fm/harmonium/internal/wrapped"
)

// Handler serves the HTTP API. All data handlers derive the user
// identity from the authenticated request context.
type Handler struct {
	ranker    *recommend.Ranker
	extractor *recommend.Extractor
	wrapped   *wrapped.Engine
	catalog   store.CatalogStore
	history   store.HistoryStore

	// ready reports backend readiness (database reachability).
	ready func(ctx context.Context) error

	logger zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(
	ranker *recommend.Ranker,
	extractor *recommend.Extractor,
	wrappedEngine *wrapped.Engine,
	catalog store.CatalogStore,
	history store.HistoryStore,
	ready func(ctx context.Context) error,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		ranker:    ranker,
		extractor: extractor,
		wrapped:   wrappedEngine,
		catalog:   catalog,
		history:   history,
		ready:     ready,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Recommendations handles GET /api/v1/recommendations.
//
// Query parameters:
//   - forceRefresh: bypass the per-day result cache
//   - similarArtists, favoriteGenres, listenedAlbums, favoriteSongs,
//     recency, popularity: per-signal weight overrides
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	forceRefresh := getBoolParam(r, "forceRefresh", false)
	overrides := parseWeightOverrides(r)

	start := time.Now()
	result, cached, err := h.ranker.Generate(r.Context(), userID, overrides, forceRefresh)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordRecommendation("fresh", elapsed, err)
		if errors.Is(err, recommend.ErrNoListeningHistory) {
			respondError(w, http.StatusNotFound, "NO_LISTENING_HISTORY", "User has no listening history", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_FAILED", "Failed to generate recommendations", err)
		return
	}

	source := "fresh"
	if cached {
		source = "cache"
	}
	metrics.RecordRecommendation(source, elapsed, nil)

	respondSuccess(w, result, models.Metadata{
		Timestamp:   time.Now(),
		QueryTimeMS: elapsed.Milliseconds(),
		Cached:      cached,
	})
}

// Wrapped handles GET /api/v1/wrapped, the yearly listening report.
func (h *Handler) Wrapped(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	start := time.Now()
	stats, err := h.wrapped.Compute(r.Context(), userID)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordWrappedReport(time.Now().Year(), elapsed, err)
		if errors.Is(err, wrapped.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "WRAPPED_FAILED", "Failed to compute wrapped statistics", err)
		return
	}
	metrics.RecordWrappedReport(stats.Year, elapsed, nil)

	respondSuccess(w, stats, models.Metadata{
		Timestamp:   time.Now(),
		QueryTimeMS: elapsed.Milliseconds(),
	})
}

// Profile handles GET /api/v1/profile, returning the user's taste
// profile (top artists, genres and songs).
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	profile, err := h.extractor.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "PROFILE_FAILED", "Failed to build taste profile", err)
		return
	}

	respondSuccess(w, profile, models.Metadata{Timestamp: time.Now()})
}

// RecordListen handles POST /api/v1/listens, recording one completed
// playback into the user's history.
func (h *Handler) RecordListen(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req ListenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	album, err := h.catalog.AlbumByID(r.Context(), req.AlbumID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LISTEN_FAILED", "Failed to resolve album", err)
		return
	}
	if album == nil {
		respondError(w, http.StatusNotFound, "ALBUM_NOT_FOUND", "Album not found", nil)
		return
	}

	song := models.Song{Title: req.SongTitle, File: req.SongFile}
	err = h.history.RecordListen(r.Context(), userID, album, song, time.Now())
	metrics.RecordListenEvent(err)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LISTEN_FAILED", "Failed to record listen event", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"result": "recorded"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// DeleteUserData handles DELETE /api/v1/me, removing the user's
// listening history and dropping cached recommendations.
func (h *Handler) DeleteUserData(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if err := h.history.DeleteUserData(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete user data", err)
		return
	}
	h.ranker.InvalidateUser(userID)

	h.logger.Info().Str("userId", sanitizeLogValue(userID)).Msg("user data deleted")
	respondSuccess(w, map[string]string{"result": "deleted"}, models.Metadata{Timestamp: time.Now()})
}

// HealthLive handles GET /healthz/live; the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, map[string]string{"status": "alive"}, models.Metadata{Timestamp: time.Now()})
}

// HealthReady handles GET /healthz/ready; the database is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Database not reachable", err)
		return
	}
	respondSuccess(w, map[string]string{"status": "ready"}, models.Metadata{Timestamp: time.Now()})
}
