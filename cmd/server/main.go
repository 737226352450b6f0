// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

// Package main is the entry point for the Harmonium backend.
//
// Harmonium serves personalized album and song recommendations and
// yearly "wrapped" listening statistics for a music streaming library
// backed by MongoDB.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 (defaults, config.yaml, HARMONIUM_ env vars)
//  2. Logging: zerolog (json or console format)
//  3. MongoDB: catalog, histories, favorites and users collections
//  4. Caches: taste-profile LRU, per-day recommendation TTL cache,
//     popularity index TTL cache
//  5. Engines: taste-profile extractor, popularity index, ranker,
//     wrapped statistics
//  6. HTTP server: chi router under suture supervision
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits for in-flight requests up to the
// configured shutdown timeout, then closes the MongoDB client.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harmonium-fm/harmonium/internal/api"
	"github.com/harmonium-fm/harmonium/internal/auth"
	"github.com/harmonium-fm/harmonium/internal/cache"
	"github.com/harmonium-fm/harmonium/internal/config"
	"github.com/harmonium-fm/harmonium/internal/logging"
	"github.com/harmonium-fm/harmonium/internal/recommend"
	"github.com/harmonium-fm/harmonium/internal/store"
	"github.com/harmonium-fm/harmonium/internal/supervisor"
	"github.com/harmonium-fm/harmonium/internal/wrapped"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("mongoDatabase", cfg.Mongo.Database).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Harmonium")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB stores.
	mongoStores, err := store.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoStores.Close(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Error closing MongoDB client")
		}
	}()
	logging.Info().Msg("Connected to MongoDB")

	logger := logging.Logger()

	// Caches: all instantiated here and injected, so tests can swap
	// clocks and engines never construct their own.
	profileCache := cache.NewLRU(cfg.Recommend.ProfileCacheSize, cfg.Recommend.ProfileCacheTTL)
	resultCache := cache.New(cfg.Recommend.ResultCacheTTL)
	popularityCache := cache.New(cfg.Recommend.PopularityRefresh)

	// Engines.
	extractor := recommend.NewExtractor(mongoStores.Catalog, mongoStores.History, profileCache, logger)
	popularity := recommend.NewPopularityIndex(mongoStores.History, popularityCache, cfg.Recommend.PopularityRefresh, logger)

	ranker := recommend.NewRanker(
		mongoStores.Catalog,
		mongoStores.History,
		mongoStores.Favorites,
		extractor,
		popularity,
		resultCache,
		recommend.RankerConfig{Seed: cfg.Recommend.Seed},
		logger,
	)

	wrappedEngine := wrapped.NewEngine(
		mongoStores.Catalog,
		mongoStores.History,
		mongoStores.Users,
		wrapped.Config{
			CDNBaseURL:       cfg.CDN.BaseURL,
			DefaultCoverPath: cfg.CDN.DefaultCoverPath,
		},
		logger,
	)

	// HTTP layer.
	jwtManager := auth.NewJWTManager(cfg.Security.JWTSecret, 24*time.Hour)
	middleware := api.NewMiddleware(api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
		RequestTimeout:     cfg.Server.RequestTimeout,
	}, jwtManager)

	handler := api.NewHandler(
		ranker,
		extractor,
		wrappedEngine,
		mongoStores.Catalog,
		mongoStores.History,
		mongoStores.Ping,
		logger,
	)
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree: background workers + HTTP server.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddBackgroundService(popularity)
	tree.AddBackgroundService(supervisor.NewCacheCleanupService("recommendation", resultCache, time.Hour))
	tree.AddBackgroundService(supervisor.NewCacheCleanupService("popularity", popularityCache, time.Hour))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Harmonium stopped gracefully")
}
