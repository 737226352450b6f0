// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/harmonium-fm/harmonium/internal/metrics"
)

// MongoFavoritesStore implements FavoritesStore over the favorites
// collection. One document per user holding the set of favorited album
// ids.
type MongoFavoritesStore struct {
	coll *mongo.Collection
}

// favoritesDoc is the stored shape of a user's favorites.
type favoritesDoc struct {
	UserID   string   `bson:"_id"`
	AlbumIDs []string `bson:"albumIds"`
}

// FavoriteAlbumIDs returns the user's favorited album ids; a user with
// no favorites yields an empty slice.
func (s *MongoFavoritesStore) FavoriteAlbumIDs(ctx context.Context, userID string) ([]string, error) {
	start := time.Now()
	var doc favoritesDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RecordDBQuery("find_one", collFavorites, time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("find_one", collFavorites, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find favorites for %s: %w", userID, err)
	}
	return doc.AlbumIDs, nil
}

// MongoUserStore implements UserStore over the users collection.
type MongoUserStore struct {
	coll *mongo.Collection
}

// Exists reports whether a user document exists for the given id.
func (s *MongoUserStore) Exists(ctx context.Context, userID string) (bool, error) {
	start := time.Now()
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": userID})
	metrics.RecordDBQuery("count", collUsers, time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("count user %s: %w", userID, err)
	}
	return count > 0, nil
}
