// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/harmonium-fm/harmonium/internal/metrics"
	"github.com/harmonium-fm/harmonium/internal/models"
)

// MongoCatalogStore implements CatalogStore over the albums collection.
type MongoCatalogStore struct {
	coll *mongo.Collection
}

// AlbumByID resolves one album; nil album means the id is unknown.
func (s *MongoCatalogStore) AlbumByID(ctx context.Context, id string) (*models.Album, error) {
	start := time.Now()
	var album models.Album
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&album)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RecordDBQuery("find_one", collAlbums, time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("find_one", collAlbums, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find album %s: %w", id, err)
	}
	return &album, nil
}

// AlbumsByIDs resolves a batch of album ids; unknown ids are absent
// from the result.
func (s *MongoCatalogStore) AlbumsByIDs(ctx context.Context, ids []string) ([]models.Album, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.findAlbums(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// AlbumsByArtists returns albums carrying any of the given artist tags.
func (s *MongoCatalogStore) AlbumsByArtists(ctx context.Context, artists []string) ([]models.Album, error) {
	if len(artists) == 0 {
		return nil, nil
	}
	return s.findAlbums(ctx, bson.M{"artist": bson.M{"$in": artists}})
}

// AlbumsByGenres returns albums carrying any of the given genre tags.
func (s *MongoCatalogStore) AlbumsByGenres(ctx context.Context, genres []models.Genre) ([]models.Album, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	return s.findAlbums(ctx, bson.M{"genre": bson.M{"$in": genres}})
}

// AlbumsBySongTitles returns albums containing at least one song whose
// title matches one of the given titles, case-insensitively.
func (s *MongoCatalogStore) AlbumsBySongTitles(ctx context.Context, titles []string) ([]models.Album, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	patterns := make([]bson.M, 0, len(titles))
	for _, title := range titles {
		trimmed := strings.TrimSpace(title)
		if trimmed == "" {
			continue
		}
		patterns = append(patterns, bson.M{
			"songs.title": bson.M{
				"$regex":   regexp.QuoteMeta(trimmed),
				"$options": "i",
			},
		})
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	return s.findAlbums(ctx, bson.M{"$or": patterns})
}

func (s *MongoCatalogStore) findAlbums(ctx context.Context, filter bson.M) ([]models.Album, error) {
	start := time.Now()
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		metrics.RecordDBQuery("find", collAlbums, time.Since(start), err)
		return nil, fmt.Errorf("find albums: %w", err)
	}
	defer cursor.Close(ctx)

	var albums []models.Album
	err = cursor.All(ctx, &albums)
	metrics.RecordDBQuery("find", collAlbums, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("decode albums: %w", err)
	}
	return albums, nil
}
