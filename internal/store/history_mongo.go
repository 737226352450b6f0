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
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/harmonium-fm/harmonium/internal/metrics"
	"github.com/harmonium-fm/harmonium/internal/models"
)

// MongoHistoryStore implements HistoryStore over the histories
// collection. One document per user, keyed by user id.
type MongoHistoryStore struct {
	coll *mongo.Collection
}

// UserHistory returns the user's history document, or an empty document
// when the user has never listened to anything.
func (s *MongoHistoryStore) UserHistory(ctx context.Context, userID string) (*models.UserHistory, error) {
	start := time.Now()
	var history models.UserHistory
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&history)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RecordDBQuery("find_one", collHistories, time.Since(start), nil)
		return &models.UserHistory{UserID: userID}, nil
	}
	metrics.RecordDBQuery("find_one", collHistories, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find history for %s: %w", userID, err)
	}
	return &history, nil
}

// AllHistories returns every user's history document.
func (s *MongoHistoryStore) AllHistories(ctx context.Context) ([]models.UserHistory, error) {
	start := time.Now()
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		metrics.RecordDBQuery("find", collHistories, time.Since(start), err)
		return nil, fmt.Errorf("find histories: %w", err)
	}
	defer cursor.Close(ctx)

	var histories []models.UserHistory
	err = cursor.All(ctx, &histories)
	metrics.RecordDBQuery("find", collHistories, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("decode histories: %w", err)
	}
	return histories, nil
}

// RecordListen appends one listen event: the per-song and per-album
// counters are incremented and the timestamp pushed onto both listen
// histories. Stats are created lazily on first listen via upsert.
//
// The two updates are not transactional; a crash between them loses at
// most one counter increment, which the analytics tolerate.
func (s *MongoHistoryStore) RecordListen(ctx context.Context, userID string, album *models.Album, song models.Song, at time.Time) (err error) {
	if album == nil {
		return fmt.Errorf("record listen: album is required")
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("update", collHistories, time.Since(start), err)
	}()

	upsert := options.UpdateOne().SetUpsert(true)

	// Bump the song stat when one exists for this (user, song) pair.
	songMatch := bson.M{"_id": userID, "listenedSongs": bson.M{
		"$elemMatch": bson.M{"albumId": album.ID, "songTitle": song.Title},
	}}
	songUpdate := bson.M{
		"$inc":  bson.M{"listenedSongs.$.playCount": 1},
		"$push": bson.M{"listenedSongs.$.listenHistory": at},
	}
	res, err := s.coll.UpdateOne(ctx, songMatch, songUpdate)
	if err != nil {
		return fmt.Errorf("update song stat: %w", err)
	}
	if res.MatchedCount == 0 {
		// First listen of this song: create the stat lazily.
		newStat := models.ListenedSongStat{
			SongTitle:     song.Title,
			SongFile:      song.File,
			AlbumID:       album.ID,
			PlayCount:     1,
			ListenHistory: []time.Time{at},
		}
		_, err = s.coll.UpdateOne(ctx, bson.M{"_id": userID},
			bson.M{"$push": bson.M{"listenedSongs": newStat}}, upsert)
		if err != nil {
			return fmt.Errorf("insert song stat: %w", err)
		}
	}

	// Same pattern for the album stat.
	albumMatch := bson.M{"_id": userID, "listenedAlbums.albumId": album.ID}
	albumUpdate := bson.M{
		"$inc":  bson.M{"listenedAlbums.$.playCount": 1},
		"$push": bson.M{"listenedAlbums.$.listenHistory": at},
	}
	res, err = s.coll.UpdateOne(ctx, albumMatch, albumUpdate)
	if err != nil {
		return fmt.Errorf("update album stat: %w", err)
	}
	if res.MatchedCount == 0 {
		newStat := models.ListenedAlbumStat{
			AlbumID:       album.ID,
			PlayCount:     1,
			ListenHistory: []time.Time{at},
		}
		_, err = s.coll.UpdateOne(ctx, bson.M{"_id": userID},
			bson.M{"$push": bson.M{"listenedAlbums": newStat}}, upsert)
		if err != nil {
			return fmt.Errorf("insert album stat: %w", err)
		}
	}

	return nil
}

// DeleteUserData removes the user's history document.
func (s *MongoHistoryStore) DeleteUserData(ctx context.Context, userID string) error {
	start := time.Now()
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": userID})
	metrics.RecordDBQuery("delete", collHistories, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete history for %s: %w", userID, err)
	}
	return nil
}
