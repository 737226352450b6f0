// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names in the platform database.
const (
	collAlbums    = "albums"
	collHistories = "histories"
	collFavorites = "favorites"
	collUsers     = "users"
)

// Mongo bundles the MongoDB-backed store implementations over one
// client connection.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database

	Catalog   *MongoCatalogStore
	History   *MongoHistoryStore
	Favorites *MongoFavoritesStore
	Users     *MongoUserStore
}

// ConnectMongo connects to MongoDB and verifies the connection with a
// ping before handing out stores.
func ConnectMongo(ctx context.Context, uri, database string, timeout time.Duration) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)

	return &Mongo{
		client:    client,
		db:        db,
		Catalog:   &MongoCatalogStore{coll: db.Collection(collAlbums)},
		History:   &MongoHistoryStore{coll: db.Collection(collHistories)},
		Favorites: &MongoFavoritesStore{coll: db.Collection(collFavorites)},
		Users:     &MongoUserStore{coll: db.Collection(collUsers)},
	}, nil
}

// Ping verifies the database is reachable. Used by the readiness
// endpoint.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
