// Package mongostore persists bot state in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"valley_bot/internal/config"
)

// Collection names.
const (
	CollectionUsers      = "users"
	CollectionGroups     = "groups"
	CollectionPoints     = "points"
	CollectionAds        = "ads"
	CollectionAdViewLogs = "ad_view_logs"
)

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager connects with cfg.MongoURI and verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Ping checks connectivity against the primary.
func (m *Manager) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

type indexSpec struct {
	collection string
	models     []mongo.IndexModel
}

func uniqueIndex(name string, keys ...string) mongo.IndexModel {
	doc := make(bson.D, 0, len(keys))
	for _, key := range keys {
		doc = append(doc, bson.E{Key: key, Value: 1})
	}
	return mongo.IndexModel{
		Keys:    doc,
		Options: options.Index().SetName(name).SetUnique(true),
	}
}

func indexSpecs() []indexSpec {
	return []indexSpec{
		{CollectionUsers, []mongo.IndexModel{uniqueIndex("user_id_unique", "user_id")}},
		{CollectionGroups, []mongo.IndexModel{uniqueIndex("group_id_unique", "group_id")}},
		{CollectionPoints, []mongo.IndexModel{uniqueIndex("owner_unique", "owner_type", "owner_id")}},
		{CollectionAds, []mongo.IndexModel{
			uniqueIndex("ad_id_unique", "id"),
			{
				Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("active_created_at"),
			},
		}},
		{CollectionAdViewLogs, []mongo.IndexModel{uniqueIndex("owner_view_day_unique", "owner_type", "owner_id", "view_day")}},
	}
}

// EnsureIndexes creates the unique indexes the store relies on. Collections
// are created implicitly if they do not already exist.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	for _, spec := range indexSpecs() {
		if _, err := createIndexes(ctx, m.Collection(spec.collection), spec.models); err != nil {
			return fmt.Errorf("create %s indexes: %w", spec.collection, err)
		}
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
