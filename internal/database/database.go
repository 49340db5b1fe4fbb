// Package database manages the MongoDB client and collection handles.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forum/internal/config"
	"forum/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectTimeout bounds every connection attempt and admin command.
const ConnectTimeout = 10 * time.Second

// Database wraps the Mongo client and exposes typed collection handles.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

var (
	connectOnce sync.Once
	shared      *Database
	connectErr  error
)

// Connect establishes the shared MongoDB connection. The client is created
// once per process; subsequent calls return the same instance.
func Connect(ctx context.Context, cfg *config.Config) (*Database, error) {
	connectOnce.Do(func() {
		shared, connectErr = connect(ctx, cfg)
	})
	return shared, connectErr
}

func connect(ctx context.Context, cfg *config.Config) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	observability.GlobalLogger.Info("mongodb connected", "database", cfg.MongoDB)

	d := &Database{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}
	if err := d.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Users returns the users collection handle.
func (d *Database) Users() *mongo.Collection {
	return d.db.Collection("users")
}

// Posts returns the posts collection handle.
func (d *Database) Posts() *mongo.Collection {
	return d.db.Collection("posts")
}

// EnsureIndexes creates the indexes the application depends on. Username
// uniqueness is enforced here so concurrent registrations cannot both win.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	_, err := d.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.name index: %w", err)
	}

	_, err = d.Posts().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create posts.author index: %w", err)
	}
	return nil
}

// Disconnect closes the underlying Mongo client.
func (d *Database) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	return d.client.Disconnect(ctx)
}
