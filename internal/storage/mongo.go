package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Connect establishes and pings a MongoDB connection.
func Connect(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if logger != nil {
		logger.Info("mongo connected")
	}
	return client, nil
}

// EnsureIndexes creates the indexes every store relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	stores := []interface {
		EnsureIndexes(ctx context.Context) error
	}{
		NewMarkerStore(db),
		NewVisitStore(db),
		NewLoginLogStore(db),
	}
	for _, store := range stores {
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
