package storage

import (
	"context"
	"time"

	"github.com/mimapa/backend/internal/markers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoginLogStore appends login audit records to the "logs" collection.
type LoginLogStore struct {
	c *mongo.Collection
}

// NewLoginLogStore binds the store to its collection.
func NewLoginLogStore(db *mongo.Database) *LoginLogStore {
	return &LoginLogStore{c: db.Collection("logs")}
}

// EnsureIndexes creates the per-user latest-first index.
func (s *LoginLogStore) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "usuario", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("idx_logs_usuario_timestamp"),
	}
	_, err := s.c.Indexes().CreateOne(ctx, index)
	return err
}

// Insert appends a login log entry. If Timestamp is zero it is set to now.
func (s *LoginLogStore) Insert(ctx context.Context, entry markers.LoginLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}
