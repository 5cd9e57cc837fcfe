package storage

import (
	"context"

	"github.com/mimapa/backend/internal/markers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MarkerStore persists markers in the "markers" collection.
type MarkerStore struct {
	c *mongo.Collection
}

// NewMarkerStore binds the store to its collection.
func NewMarkerStore(db *mongo.Database) *MarkerStore {
	return &MarkerStore{c: db.Collection("markers")}
}

// EnsureIndexes creates indexes for efficient per-owner listing.
func (s *MarkerStore) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("idx_markers_email"),
	}
	_, err := s.c.Indexes().CreateOne(ctx, index)
	return err
}

// Insert writes a single marker document.
func (s *MarkerStore) Insert(ctx context.Context, marker markers.Marker) error {
	_, err := s.c.InsertOne(ctx, marker)
	return err
}

// ListByOwner retrieves all markers owned by the given email.
func (s *MarkerStore) ListByOwner(ctx context.Context, ownerEmail string) ([]markers.Marker, error) {
	cur, err := s.c.Find(ctx, bson.M{"email": ownerEmail})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var found []markers.Marker
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}
