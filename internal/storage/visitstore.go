package storage

import (
	"context"
	"time"

	"github.com/mimapa/backend/internal/markers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VisitStore appends and reads visit records in the "visits" collection.
type VisitStore struct {
	c *mongo.Collection
}

// NewVisitStore binds the store to its collection.
func NewVisitStore(db *mongo.Database) *VisitStore {
	return &VisitStore{c: db.Collection("visits")}
}

// EnsureIndexes creates the per-visited latest-first index.
func (s *VisitStore) EnsureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "visited_user_email", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("idx_visits_visited_timestamp"),
	}
	_, err := s.c.Indexes().CreateOne(ctx, index)
	return err
}

// Insert appends a visit record. If Timestamp is zero it is set to now.
func (s *VisitStore) Insert(ctx context.Context, visit markers.VisitEntry) error {
	if visit.Timestamp.IsZero() {
		visit.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, visit)
	return err
}

// ListByVisited retrieves visits against the given email, newest first.
func (s *VisitStore) ListByVisited(ctx context.Context, visitedEmail string) ([]markers.VisitEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cur, err := s.c.Find(ctx, bson.M{"visited_user_email": visitedEmail}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var found []markers.VisitEntry
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}
