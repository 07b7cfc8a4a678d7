package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the indexes the service relies on. Creation is
// idempotent; already existing indexes are left in place.
//
// Principals are keyed by canonical DID as _id, so no extra unique index is
// needed there.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	// Collection metadata: a builder's collection names are unique.
	_, err := db.Collection("collections").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "builder", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("builder_name_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create collections index: %w", err)
	}

	// Stored queries: a builder's query names are unique.
	_, err = db.Collection("queries").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "builder", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("builder_name_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create queries index: %w", err)
	}

	// Query runs: the worker claims the oldest pending run.
	_, err = db.Collection("query_runs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("status_created_at"),
	})
	if err != nil {
		return fmt.Errorf("failed to create query_runs index: %w", err)
	}

	return nil
}
