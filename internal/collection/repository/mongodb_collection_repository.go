// Package repository implements MongoDB persistence for collection metadata.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// metadataCollection is the MongoDB collection holding collection metadata.
// Document data lives in per-collection "docs_<id>" collections.
const metadataCollection = "collections"

// collectionRecord is the storage shape of collection metadata.
type collectionRecord struct {
	ID        string                `bson:"_id"`
	Builder   string                `bson:"builder"`
	Name      string                `bson:"name"`
	Kind      collectionDomain.Kind `bson:"kind"`
	Schema    map[string]any        `bson:"schema,omitempty"`
	CreatedAt time.Time             `bson:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

// MongoDBCollectionRepository persists collection metadata.
type MongoDBCollectionRepository struct {
	collection *mongo.Collection
}

// NewMongoDBCollectionRepository creates a collection repository backed by the
// given database.
func NewMongoDBCollectionRepository(db *mongo.Database) *MongoDBCollectionRepository {
	return &MongoDBCollectionRepository{collection: db.Collection(metadataCollection)}
}

// Create persists new collection metadata. A builder cannot hold two
// collections with the same name; the unique (builder, name) index turns that
// race into ErrCollectionExists.
func (r *MongoDBCollectionRepository) Create(ctx context.Context, collection *collectionDomain.Collection) error {
	record := collectionRecord{
		ID:        collection.ID.String(),
		Builder:   collection.Builder,
		Name:      collection.Name,
		Kind:      collection.Kind,
		Schema:    collection.Schema,
		CreatedAt: collection.CreatedAt,
		UpdatedAt: collection.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return collectionDomain.ErrCollectionExists
		}
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// GetByID loads collection metadata by id.
func (r *MongoDBCollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*collectionDomain.Collection, error) {
	var record collectionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&record)
	if err != nil {
		if apperrors.Is(err, mongo.ErrNoDocuments) {
			return nil, collectionDomain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return recordToCollection(&record)
}

// ListByBuilder returns a page of the builder's collections ordered by
// creation time.
func (r *MongoDBCollectionRepository) ListByBuilder(
	ctx context.Context,
	builderDID string,
	offset, limit int,
) ([]*collectionDomain.Collection, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"builder": builderDID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer cursor.Close(ctx)

	var collections []*collectionDomain.Collection
	for cursor.Next(ctx) {
		var record collectionRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode collection: %w", err)
		}
		collection, err := recordToCollection(&record)
		if err != nil {
			return nil, err
		}
		collections = append(collections, collection)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

// UpdateSchema replaces a collection's document schema. Kind is immutable and
// has no update path.
func (r *MongoDBCollectionRepository) UpdateSchema(
	ctx context.Context,
	id uuid.UUID,
	schema map[string]any,
) error {
	update := bson.M{
		"$set": bson.M{
			"schema":     schema,
			"updated_at": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("update collection schema: %w", err)
	}
	if result.MatchedCount == 0 {
		return collectionDomain.ErrCollectionNotFound
	}
	return nil
}

// Delete removes collection metadata.
func (r *MongoDBCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if result.DeletedCount == 0 {
		return collectionDomain.ErrCollectionNotFound
	}
	return nil
}

// recordToCollection converts a storage record to the domain model.
func recordToCollection(record *collectionRecord) (*collectionDomain.Collection, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("collection %s has malformed id: %w", record.ID, err)
	}
	return &collectionDomain.Collection{
		ID:        id,
		Builder:   record.Builder,
		Name:      record.Name,
		Kind:      record.Kind,
		Schema:    record.Schema,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}, nil
}
