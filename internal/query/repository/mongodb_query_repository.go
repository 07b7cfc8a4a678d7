// Package repository implements MongoDB persistence for queries and runs.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	apperrors "github.com/capdocs/capdocs/internal/errors"
	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
)

// queryCollection is the MongoDB collection holding stored queries.
const queryCollection = "queries"

// queryRecord is the storage shape of a stored query.
type queryRecord struct {
	ID         string                 `bson:"_id"`
	Builder    string                 `bson:"builder"`
	Name       string                 `bson:"name"`
	Collection string                 `bson:"collection"`
	Pipeline   []map[string]any       `bson:"pipeline"`
	Variables  []queryDomain.Variable `bson:"variables,omitempty"`
	CreatedAt  time.Time              `bson:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at"`
}

// MongoDBQueryRepository persists stored queries.
type MongoDBQueryRepository struct {
	collection *mongo.Collection
}

// NewMongoDBQueryRepository creates a query repository backed by the given
// database.
func NewMongoDBQueryRepository(db *mongo.Database) *MongoDBQueryRepository {
	return &MongoDBQueryRepository{collection: db.Collection(queryCollection)}
}

// Create persists a new stored query.
func (r *MongoDBQueryRepository) Create(ctx context.Context, query *queryDomain.Query) error {
	record := queryRecord{
		ID:         query.ID.String(),
		Builder:    query.Builder,
		Name:       query.Name,
		Collection: query.Collection.String(),
		Pipeline:   query.Pipeline,
		Variables:  query.Variables,
		CreatedAt:  query.CreatedAt,
		UpdatedAt:  query.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "query already exists")
		}
		return fmt.Errorf("create query: %w", err)
	}
	return nil
}

// GetByID loads a stored query by id.
func (r *MongoDBQueryRepository) GetByID(ctx context.Context, id uuid.UUID) (*queryDomain.Query, error) {
	var record queryRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&record)
	if err != nil {
		if apperrors.Is(err, mongo.ErrNoDocuments) {
			return nil, queryDomain.ErrQueryNotFound
		}
		return nil, fmt.Errorf("get query: %w", err)
	}
	return recordToQuery(&record)
}

// ListByBuilder returns a page of the builder's queries ordered by creation
// time.
func (r *MongoDBQueryRepository) ListByBuilder(
	ctx context.Context,
	builderDID string,
	offset, limit int,
) ([]*queryDomain.Query, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"builder": builderDID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer cursor.Close(ctx)

	var queries []*queryDomain.Query
	for cursor.Next(ctx) {
		var record queryRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode query: %w", err)
		}
		query, err := recordToQuery(&record)
		if err != nil {
			return nil, err
		}
		queries = append(queries, query)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return queries, nil
}

// Delete removes a stored query.
func (r *MongoDBQueryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	if result.DeletedCount == 0 {
		return queryDomain.ErrQueryNotFound
	}
	return nil
}

// recordToQuery converts a storage record to the domain model.
func recordToQuery(record *queryRecord) (*queryDomain.Query, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("query %s has malformed id: %w", record.ID, err)
	}
	collectionID, err := uuid.Parse(record.Collection)
	if err != nil {
		return nil, fmt.Errorf("query %s has malformed collection id: %w", record.ID, err)
	}
	return &queryDomain.Query{
		ID:         id,
		Builder:    record.Builder,
		Name:       record.Name,
		Collection: collectionID,
		Pipeline:   record.Pipeline,
		Variables:  record.Variables,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}, nil
}
