// Package repository implements MongoDB persistence for principals.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// principalCollection is the MongoDB collection holding both principal kinds,
// discriminated by the "kind" field.
const principalCollection = "principals"

// principalRecord is the storage shape of a principal. The canonical DID is
// the document id, which makes identity uniqueness a database invariant.
type principalRecord struct {
	DID         string                        `bson:"_id"`
	Kind        principalDomain.Kind          `bson:"kind"`
	Collections []string                      `bson:"collections,omitempty"`
	Queries     []string                      `bson:"queries,omitempty"`
	Events      []principalDomain.Event       `bson:"events,omitempty"`
	Documents   []principalDomain.DocumentRef `bson:"documents,omitempty"`
	CreatedAt   time.Time                     `bson:"created_at"`
	UpdatedAt   time.Time                     `bson:"updated_at"`
}

// MongoDBPrincipalRepository persists Builder and User records.
type MongoDBPrincipalRepository struct {
	collection *mongo.Collection
}

// NewMongoDBPrincipalRepository creates a principal repository backed by the
// given database.
func NewMongoDBPrincipalRepository(db *mongo.Database) *MongoDBPrincipalRepository {
	return &MongoDBPrincipalRepository{collection: db.Collection(principalCollection)}
}

// GetByDID loads a principal by canonical identity. Absence yields
// ErrUnknownPrincipal: an unregistered subject is unauthenticated, not merely
// unauthorized.
func (r *MongoDBPrincipalRepository) GetByDID(ctx context.Context, did string) (principalDomain.Principal, error) {
	var record principalRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": did}).Decode(&record)
	if err != nil {
		if apperrors.Is(err, mongo.ErrNoDocuments) {
			return nil, principalDomain.ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}

	switch record.Kind {
	case principalDomain.KindBuilder:
		return &principalDomain.Builder{
			DID:         record.DID,
			Collections: parseUUIDs(record.Collections),
			Queries:     parseUUIDs(record.Queries),
			CreatedAt:   record.CreatedAt,
			UpdatedAt:   record.UpdatedAt,
		}, nil
	case principalDomain.KindUser:
		return &principalDomain.User{
			DID:       record.DID,
			Events:    record.Events,
			Documents: record.Documents,
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		}, nil
	default:
		return nil, fmt.Errorf("principal %s has unknown kind %q", record.DID, record.Kind)
	}
}

// CreateBuilder registers a new builder principal.
func (r *MongoDBPrincipalRepository) CreateBuilder(ctx context.Context, builder *principalDomain.Builder) error {
	record := principalRecord{
		DID:         builder.DID,
		Kind:        principalDomain.KindBuilder,
		Collections: formatUUIDs(builder.Collections),
		Queries:     formatUUIDs(builder.Queries),
		CreatedAt:   builder.CreatedAt,
		UpdatedAt:   builder.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return principalDomain.ErrPrincipalExists
		}
		return fmt.Errorf("create builder: %w", err)
	}
	return nil
}

// CreateUser registers a new user principal.
func (r *MongoDBPrincipalRepository) CreateUser(ctx context.Context, user *principalDomain.User) error {
	record := principalRecord{
		DID:       user.DID,
		Kind:      principalDomain.KindUser,
		Events:    user.Events,
		Documents: user.Documents,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return principalDomain.ErrPrincipalExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// AddBuilderCollection records collection ownership on a builder.
func (r *MongoDBPrincipalRepository) AddBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID) error {
	return r.updateBuilderSet(ctx, did, "$addToSet", "collections", collectionID)
}

// RemoveBuilderCollection removes collection ownership from a builder.
func (r *MongoDBPrincipalRepository) RemoveBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID) error {
	return r.updateBuilderSet(ctx, did, "$pull", "collections", collectionID)
}

// AddBuilderQuery records query ownership on a builder.
func (r *MongoDBPrincipalRepository) AddBuilderQuery(ctx context.Context, did string, queryID uuid.UUID) error {
	return r.updateBuilderSet(ctx, did, "$addToSet", "queries", queryID)
}

// RemoveBuilderQuery removes query ownership from a builder.
func (r *MongoDBPrincipalRepository) RemoveBuilderQuery(ctx context.Context, did string, queryID uuid.UUID) error {
	return r.updateBuilderSet(ctx, did, "$pull", "queries", queryID)
}

// AppendUserEvent appends an event to a user's data-lifecycle log, keeping at
// most maxEvents entries. The capped $push drops the oldest entries
// database-side, so the log never grows unbounded.
func (r *MongoDBPrincipalRepository) AppendUserEvent(
	ctx context.Context,
	did string,
	event principalDomain.Event,
	maxEvents int,
) error {
	update := bson.M{
		"$push": bson.M{
			"events": bson.M{
				"$each":  []principalDomain.Event{event},
				"$slice": -maxEvents,
			},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": did, "kind": principalDomain.KindUser}, update)
	if err != nil {
		return fmt.Errorf("append user event: %w", err)
	}
	if result.MatchedCount == 0 {
		return principalDomain.ErrUnknownPrincipal
	}
	return nil
}

// AddUserDocument records document ownership on a user.
func (r *MongoDBPrincipalRepository) AddUserDocument(ctx context.Context, did string, ref principalDomain.DocumentRef) error {
	update := bson.M{
		"$addToSet": bson.M{"documents": ref},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": did, "kind": principalDomain.KindUser}, update)
	if err != nil {
		return fmt.Errorf("add user document: %w", err)
	}
	if result.MatchedCount == 0 {
		return principalDomain.ErrUnknownPrincipal
	}
	return nil
}

// RemoveUserDocument removes document ownership from a user.
func (r *MongoDBPrincipalRepository) RemoveUserDocument(ctx context.Context, did string, ref principalDomain.DocumentRef) error {
	update := bson.M{
		"$pull": bson.M{"documents": ref},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": did, "kind": principalDomain.KindUser}, update)
	if err != nil {
		return fmt.Errorf("remove user document: %w", err)
	}
	if result.MatchedCount == 0 {
		return principalDomain.ErrUnknownPrincipal
	}
	return nil
}

// updateBuilderSet applies a set-style array update to a builder record.
func (r *MongoDBPrincipalRepository) updateBuilderSet(
	ctx context.Context,
	did, operator, field string,
	id uuid.UUID,
) error {
	update := bson.M{
		operator: bson.M{field: id.String()},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": did, "kind": principalDomain.KindBuilder}, update)
	if err != nil {
		return fmt.Errorf("update builder %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return principalDomain.ErrUnknownPrincipal
	}
	return nil
}

// parseUUIDs converts stored string ids, skipping any that fail to parse.
func parseUUIDs(values []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// formatUUIDs converts ids to their stored string form.
func formatUUIDs(ids []uuid.UUID) []string {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return values
}
