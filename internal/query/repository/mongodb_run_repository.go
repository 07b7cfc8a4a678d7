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

// runCollection is the MongoDB collection holding query runs.
const runCollection = "query_runs"

// runRecord is the storage shape of a query run.
type runRecord struct {
	ID          string                `bson:"_id"`
	Query       string                `bson:"query"`
	Principal   string                `bson:"principal"`
	Bindings    map[string]any        `bson:"bindings,omitempty"`
	Status      queryDomain.RunStatus `bson:"status"`
	StartedAt   *time.Time            `bson:"started_at,omitempty"`
	CompletedAt *time.Time            `bson:"completed_at,omitempty"`
	Result      []map[string]any      `bson:"result,omitempty"`
	Errors      []string              `bson:"errors,omitempty"`
	CreatedAt   time.Time             `bson:"created_at"`
}

// MongoDBRunRepository persists query runs.
//
// Transitions are conditional updates matched on the expected prior status,
// so a duplicated or retried worker can never mutate a terminal run.
type MongoDBRunRepository struct {
	collection *mongo.Collection
}

// NewMongoDBRunRepository creates a run repository backed by the given
// database.
func NewMongoDBRunRepository(db *mongo.Database) *MongoDBRunRepository {
	return &MongoDBRunRepository{collection: db.Collection(runCollection)}
}

// Create persists a new pending run.
func (r *MongoDBRunRepository) Create(ctx context.Context, run *queryDomain.Run) error {
	record := runRecord{
		ID:        run.ID.String(),
		Query:     run.Query.String(),
		Principal: run.Principal,
		Bindings:  run.Bindings,
		Status:    run.Status,
		CreatedAt: run.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "run already exists")
		}
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetByID loads a run by id.
func (r *MongoDBRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*queryDomain.Run, error) {
	var record runRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&record)
	if err != nil {
		if apperrors.Is(err, mongo.ErrNoDocuments) {
			return nil, queryDomain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return recordToRun(&record)
}

// ListByQuery returns a page of a query's runs, newest first.
func (r *MongoDBRunRepository) ListByQuery(
	ctx context.Context,
	queryID uuid.UUID,
	offset, limit int,
) ([]*queryDomain.Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"query": queryID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []*queryDomain.Run
	for cursor.Next(ctx) {
		var record runRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		run, err := recordToRun(&record)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ClaimPending atomically claims the oldest pending run, transitioning it to
// running. Returns (nil, nil) when no pending run exists. Two workers can
// never claim the same run: the claim is a single find-and-modify on
// status=pending.
func (r *MongoDBRunRepository) ClaimPending(ctx context.Context) (*queryDomain.Run, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":     queryDomain.RunRunning,
			"started_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetReturnDocument(options.After)

	var record runRecord
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"status": queryDomain.RunPending}, update, opts).Decode(&record)
	if err != nil {
		if apperrors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim pending run: %w", err)
	}
	return recordToRun(&record)
}

// Complete transitions a running run to complete with its result attached.
// A run no longer in the running state is left untouched.
func (r *MongoDBRunRepository) Complete(ctx context.Context, id uuid.UUID, result []map[string]any) error {
	return r.finish(ctx, id, bson.M{
		"status":       queryDomain.RunComplete,
		"completed_at": time.Now().UTC(),
		"result":       result,
	})
}

// Fail transitions a running run to error with its error list attached.
// A run no longer in the running state is left untouched.
func (r *MongoDBRunRepository) Fail(ctx context.Context, id uuid.UUID, errs []string) error {
	return r.finish(ctx, id, bson.M{
		"status":       queryDomain.RunError,
		"completed_at": time.Now().UTC(),
		"errors":       errs,
	})
}

// finish applies a terminal transition conditional on the run still running.
func (r *MongoDBRunRepository) finish(ctx context.Context, id uuid.UUID, set bson.M) error {
	filter := bson.M{
		"_id":    id.String(),
		"status": queryDomain.RunRunning,
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if result.MatchedCount == 0 {
		return queryDomain.ErrRunNotFound
	}
	return nil
}

// recordToRun converts a storage record to the domain model.
func recordToRun(record *runRecord) (*queryDomain.Run, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return nil, fmt.Errorf("run %s has malformed id: %w", record.ID, err)
	}
	queryID, err := uuid.Parse(record.Query)
	if err != nil {
		return nil, fmt.Errorf("run %s has malformed query id: %w", record.ID, err)
	}
	return &queryDomain.Run{
		ID:          id,
		Query:       queryID,
		Principal:   record.Principal,
		Bindings:    record.Bindings,
		Status:      record.Status,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
		Result:      record.Result,
		Errors:      record.Errors,
		CreatedAt:   record.CreatedAt,
	}, nil
}
