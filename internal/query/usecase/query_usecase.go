package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
)

// queryUseCase implements QueryUseCase.
type queryUseCase struct {
	queries     QueryRepository
	runs        RunRepository
	collections CollectionReader
	principals  principalUseCase.PrincipalUseCase
	logger      *slog.Logger
}

// NewQueryUseCase creates the query use case.
func NewQueryUseCase(
	queries QueryRepository,
	runs RunRepository,
	collections CollectionReader,
	principals principalUseCase.PrincipalUseCase,
	logger *slog.Logger,
) QueryUseCase {
	return &queryUseCase{
		queries:     queries,
		runs:        runs,
		collections: collections,
		principals:  principals,
		logger:      logger,
	}
}

// Create stores a new query owned by the builder.
func (u *queryUseCase) Create(
	ctx context.Context,
	builder *principalDomain.Builder,
	name string,
	collectionID uuid.UUID,
	pipeline []map[string]any,
	variables []queryDomain.Variable,
) (*queryDomain.Query, error) {
	// Definition-time guard: every declared path must parse.
	for _, variable := range variables {
		if _, err := queryDomain.ParsePath(variable.Path); err != nil {
			return nil, err
		}
	}

	// The target collection must exist and belong to the same builder.
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.Builder != builder.DID {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "collection belongs to another builder")
	}

	now := time.Now().UTC()
	query := &queryDomain.Query{
		ID:         uuid.New(),
		Builder:    builder.DID,
		Name:       name,
		Collection: collectionID,
		Pipeline:   pipeline,
		Variables:  variables,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := u.queries.Create(ctx, query); err != nil {
		return nil, err
	}

	if err := u.principals.TrackBuilderQuery(ctx, builder.DID, query.ID, true); err != nil {
		u.logger.Error("failed to track query ownership",
			slog.String("builder_did", builder.DID),
			slog.String("query_id", query.ID.String()),
			slog.Any("error", err))
	}

	u.logger.Info("query created",
		slog.String("builder_did", builder.DID),
		slog.String("query_id", query.ID.String()))

	return query, nil
}

// Get loads a query the builder owns.
func (u *queryUseCase) Get(
	ctx context.Context,
	builder *principalDomain.Builder,
	id uuid.UUID,
) (*queryDomain.Query, error) {
	return u.getOwned(ctx, builder, id)
}

// List returns a page of the builder's queries.
func (u *queryUseCase) List(
	ctx context.Context,
	builder *principalDomain.Builder,
	offset, limit int,
) ([]*queryDomain.Query, error) {
	return u.queries.ListByBuilder(ctx, builder.DID, offset, limit)
}

// Delete removes a query the builder owns. Existing runs stay readable.
func (u *queryUseCase) Delete(ctx context.Context, builder *principalDomain.Builder, id uuid.UUID) error {
	if _, err := u.getOwned(ctx, builder, id); err != nil {
		return err
	}

	if err := u.queries.Delete(ctx, id); err != nil {
		return err
	}

	if err := u.principals.TrackBuilderQuery(ctx, builder.DID, id, false); err != nil {
		u.logger.Error("failed to untrack query ownership",
			slog.String("builder_did", builder.DID),
			slog.String("query_id", id.String()),
			slog.Any("error", err))
	}

	return nil
}

// Submit resolves the variable payload and enqueues a new pending run.
// Each submission produces an independent run; runs are never merged.
func (u *queryUseCase) Submit(
	ctx context.Context,
	principal principalDomain.Principal,
	queryID uuid.UUID,
	payload map[string]any,
) (*queryDomain.Run, error) {
	query, err := u.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, err
	}

	// Run-time guard: the payload must satisfy every declared path.
	bindings := make(map[string]any, len(query.Variables))
	for _, variable := range query.Variables {
		path, err := queryDomain.ParsePath(variable.Path)
		if err != nil {
			// A stored path that no longer parses is a data defect, not a
			// caller mistake.
			u.logger.Error("stored variable path does not parse",
				slog.String("query_id", queryID.String()),
				slog.String("path", variable.Path))
			return nil, apperrors.New("query has an invalid stored variable path")
		}
		value, err := path.Resolve(payload)
		if err != nil {
			return nil, err
		}
		bindings[variable.Name] = value
	}

	run := &queryDomain.Run{
		ID:        uuid.New(),
		Query:     queryID,
		Principal: principal.PrincipalDID(),
		Bindings:  bindings,
		Status:    queryDomain.RunPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	u.logger.Info("run submitted",
		slog.String("run_id", run.ID.String()),
		slog.String("query_id", queryID.String()),
		slog.String("principal_did", principal.PrincipalDID()))

	return run, nil
}

// GetRun loads a run visible to the principal.
func (u *queryUseCase) GetRun(
	ctx context.Context,
	principal principalDomain.Principal,
	runID uuid.UUID,
) (*queryDomain.Run, error) {
	run, err := u.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run.Principal == principal.PrincipalDID() {
		return run, nil
	}

	// Not the submitter: only the builder owning the query may see the run.
	// Anyone else gets not-found, never confirmation that the run exists.
	query, err := u.queries.GetByID(ctx, run.Query)
	if err != nil || query.Builder != principal.PrincipalDID() {
		return nil, queryDomain.ErrRunNotFound
	}
	return run, nil
}

// ListRuns returns a page of a query's runs to the builder owning it.
func (u *queryUseCase) ListRuns(
	ctx context.Context,
	builder *principalDomain.Builder,
	queryID uuid.UUID,
	offset, limit int,
) ([]*queryDomain.Run, error) {
	if _, err := u.getOwned(ctx, builder, queryID); err != nil {
		return nil, err
	}
	return u.runs.ListByQuery(ctx, queryID, offset, limit)
}

// getOwned loads a query and resolves ownership.
func (u *queryUseCase) getOwned(
	ctx context.Context,
	builder *principalDomain.Builder,
	id uuid.UUID,
) (*queryDomain.Query, error) {
	query, err := u.queries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if query.Builder != builder.DID {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "query belongs to another builder")
	}
	return query, nil
}
