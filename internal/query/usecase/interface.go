// Package usecase implements business logic for stored queries and runs.
package usecase

import (
	"context"

	"github.com/google/uuid"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	queryDomain "github.com/capdocs/capdocs/internal/query/domain"
)

// QueryRepository defines stored-query persistence operations.
type QueryRepository interface {
	Create(ctx context.Context, query *queryDomain.Query) error
	GetByID(ctx context.Context, id uuid.UUID) (*queryDomain.Query, error)
	ListByBuilder(ctx context.Context, builderDID string, offset, limit int) ([]*queryDomain.Query, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunRepository defines run persistence operations.
type RunRepository interface {
	Create(ctx context.Context, run *queryDomain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*queryDomain.Run, error)
	ListByQuery(ctx context.Context, queryID uuid.UUID, offset, limit int) ([]*queryDomain.Run, error)
	ClaimPending(ctx context.Context) (*queryDomain.Run, error)
	Complete(ctx context.Context, id uuid.UUID, result []map[string]any) error
	Fail(ctx context.Context, id uuid.UUID, errs []string) error
}

// CollectionReader loads collection metadata for ownership checks.
type CollectionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*collectionDomain.Collection, error)
}

// QueryUseCase manages stored queries and their asynchronous runs.
type QueryUseCase interface {
	// Create stores a new query owned by the builder. Every declared variable
	// path must parse under the restricted grammar; one bad path rejects the
	// whole definition.
	Create(
		ctx context.Context,
		builder *principalDomain.Builder,
		name string,
		collectionID uuid.UUID,
		pipeline []map[string]any,
		variables []queryDomain.Variable,
	) (*queryDomain.Query, error)

	// Get loads a query the builder owns.
	Get(ctx context.Context, builder *principalDomain.Builder, id uuid.UUID) (*queryDomain.Query, error)

	// List returns a page of the builder's queries.
	List(ctx context.Context, builder *principalDomain.Builder, offset, limit int) ([]*queryDomain.Query, error)

	// Delete removes a query the builder owns.
	Delete(ctx context.Context, builder *principalDomain.Builder, id uuid.UUID) error

	// Submit resolves the caller's variable payload against the query's
	// declared paths and enqueues a new pending run. Submission is
	// synchronous; execution is observed by polling the run.
	Submit(
		ctx context.Context,
		principal principalDomain.Principal,
		queryID uuid.UUID,
		payload map[string]any,
	) (*queryDomain.Run, error)

	// GetRun loads a run visible to the principal: its submitter, or the
	// builder owning the query.
	GetRun(ctx context.Context, principal principalDomain.Principal, runID uuid.UUID) (*queryDomain.Run, error)

	// ListRuns returns a page of a query's runs to the builder owning it.
	ListRuns(
		ctx context.Context,
		builder *principalDomain.Builder,
		queryID uuid.UUID,
		offset, limit int,
	) ([]*queryDomain.Run, error)
}
