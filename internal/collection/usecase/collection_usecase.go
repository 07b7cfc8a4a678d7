package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	collectionService "github.com/capdocs/capdocs/internal/collection/service"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
)

// collectionUseCase implements CollectionUseCase.
type collectionUseCase struct {
	collections CollectionRepository
	documents   DocumentPurger
	principals  principalUseCase.PrincipalUseCase
	logger      *slog.Logger
}

// NewCollectionUseCase creates the collection use case.
func NewCollectionUseCase(
	collections CollectionRepository,
	documents DocumentPurger,
	principals principalUseCase.PrincipalUseCase,
	logger *slog.Logger,
) CollectionUseCase {
	return &collectionUseCase{
		collections: collections,
		documents:   documents,
		principals:  principals,
		logger:      logger,
	}
}

// Create registers a new collection owned by the builder.
func (u *collectionUseCase) Create(
	ctx context.Context,
	builder *principalDomain.Builder,
	name string,
	kind collectionDomain.Kind,
	schema map[string]any,
) (*collectionDomain.Collection, error) {
	// Reject schemas that do not compile before anything is persisted.
	if _, err := collectionService.CompileSchema(schema); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	collection := &collectionDomain.Collection{
		ID:        uuid.New(),
		Builder:   builder.DID,
		Name:      name,
		Kind:      kind,
		Schema:    schema,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.collections.Create(ctx, collection); err != nil {
		return nil, err
	}

	if err := u.principals.TrackBuilderCollection(ctx, builder.DID, collection.ID, true); err != nil {
		// Ownership bookkeeping failed after the metadata insert; the
		// collection stays reachable through the metadata record itself.
		u.logger.Error("failed to track collection ownership",
			slog.String("builder_did", builder.DID),
			slog.String("collection_id", collection.ID.String()),
			slog.Any("error", err))
	}

	u.logger.Info("collection created",
		slog.String("builder_did", builder.DID),
		slog.String("collection_id", collection.ID.String()),
		slog.String("kind", string(kind)))

	return collection, nil
}

// Get loads a collection the builder owns.
func (u *collectionUseCase) Get(
	ctx context.Context,
	builder *principalDomain.Builder,
	id uuid.UUID,
) (*collectionDomain.Collection, error) {
	return u.getOwned(ctx, builder, id)
}

// List returns a page of the builder's collections.
func (u *collectionUseCase) List(
	ctx context.Context,
	builder *principalDomain.Builder,
	offset, limit int,
) ([]*collectionDomain.Collection, error) {
	return u.collections.ListByBuilder(ctx, builder.DID, offset, limit)
}

// UpdateSchema replaces the document schema of a collection the builder owns.
// Kind is immutable and has no update path.
func (u *collectionUseCase) UpdateSchema(
	ctx context.Context,
	builder *principalDomain.Builder,
	id uuid.UUID,
	schema map[string]any,
) (*collectionDomain.Collection, error) {
	collection, err := u.getOwned(ctx, builder, id)
	if err != nil {
		return nil, err
	}

	if _, err := collectionService.CompileSchema(schema); err != nil {
		return nil, err
	}

	if err := u.collections.UpdateSchema(ctx, id, schema); err != nil {
		return nil, err
	}

	collection.Schema = schema
	collection.UpdatedAt = time.Now().UTC()
	return collection, nil
}

// Delete removes a collection the builder owns along with its documents.
func (u *collectionUseCase) Delete(ctx context.Context, builder *principalDomain.Builder, id uuid.UUID) error {
	collection, err := u.getOwned(ctx, builder, id)
	if err != nil {
		return err
	}

	if err := u.collections.Delete(ctx, id); err != nil {
		return err
	}

	if err := u.documents.DropData(ctx, collection); err != nil {
		// Metadata is gone so the data collection is already unreachable.
		u.logger.Error("failed to drop document data",
			slog.String("collection_id", id.String()),
			slog.Any("error", err))
	}

	if err := u.principals.TrackBuilderCollection(ctx, builder.DID, id, false); err != nil {
		u.logger.Error("failed to untrack collection ownership",
			slog.String("builder_did", builder.DID),
			slog.String("collection_id", id.String()),
			slog.Any("error", err))
	}

	u.logger.Info("collection deleted",
		slog.String("builder_did", builder.DID),
		slog.String("collection_id", id.String()))

	return nil
}

// getOwned loads a collection and resolves ownership. A collection owned by
// another builder yields ErrAccessDenied: existence is confirmed only to the
// owner.
func (u *collectionUseCase) getOwned(
	ctx context.Context,
	builder *principalDomain.Builder,
	id uuid.UUID,
) (*collectionDomain.Collection, error) {
	collection, err := u.collections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if collection.Builder != builder.DID {
		return nil, collectionDomain.ErrAccessDenied
	}
	return collection, nil
}
