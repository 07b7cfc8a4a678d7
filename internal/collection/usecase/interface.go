// Package usecase implements business logic for collection management.
package usecase

import (
	"context"

	"github.com/google/uuid"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// CollectionRepository defines collection metadata persistence operations.
type CollectionRepository interface {
	Create(ctx context.Context, collection *collectionDomain.Collection) error
	GetByID(ctx context.Context, id uuid.UUID) (*collectionDomain.Collection, error)
	ListByBuilder(ctx context.Context, builderDID string, offset, limit int) ([]*collectionDomain.Collection, error)
	UpdateSchema(ctx context.Context, id uuid.UUID, schema map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentPurger drops a collection's document store when the collection
// itself is deleted.
type DocumentPurger interface {
	DropData(ctx context.Context, collection *collectionDomain.Collection) error
}

// CollectionUseCase manages the collection lifecycle for builders. Every
// accessor resolves ownership: a builder only ever sees its own collections.
type CollectionUseCase interface {
	// Create registers a new collection owned by the builder. The schema, if
	// present, must compile as a JSON schema. Kind is fixed at creation.
	Create(
		ctx context.Context,
		builder *principalDomain.Builder,
		name string,
		kind collectionDomain.Kind,
		schema map[string]any,
	) (*collectionDomain.Collection, error)

	// Get loads a collection the builder owns. A collection owned by another
	// builder yields ErrAccessDenied.
	Get(ctx context.Context, builder *principalDomain.Builder, id uuid.UUID) (*collectionDomain.Collection, error)

	// List returns a page of the builder's collections.
	List(ctx context.Context, builder *principalDomain.Builder, offset, limit int) ([]*collectionDomain.Collection, error)

	// UpdateSchema replaces the document schema of a collection the builder owns.
	UpdateSchema(
		ctx context.Context,
		builder *principalDomain.Builder,
		id uuid.UUID,
		schema map[string]any,
	) (*collectionDomain.Collection, error)

	// Delete removes a collection the builder owns along with its documents.
	Delete(ctx context.Context, builder *principalDomain.Builder, id uuid.UUID) error
}
