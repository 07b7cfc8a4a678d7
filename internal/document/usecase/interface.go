// Package usecase implements business logic for document operations.
package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	documentDomain "github.com/capdocs/capdocs/internal/document/domain"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// DocumentRepository defines document persistence operations. Filters passed
// here are already scoped by the access filter.
type DocumentRepository interface {
	Insert(ctx context.Context, collection *collectionDomain.Collection, document *documentDomain.Document) error
	FindOne(ctx context.Context, collection *collectionDomain.Collection, filter bson.M) (*documentDomain.Document, error)
	Find(
		ctx context.Context,
		collection *collectionDomain.Collection,
		filter bson.M,
		offset, limit int,
	) ([]*documentDomain.Document, error)
	Update(ctx context.Context, collection *collectionDomain.Collection, filter bson.M, data map[string]any) error
	Delete(ctx context.Context, collection *collectionDomain.Collection, filter bson.M) error
	Grant(
		ctx context.Context,
		collection *collectionDomain.Collection,
		documentID, ownerDID string,
		entry documentDomain.ACLEntry,
	) error
	Revoke(
		ctx context.Context,
		collection *collectionDomain.Collection,
		documentID, ownerDID, granteeDID string,
	) error
}

// CollectionReader loads collection metadata for access decisions.
type CollectionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*collectionDomain.Collection, error)
}

// DocumentUseCase orchestrates document operations. Every read and write runs
// through the access filter; ACL mutation and deletion in owned collections
// run through owner-matched conditional updates instead.
type DocumentUseCase interface {
	// Create stores a new document. In a standard collection only the owning
	// builder may create; in an owned collection any authenticated principal
	// may create and becomes the document's owner.
	Create(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		data map[string]any,
	) (*documentDomain.Document, error)

	// Get returns a single document visible to the principal under the read
	// permission.
	Get(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		documentID string,
	) (*documentDomain.Document, error)

	// List returns a page of documents visible to the principal under the
	// read permission.
	List(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		offset, limit int,
	) ([]*documentDomain.Document, error)

	// Update replaces the data fields of a document the principal may write.
	Update(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		documentID string,
		data map[string]any,
	) error

	// Delete removes a document. In owned collections only the document owner
	// may delete; deleting is also the only way to end the owner's implicit
	// access.
	Delete(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		documentID string,
	) error

	// Grant adds or replaces an ACL entry on a document the principal owns.
	Grant(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		documentID string,
		entry documentDomain.ACLEntry,
	) error

	// Revoke removes a grantee's ACL entry from a document the principal owns.
	Revoke(
		ctx context.Context,
		principal principalDomain.Principal,
		collectionID uuid.UUID,
		documentID string,
		granteeDID string,
	) error
}
