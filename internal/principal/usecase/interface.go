// Package usecase implements business logic for loading and managing principals.
package usecase

import (
	"context"

	"github.com/google/uuid"

	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// PrincipalRepository defines principal persistence operations.
type PrincipalRepository interface {
	GetByDID(ctx context.Context, did string) (principalDomain.Principal, error)
	CreateBuilder(ctx context.Context, builder *principalDomain.Builder) error
	CreateUser(ctx context.Context, user *principalDomain.User) error
	AddBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID) error
	RemoveBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID) error
	AddBuilderQuery(ctx context.Context, did string, queryID uuid.UUID) error
	RemoveBuilderQuery(ctx context.Context, did string, queryID uuid.UUID) error
	AppendUserEvent(ctx context.Context, did string, event principalDomain.Event, maxEvents int) error
	AddUserDocument(ctx context.Context, did string, ref principalDomain.DocumentRef) error
	RemoveUserDocument(ctx context.Context, did string, ref principalDomain.DocumentRef) error
}

// PrincipalUseCase orchestrates principal loading (with caching) and the
// ownership bookkeeping other modules perform as side effects of their
// operations.
type PrincipalUseCase interface {
	// Load resolves a principal by identifier. The identifier is normalized
	// before lookup, so canonical and legacy encodings resolve to the same
	// record. Returns ErrUnknownPrincipal if the subject is not registered.
	Load(ctx context.Context, rawDID string) (principalDomain.Principal, error)

	// CreateBuilder registers a new builder under the normalized identity.
	CreateBuilder(ctx context.Context, rawDID string) (*principalDomain.Builder, error)

	// CreateUser registers a new user under the normalized identity.
	CreateUser(ctx context.Context, rawDID string) (*principalDomain.User, error)

	// TrackBuilderCollection adds or removes collection ownership.
	TrackBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID, owned bool) error

	// TrackBuilderQuery adds or removes query ownership.
	TrackBuilderQuery(ctx context.Context, did string, queryID uuid.UUID, owned bool) error

	// RecordUserEvent appends to the user's bounded data-lifecycle log and
	// keeps the owned-document set in sync for create/delete events. Events
	// for principals that are not users are ignored.
	RecordUserEvent(ctx context.Context, principal principalDomain.Principal, event principalDomain.Event) error
}
