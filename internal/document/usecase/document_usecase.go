package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	collectionService "github.com/capdocs/capdocs/internal/collection/service"
	documentDomain "github.com/capdocs/capdocs/internal/document/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/identity"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
)

// documentUseCase implements DocumentUseCase.
type documentUseCase struct {
	documents    DocumentRepository
	collections  CollectionReader
	accessFilter collectionService.AccessFilter
	principals   principalUseCase.PrincipalUseCase
	logger       *slog.Logger
}

// NewDocumentUseCase creates the document use case.
func NewDocumentUseCase(
	documents DocumentRepository,
	collections CollectionReader,
	accessFilter collectionService.AccessFilter,
	principals principalUseCase.PrincipalUseCase,
	logger *slog.Logger,
) DocumentUseCase {
	return &documentUseCase{
		documents:    documents,
		collections:  collections,
		accessFilter: accessFilter,
		principals:   principals,
		logger:       logger,
	}
}

// Create stores a new document.
func (u *documentUseCase) Create(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	data map[string]any,
) (*documentDomain.Document, error) {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	// In standard collections only the owning builder creates documents.
	if collection.Kind == collectionDomain.KindStandard && principal.PrincipalDID() != collection.Builder {
		return nil, collectionDomain.ErrAccessDenied
	}

	if err := u.validateAgainstSchema(collection, data); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	document := &documentDomain.Document{
		ID:        uuid.NewString(),
		Owner:     principal.PrincipalDID(),
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.documents.Insert(ctx, collection, document); err != nil {
		return nil, err
	}

	u.recordEvent(ctx, principal, principalDomain.EventCreate, collectionID, document.ID)

	return document, nil
}

// Get returns a single document visible to the principal.
func (u *documentUseCase) Get(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	documentID string,
) (*documentDomain.Document, error) {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	// The document owner's access is implicit and not represented in the ACL,
	// so the owner-matched lookup runs before the ACL-scoped one.
	if collection.Kind == collectionDomain.KindOwned {
		document, err := u.documents.FindOne(ctx, collection, ownerFilter(documentID, principal.PrincipalDID()))
		if err == nil {
			return document, nil
		}
		if !apperrors.Is(err, documentDomain.ErrDocumentNotFound) {
			return nil, err
		}
	}

	filter, err := u.accessFilter.Scope(principal, collection, collectionDomain.PermissionRead, bson.M{"_id": documentID})
	if err != nil {
		return nil, err
	}
	return u.documents.FindOne(ctx, collection, filter)
}

// List returns a page of documents visible to the principal.
func (u *documentUseCase) List(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	offset, limit int,
) ([]*documentDomain.Document, error) {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	filter, err := u.accessFilter.Scope(principal, collection, collectionDomain.PermissionRead, nil)
	if err != nil {
		return nil, err
	}

	// Owned collections: the listing covers granted documents plus the
	// principal's own.
	if collection.Kind == collectionDomain.KindOwned {
		filter = bson.M{"$or": []bson.M{
			{"_owner": principal.PrincipalDID()},
			filter,
		}}
	}

	return u.documents.Find(ctx, collection, filter, offset, limit)
}

// Update replaces the data fields of a document the principal may write.
func (u *documentUseCase) Update(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	documentID string,
	data map[string]any,
) error {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}

	if err := u.validateAgainstSchema(collection, data); err != nil {
		return err
	}

	// Owner-matched update first, for the same reason as in Get.
	if collection.Kind == collectionDomain.KindOwned {
		err := u.documents.Update(ctx, collection, ownerFilter(documentID, principal.PrincipalDID()), data)
		if err == nil {
			u.recordEvent(ctx, principal, principalDomain.EventUpdate, collectionID, documentID)
			return nil
		}
		if !apperrors.Is(err, documentDomain.ErrDocumentNotFound) {
			return err
		}
	}

	filter, err := u.accessFilter.Scope(principal, collection, collectionDomain.PermissionWrite, bson.M{"_id": documentID})
	if err != nil {
		return err
	}
	if err := u.documents.Update(ctx, collection, filter, data); err != nil {
		return err
	}

	u.recordEvent(ctx, principal, principalDomain.EventUpdate, collectionID, documentID)
	return nil
}

// Delete removes a document.
func (u *documentUseCase) Delete(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	documentID string,
) error {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}

	var filter bson.M
	switch collection.Kind {
	case collectionDomain.KindOwned:
		// No delete capability exists in the ACL: only the document owner
		// deletes, which is also how the owner's implicit access ends.
		filter = ownerFilter(documentID, principal.PrincipalDID())
	default:
		filter, err = u.accessFilter.Scope(
			principal,
			collection,
			collectionDomain.PermissionWrite,
			bson.M{"_id": documentID},
		)
		if err != nil {
			return err
		}
	}

	if err := u.documents.Delete(ctx, collection, filter); err != nil {
		return err
	}

	u.recordEvent(ctx, principal, principalDomain.EventDelete, collectionID, documentID)
	return nil
}

// Grant adds or replaces an ACL entry on a document the principal owns.
func (u *documentUseCase) Grant(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	documentID string,
	entry documentDomain.ACLEntry,
) error {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if collection.Kind != collectionDomain.KindOwned {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "standard collections carry no document ACL")
	}

	if !entry.Valid() {
		return documentDomain.ErrInvalidACLEntry
	}

	grantee, err := identity.Normalize(entry.Grantee)
	if err != nil {
		return err
	}
	entry.Grantee = grantee

	// The owner's access is implicit; it never appears as an entry.
	if grantee == principal.PrincipalDID() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "owner access is implicit and cannot be granted")
	}

	if err := u.documents.Grant(ctx, collection, documentID, principal.PrincipalDID(), entry); err != nil {
		return err
	}

	u.recordEvent(ctx, principal, principalDomain.EventGrant, collectionID, documentID)
	return nil
}

// Revoke removes a grantee's ACL entry from a document the principal owns.
func (u *documentUseCase) Revoke(
	ctx context.Context,
	principal principalDomain.Principal,
	collectionID uuid.UUID,
	documentID string,
	granteeDID string,
) error {
	collection, err := u.collections.GetByID(ctx, collectionID)
	if err != nil {
		return err
	}
	if collection.Kind != collectionDomain.KindOwned {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "standard collections carry no document ACL")
	}

	grantee, err := identity.Normalize(granteeDID)
	if err != nil {
		return err
	}

	// The owner's implicit access cannot be revoked; the document must be
	// deleted instead.
	if grantee == principal.PrincipalDID() {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "owner access cannot be revoked")
	}

	if err := u.documents.Revoke(ctx, collection, documentID, principal.PrincipalDID(), grantee); err != nil {
		return err
	}

	u.recordEvent(ctx, principal, principalDomain.EventRevoke, collectionID, documentID)
	return nil
}

// validateAgainstSchema checks document data against the collection schema,
// when one is set.
func (u *documentUseCase) validateAgainstSchema(collection *collectionDomain.Collection, data map[string]any) error {
	schema, err := collectionService.CompileSchema(collection.Schema)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	if err := schema.Validate(data); err != nil {
		return apperrors.Wrap(documentDomain.ErrSchemaViolation, err.Error())
	}
	return nil
}

// recordEvent appends to the acting principal's data-lifecycle log. Failures
// are logged, never surfaced: the data operation already succeeded.
func (u *documentUseCase) recordEvent(
	ctx context.Context,
	principal principalDomain.Principal,
	eventType principalDomain.EventType,
	collectionID uuid.UUID,
	documentID string,
) {
	event := principalDomain.Event{
		Type:       eventType,
		Collection: collectionID,
		Document:   documentID,
		At:         time.Now().UTC(),
	}
	if err := u.principals.RecordUserEvent(ctx, principal, event); err != nil {
		u.logger.Error("failed to record user event",
			slog.String("principal_did", principal.PrincipalDID()),
			slog.String("event_type", string(eventType)),
			slog.Any("error", err))
	}
}

// ownerFilter matches a document by id and owner.
func ownerFilter(documentID, ownerDID string) bson.M {
	return bson.M{"_id": documentID, "_owner": ownerDID}
}
