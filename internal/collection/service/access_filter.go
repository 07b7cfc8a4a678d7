// Package service implements the access-control decision point for collection
// data operations.
package service

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// ACLField is the document field holding per-document ACL entries in owned
// collections. Existing stored entries are queried through this field, so the
// name is part of the compatibility surface.
const ACLField = "_acl"

// AccessFilter scopes data operations against a collection to what a
// principal may see or touch.
//
// Every data-path operation (read, update, delete, aggregation) must pass
// through Scope before its predicate reaches the database. The result is
// never cached across requests: ACL entries can change between calls.
type AccessFilter interface {
	// Scope returns the effective query predicate for the operation, or
	// ErrAccessDenied when the principal has no path to the collection at all.
	Scope(
		principal principalDomain.Principal,
		collection *collectionDomain.Collection,
		permission collectionDomain.Permission,
		predicate bson.M,
	) (bson.M, error)
}

// accessFilter is the stateless AccessFilter implementation. Safe for
// concurrent use: it only reads collection metadata, never mutates ACL state.
type accessFilter struct{}

// NewAccessFilter creates the access filter service.
func NewAccessFilter() AccessFilter {
	return &accessFilter{}
}

// Scope applies the collection-kind access rule:
//
//   - standard: the principal must be the owning builder; the caller's
//     predicate passes through unchanged.
//   - owned: the predicate is narrowed to documents carrying an ACL entry
//     granting the permission to the principal. The owning builder is not
//     exempt: owned-collection data belongs to the granted users.
func (f *accessFilter) Scope(
	principal principalDomain.Principal,
	collection *collectionDomain.Collection,
	permission collectionDomain.Permission,
	predicate bson.M,
) (bson.M, error) {
	grantee := principal.PrincipalDID()

	switch collection.Kind {
	case collectionDomain.KindStandard:
		if grantee != collection.Builder {
			return nil, collectionDomain.ErrAccessDenied
		}
		if predicate == nil {
			return bson.M{}, nil
		}
		return predicate, nil

	case collectionDomain.KindOwned:
		aclPredicate := bson.M{
			ACLField: bson.M{
				"$elemMatch": bson.M{
					"grantee":          grantee,
					string(permission): true,
				},
			},
		}
		if len(predicate) == 0 {
			return aclPredicate, nil
		}
		return bson.M{"$and": []bson.M{predicate, aclPredicate}}, nil

	default:
		return nil, collectionDomain.ErrAccessDenied
	}
}
