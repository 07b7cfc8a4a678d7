package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

const (
	ownerDID   = "did:key:zOwner"
	userDID    = "did:key:zUser"
	visitorDID = "did:key:zVisitor"
)

func standardCollection() *collectionDomain.Collection {
	return &collectionDomain.Collection{
		ID:      uuid.New(),
		Builder: ownerDID,
		Name:    "invoices",
		Kind:    collectionDomain.KindStandard,
	}
}

func ownedCollection() *collectionDomain.Collection {
	return &collectionDomain.Collection{
		ID:      uuid.New(),
		Builder: ownerDID,
		Name:    "records",
		Kind:    collectionDomain.KindOwned,
	}
}

func TestAccessFilter_Scope(t *testing.T) {
	filter := NewAccessFilter()
	owner := &principalDomain.Builder{DID: ownerDID}
	user := &principalDomain.User{DID: userDID}
	visitor := &principalDomain.User{DID: visitorDID}

	t.Run("StandardOwnerPredicatePassesThrough", func(t *testing.T) {
		predicate := bson.M{"a": 1}
		scoped, err := filter.Scope(owner, standardCollection(), collectionDomain.PermissionRead, predicate)
		require.NoError(t, err)
		assert.Equal(t, bson.M{"a": 1}, scoped)
	})

	t.Run("StandardOwnerNilPredicate", func(t *testing.T) {
		scoped, err := filter.Scope(owner, standardCollection(), collectionDomain.PermissionRead, nil)
		require.NoError(t, err)
		assert.Equal(t, bson.M{}, scoped)
	})

	t.Run("StandardNonOwnerDenied", func(t *testing.T) {
		_, err := filter.Scope(visitor, standardCollection(), collectionDomain.PermissionRead, bson.M{"a": 1})
		assert.True(t, apperrors.Is(err, collectionDomain.ErrAccessDenied))
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("OwnedEmptyPredicateBecomesACLPredicate", func(t *testing.T) {
		scoped, err := filter.Scope(user, ownedCollection(), collectionDomain.PermissionRead, bson.M{})
		require.NoError(t, err)

		expected := bson.M{
			"_acl": bson.M{
				"$elemMatch": bson.M{
					"grantee": userDID,
					"read":    true,
				},
			},
		}
		assert.Equal(t, expected, scoped)
	})

	t.Run("OwnedPredicateConjoinedWithACLPredicate", func(t *testing.T) {
		scoped, err := filter.Scope(user, ownedCollection(), collectionDomain.PermissionWrite, bson.M{"f": "v"})
		require.NoError(t, err)

		expected := bson.M{
			"$and": []bson.M{
				{"f": "v"},
				{
					"_acl": bson.M{
						"$elemMatch": bson.M{
							"grantee": userDID,
							"write":   true,
						},
					},
				},
			},
		}
		assert.Equal(t, expected, scoped)
	})

	t.Run("OwnedOwnerStillScopedByACL", func(t *testing.T) {
		// The owning builder reads owned-collection data only through grants.
		scoped, err := filter.Scope(owner, ownedCollection(), collectionDomain.PermissionExecute, nil)
		require.NoError(t, err)

		expected := bson.M{
			"_acl": bson.M{
				"$elemMatch": bson.M{
					"grantee": ownerDID,
					"execute": true,
				},
			},
		}
		assert.Equal(t, expected, scoped)
	})

	t.Run("UnknownKindDenied", func(t *testing.T) {
		collection := standardCollection()
		collection.Kind = collectionDomain.Kind("mystery")
		_, err := filter.Scope(owner, collection, collectionDomain.PermissionRead, nil)
		assert.True(t, apperrors.Is(err, collectionDomain.ErrAccessDenied))
	})
}
