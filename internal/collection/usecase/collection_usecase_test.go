package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// mockCollectionRepository is a mock implementation of CollectionRepository.
type mockCollectionRepository struct {
	mock.Mock
}

func (m *mockCollectionRepository) Create(ctx context.Context, collection *collectionDomain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *mockCollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*collectionDomain.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collectionDomain.Collection), args.Error(1)
}

func (m *mockCollectionRepository) ListByBuilder(
	ctx context.Context,
	builderDID string,
	offset, limit int,
) ([]*collectionDomain.Collection, error) {
	args := m.Called(ctx, builderDID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*collectionDomain.Collection), args.Error(1)
}

func (m *mockCollectionRepository) UpdateSchema(ctx context.Context, id uuid.UUID, schema map[string]any) error {
	args := m.Called(ctx, id, schema)
	return args.Error(0)
}

func (m *mockCollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockDocumentPurger is a mock implementation of DocumentPurger.
type mockDocumentPurger struct {
	mock.Mock
}

func (m *mockDocumentPurger) DropData(ctx context.Context, collection *collectionDomain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

// mockPrincipalUseCase is a mock implementation of principalUseCase.PrincipalUseCase.
type mockPrincipalUseCase struct {
	mock.Mock
}

func (m *mockPrincipalUseCase) Load(ctx context.Context, rawDID string) (principalDomain.Principal, error) {
	args := m.Called(ctx, rawDID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalUseCase) CreateBuilder(ctx context.Context, rawDID string) (*principalDomain.Builder, error) {
	args := m.Called(ctx, rawDID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.Builder), args.Error(1)
}

func (m *mockPrincipalUseCase) CreateUser(ctx context.Context, rawDID string) (*principalDomain.User, error) {
	args := m.Called(ctx, rawDID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*principalDomain.User), args.Error(1)
}

func (m *mockPrincipalUseCase) TrackBuilderCollection(
	ctx context.Context,
	did string,
	collectionID uuid.UUID,
	owned bool,
) error {
	args := m.Called(ctx, did, collectionID, owned)
	return args.Error(0)
}

func (m *mockPrincipalUseCase) TrackBuilderQuery(ctx context.Context, did string, queryID uuid.UUID, owned bool) error {
	args := m.Called(ctx, did, queryID, owned)
	return args.Error(0)
}

func (m *mockPrincipalUseCase) RecordUserEvent(
	ctx context.Context,
	principal principalDomain.Principal,
	event principalDomain.Event,
) error {
	args := m.Called(ctx, principal, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCollectionUseCase_Create(t *testing.T) {
	ctx := context.Background()
	builder := &principalDomain.Builder{DID: "did:key:zBuilder"}

	t.Run("Success", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		purger := &mockDocumentPurger{}
		principals := &mockPrincipalUseCase{}

		collections.On("Create", ctx, mock.AnythingOfType("*domain.Collection")).Return(nil).Once()
		principals.On("TrackBuilderCollection", ctx, builder.DID, mock.AnythingOfType("uuid.UUID"), true).
			Return(nil).
			Once()

		uc := NewCollectionUseCase(collections, purger, principals, testLogger())
		schema := map[string]any{"type": "object"}
		collection, err := uc.Create(ctx, builder, "invoices", collectionDomain.KindStandard, schema)

		require.NoError(t, err)
		assert.Equal(t, builder.DID, collection.Builder)
		assert.Equal(t, collectionDomain.KindStandard, collection.Kind)
		assert.NotEqual(t, uuid.Nil, collection.ID)
		collections.AssertExpectations(t)
		principals.AssertExpectations(t)
	})

	t.Run("Error_SchemaDoesNotCompile", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		purger := &mockDocumentPurger{}
		principals := &mockPrincipalUseCase{}

		uc := NewCollectionUseCase(collections, purger, principals, testLogger())
		schema := map[string]any{"type": "nonsense"}
		_, err := uc.Create(ctx, builder, "invoices", collectionDomain.KindStandard, schema)

		assert.True(t, apperrors.Is(err, collectionDomain.ErrInvalidSchema))
		collections.AssertNotCalled(t, "Create")
	})

	t.Run("Error_DuplicateName", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		purger := &mockDocumentPurger{}
		principals := &mockPrincipalUseCase{}

		collections.On("Create", ctx, mock.AnythingOfType("*domain.Collection")).
			Return(collectionDomain.ErrCollectionExists).
			Once()

		uc := NewCollectionUseCase(collections, purger, principals, testLogger())
		_, err := uc.Create(ctx, builder, "invoices", collectionDomain.KindOwned, nil)

		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		principals.AssertNotCalled(t, "TrackBuilderCollection")
	})
}

func TestCollectionUseCase_Get(t *testing.T) {
	ctx := context.Background()
	builder := &principalDomain.Builder{DID: "did:key:zBuilder"}
	collectionID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		stored := &collectionDomain.Collection{ID: collectionID, Builder: builder.DID, Kind: collectionDomain.KindStandard}
		collections.On("GetByID", ctx, collectionID).Return(stored, nil).Once()

		uc := NewCollectionUseCase(collections, &mockDocumentPurger{}, &mockPrincipalUseCase{}, testLogger())
		collection, err := uc.Get(ctx, builder, collectionID)

		require.NoError(t, err)
		assert.Equal(t, stored, collection)
	})

	t.Run("Error_OtherBuildersCollection", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		stored := &collectionDomain.Collection{ID: collectionID, Builder: "did:key:zOther"}
		collections.On("GetByID", ctx, collectionID).Return(stored, nil).Once()

		uc := NewCollectionUseCase(collections, &mockDocumentPurger{}, &mockPrincipalUseCase{}, testLogger())
		_, err := uc.Get(ctx, builder, collectionID)

		assert.True(t, apperrors.Is(err, collectionDomain.ErrAccessDenied))
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		collections.On("GetByID", ctx, collectionID).Return(nil, collectionDomain.ErrCollectionNotFound).Once()

		uc := NewCollectionUseCase(collections, &mockDocumentPurger{}, &mockPrincipalUseCase{}, testLogger())
		_, err := uc.Get(ctx, builder, collectionID)

		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}

func TestCollectionUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	builder := &principalDomain.Builder{DID: "did:key:zBuilder"}
	collectionID := uuid.New()
	stored := &collectionDomain.Collection{ID: collectionID, Builder: builder.DID, Kind: collectionDomain.KindOwned}

	t.Run("Success_DropsDataAndUntracks", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		purger := &mockDocumentPurger{}
		principals := &mockPrincipalUseCase{}

		collections.On("GetByID", ctx, collectionID).Return(stored, nil).Once()
		collections.On("Delete", ctx, collectionID).Return(nil).Once()
		purger.On("DropData", ctx, stored).Return(nil).Once()
		principals.On("TrackBuilderCollection", ctx, builder.DID, collectionID, false).Return(nil).Once()

		uc := NewCollectionUseCase(collections, purger, principals, testLogger())
		require.NoError(t, uc.Delete(ctx, builder, collectionID))

		collections.AssertExpectations(t)
		purger.AssertExpectations(t)
		principals.AssertExpectations(t)
	})

	t.Run("Error_OtherBuildersCollection", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		other := &collectionDomain.Collection{ID: collectionID, Builder: "did:key:zOther"}
		collections.On("GetByID", ctx, collectionID).Return(other, nil).Once()

		uc := NewCollectionUseCase(collections, &mockDocumentPurger{}, &mockPrincipalUseCase{}, testLogger())
		err := uc.Delete(ctx, builder, collectionID)

		assert.True(t, apperrors.Is(err, collectionDomain.ErrAccessDenied))
		collections.AssertNotCalled(t, "Delete")
	})
}

func TestCollectionUseCase_UpdateSchema(t *testing.T) {
	ctx := context.Background()
	builder := &principalDomain.Builder{DID: "did:key:zBuilder"}
	collectionID := uuid.New()
	stored := &collectionDomain.Collection{ID: collectionID, Builder: builder.DID, Kind: collectionDomain.KindStandard}

	t.Run("Success", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		schema := map[string]any{"type": "object", "required": []any{"amount"}}
		collections.On("GetByID", ctx, collectionID).Return(stored, nil).Once()
		collections.On("UpdateSchema", ctx, collectionID, schema).Return(nil).Once()

		uc := NewCollectionUseCase(collections, &mockDocumentPurger{}, &mockPrincipalUseCase{}, testLogger())
		collection, err := uc.UpdateSchema(ctx, builder, collectionID, schema)

		require.NoError(t, err)
		assert.Equal(t, schema, collection.Schema)
	})

	t.Run("Error_SchemaDoesNotCompile", func(t *testing.T) {
		collections := &mockCollectionRepository{}
		collections.On("GetByID", ctx, collectionID).Return(stored, nil).Once()

		uc := NewCollectionUseCase(collections, &mockDocumentPurger{}, &mockPrincipalUseCase{}, testLogger())
		_, err := uc.UpdateSchema(ctx, builder, collectionID, map[string]any{"type": "nonsense"})

		assert.True(t, apperrors.Is(err, collectionDomain.ErrInvalidSchema))
		collections.AssertNotCalled(t, "UpdateSchema")
	})
}
