package usecase

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/identity"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// mockPrincipalRepository is a mock implementation of PrincipalRepository.
type mockPrincipalRepository struct {
	mock.Mock
}

func (m *mockPrincipalRepository) GetByDID(ctx context.Context, did string) (principalDomain.Principal, error) {
	args := m.Called(ctx, did)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(principalDomain.Principal), args.Error(1)
}

func (m *mockPrincipalRepository) CreateBuilder(ctx context.Context, builder *principalDomain.Builder) error {
	args := m.Called(ctx, builder)
	return args.Error(0)
}

func (m *mockPrincipalRepository) CreateUser(ctx context.Context, user *principalDomain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockPrincipalRepository) AddBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID) error {
	args := m.Called(ctx, did, collectionID)
	return args.Error(0)
}

func (m *mockPrincipalRepository) RemoveBuilderCollection(ctx context.Context, did string, collectionID uuid.UUID) error {
	args := m.Called(ctx, did, collectionID)
	return args.Error(0)
}

func (m *mockPrincipalRepository) AddBuilderQuery(ctx context.Context, did string, queryID uuid.UUID) error {
	args := m.Called(ctx, did, queryID)
	return args.Error(0)
}

func (m *mockPrincipalRepository) RemoveBuilderQuery(ctx context.Context, did string, queryID uuid.UUID) error {
	args := m.Called(ctx, did, queryID)
	return args.Error(0)
}

func (m *mockPrincipalRepository) AppendUserEvent(
	ctx context.Context,
	did string,
	event principalDomain.Event,
	maxEvents int,
) error {
	args := m.Called(ctx, did, event, maxEvents)
	return args.Error(0)
}

func (m *mockPrincipalRepository) AddUserDocument(ctx context.Context, did string, ref principalDomain.DocumentRef) error {
	args := m.Called(ctx, did, ref)
	return args.Error(0)
}

func (m *mockPrincipalRepository) RemoveUserDocument(ctx context.Context, did string, ref principalDomain.DocumentRef) error {
	args := m.Called(ctx, did, ref)
	return args.Error(0)
}

// testDIDs returns canonical and legacy encodings of a fresh key.
func testDIDs(t *testing.T) (canonical, legacy string) {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return identity.FromPublicKey(pub), identity.Prefix + base64.RawURLEncoding.EncodeToString(pub)
}

func newUseCase(t *testing.T, repo PrincipalRepository) *principalUseCase {
	t.Helper()

	uc, err := NewPrincipalUseCase(repo, 100, time.Minute, 10)
	require.NoError(t, err)
	return uc.(*principalUseCase)
}

func TestPrincipalUseCase_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LoadBuilder", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		repo := &mockPrincipalRepository{}
		builder := &principalDomain.Builder{DID: canonical}
		repo.On("GetByDID", ctx, canonical).Return(builder, nil).Once()

		uc := newUseCase(t, repo)
		principal, err := uc.Load(ctx, canonical)

		require.NoError(t, err)
		assert.Equal(t, principalDomain.KindBuilder, principal.PrincipalKind())
		repo.AssertExpectations(t)
	})

	t.Run("Success_LegacyDIDResolvesCanonicalRecord", func(t *testing.T) {
		canonical, legacy := testDIDs(t)
		repo := &mockPrincipalRepository{}
		user := &principalDomain.User{DID: canonical}
		// The repository must only ever see the canonical key.
		repo.On("GetByDID", ctx, canonical).Return(user, nil).Once()

		uc := newUseCase(t, repo)
		principal, err := uc.Load(ctx, legacy)

		require.NoError(t, err)
		assert.Equal(t, canonical, principal.PrincipalDID())
		repo.AssertExpectations(t)
	})

	t.Run("Success_SecondLoadServedFromCache", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		repo := &mockPrincipalRepository{}
		builder := &principalDomain.Builder{DID: canonical}
		repo.On("GetByDID", ctx, canonical).Return(builder, nil).Once()

		uc := newUseCase(t, repo)
		_, err := uc.Load(ctx, canonical)
		require.NoError(t, err)
		uc.cache.Wait()

		principal, err := uc.Load(ctx, canonical)
		require.NoError(t, err)
		assert.Equal(t, canonical, principal.PrincipalDID())
		repo.AssertExpectations(t)
	})

	t.Run("Error_UnknownPrincipalNotCached", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		repo := &mockPrincipalRepository{}
		// Absence must be re-checked every time: a stale cache may delay
		// finding an existing principal but never invent one.
		repo.On("GetByDID", ctx, canonical).Return(nil, principalDomain.ErrUnknownPrincipal).Twice()

		uc := newUseCase(t, repo)
		_, err := uc.Load(ctx, canonical)
		assert.True(t, apperrors.Is(err, principalDomain.ErrUnknownPrincipal))

		_, err = uc.Load(ctx, canonical)
		assert.True(t, apperrors.Is(err, principalDomain.ErrUnknownPrincipal))
		repo.AssertExpectations(t)
	})

	t.Run("Error_MalformedDID", func(t *testing.T) {
		repo := &mockPrincipalRepository{}
		uc := newUseCase(t, repo)

		_, err := uc.Load(ctx, "not-a-did")
		assert.True(t, apperrors.Is(err, identity.ErrInvalidIdentifier))
		repo.AssertNotCalled(t, "GetByDID")
	})
}

func TestPrincipalUseCase_CreateBuilder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_NormalizesLegacyDID", func(t *testing.T) {
		canonical, legacy := testDIDs(t)
		repo := &mockPrincipalRepository{}
		repo.On("CreateBuilder", ctx, mock.MatchedBy(func(b *principalDomain.Builder) bool {
			return b.DID == canonical && !b.CreatedAt.IsZero()
		})).Return(nil).Once()

		uc := newUseCase(t, repo)
		builder, err := uc.CreateBuilder(ctx, legacy)

		require.NoError(t, err)
		assert.Equal(t, canonical, builder.DID)
		repo.AssertExpectations(t)
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		repo := &mockPrincipalRepository{}
		repo.On("CreateBuilder", ctx, mock.Anything).Return(principalDomain.ErrPrincipalExists).Once()

		uc := newUseCase(t, repo)
		_, err := uc.CreateBuilder(ctx, canonical)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})
}

func TestPrincipalUseCase_RecordUserEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CreateEventTracksDocument", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		collectionID := uuid.Must(uuid.NewV7())
		repo := &mockPrincipalRepository{}
		user := &principalDomain.User{DID: canonical}

		repo.On("AppendUserEvent", ctx, canonical, mock.MatchedBy(func(e principalDomain.Event) bool {
			return e.Type == principalDomain.EventCreate && !e.At.IsZero()
		}), 10).Return(nil).Once()
		repo.On("AddUserDocument", ctx, canonical, principalDomain.DocumentRef{
			Collection: collectionID,
			Document:   "doc-1",
		}).Return(nil).Once()

		uc := newUseCase(t, repo)
		err := uc.RecordUserEvent(ctx, user, principalDomain.Event{
			Type:       principalDomain.EventCreate,
			Collection: collectionID,
			Document:   "doc-1",
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Success_DeleteEventUntracksDocument", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		collectionID := uuid.Must(uuid.NewV7())
		repo := &mockPrincipalRepository{}
		user := &principalDomain.User{DID: canonical}

		repo.On("AppendUserEvent", ctx, canonical, mock.Anything, 10).Return(nil).Once()
		repo.On("RemoveUserDocument", ctx, canonical, mock.Anything).Return(nil).Once()

		uc := newUseCase(t, repo)
		err := uc.RecordUserEvent(ctx, user, principalDomain.Event{
			Type:       principalDomain.EventDelete,
			Collection: collectionID,
			Document:   "doc-1",
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Success_GrantEventOnlyAppends", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		repo := &mockPrincipalRepository{}
		user := &principalDomain.User{DID: canonical}
		repo.On("AppendUserEvent", ctx, canonical, mock.Anything, 10).Return(nil).Once()

		uc := newUseCase(t, repo)
		err := uc.RecordUserEvent(ctx, user, principalDomain.Event{Type: principalDomain.EventGrant})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "AddUserDocument")
		repo.AssertNotCalled(t, "RemoveUserDocument")
	})

	t.Run("Success_BuilderEventsIgnored", func(t *testing.T) {
		canonical, _ := testDIDs(t)
		repo := &mockPrincipalRepository{}
		builder := &principalDomain.Builder{DID: canonical}

		uc := newUseCase(t, repo)
		err := uc.RecordUserEvent(ctx, builder, principalDomain.Event{Type: principalDomain.EventCreate})

		require.NoError(t, err)
		repo.AssertNotCalled(t, "AppendUserEvent")
	})
}
