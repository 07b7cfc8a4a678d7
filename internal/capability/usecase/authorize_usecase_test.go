package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// mockChainDecoder is a mock implementation of service.ChainDecoder.
type mockChainDecoder struct {
	mock.Mock
}

func (m *mockChainDecoder) Decode(ctx context.Context, serialized string) (*capabilityDomain.Chain, error) {
	args := m.Called(ctx, serialized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capabilityDomain.Chain), args.Error(1)
}

// mockChainVerifier is a mock implementation of service.ChainVerifier.
type mockChainVerifier struct {
	mock.Mock
}

func (m *mockChainVerifier) Verify(chain *capabilityDomain.Chain) error {
	args := m.Called(chain)
	return args.Error(0)
}

// mockRevocationChecker is a mock implementation of service.RevocationChecker.
type mockRevocationChecker struct {
	mock.Mock
}

func (m *mockRevocationChecker) Revoked(ctx context.Context, digests []string) ([]string, error) {
	args := m.Called(ctx, digests)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// mockPrincipalUseCase is a mock implementation of usecase.PrincipalUseCase.
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

// testChain builds a minimal verified-looking chain.
func testChain(subject string) *capabilityDomain.Chain {
	return &capabilityDomain.Chain{Links: []capabilityDomain.Link{
		{
			Issuer:   "did:key:zRoot",
			Subject:  subject,
			Audience: "did:key:zNode",
			Command:  capabilityDomain.CommandDocumentsRead,
			Digest:   "digest-0",
		},
	}}
}

func TestAuthorizeUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()
	const serialized = "serialized-chain"
	const subject = "did:key:zSubject"

	newMocks := func() (*mockChainDecoder, *mockChainVerifier, *mockRevocationChecker, *mockPrincipalUseCase) {
		return &mockChainDecoder{}, &mockChainVerifier{}, &mockRevocationChecker{}, &mockPrincipalUseCase{}
	}

	t.Run("Success_AllStagesPass", func(t *testing.T) {
		decoder, verifier, revocations, principals := newMocks()
		chain := testChain(subject)
		builder := &principalDomain.Builder{DID: subject}

		decoder.On("Decode", ctx, serialized).Return(chain, nil).Once()
		verifier.On("Verify", chain).Return(nil).Once()
		revocations.On("Revoked", mock.Anything, []string{"digest-0"}).Return([]string{}, nil).Once()
		principals.On("Load", ctx, subject).Return(builder, nil).Once()

		uc := NewAuthorizeUseCase(decoder, verifier, revocations, principals, time.Second)
		principal, gotChain, err := uc.Authenticate(ctx, serialized)

		require.NoError(t, err)
		assert.Equal(t, builder, principal)
		assert.Equal(t, chain, gotChain)
		decoder.AssertExpectations(t)
		verifier.AssertExpectations(t)
		revocations.AssertExpectations(t)
		principals.AssertExpectations(t)
	})

	t.Run("Error_DecodeFailureShortCircuits", func(t *testing.T) {
		decoder, verifier, revocations, principals := newMocks()
		decoder.On("Decode", ctx, serialized).
			Return(nil, capabilityDomain.NewLinkError(0, "garbage")).
			Once()

		uc := NewAuthorizeUseCase(decoder, verifier, revocations, principals, time.Second)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, capabilityDomain.ErrChainInvalid))
		verifier.AssertNotCalled(t, "Verify")
		revocations.AssertNotCalled(t, "Revoked")
		principals.AssertNotCalled(t, "Load")
	})

	t.Run("Error_VerifyFailureSkipsRevocationRoundTrip", func(t *testing.T) {
		decoder, verifier, revocations, principals := newMocks()
		chain := testChain(subject)
		decoder.On("Decode", ctx, serialized).Return(chain, nil).Once()
		verifier.On("Verify", chain).Return(capabilityDomain.NewLinkError(1, "continuity broken")).Once()

		uc := NewAuthorizeUseCase(decoder, verifier, revocations, principals, time.Second)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, capabilityDomain.ErrChainInvalid))
		revocations.AssertNotCalled(t, "Revoked")
		principals.AssertNotCalled(t, "Load")
	})

	t.Run("Error_RevokedLink", func(t *testing.T) {
		decoder, verifier, revocations, principals := newMocks()
		chain := testChain(subject)
		decoder.On("Decode", ctx, serialized).Return(chain, nil).Once()
		verifier.On("Verify", chain).Return(nil).Once()
		revocations.On("Revoked", mock.Anything, []string{"digest-0"}).Return([]string{"digest-0"}, nil).Once()

		uc := NewAuthorizeUseCase(decoder, verifier, revocations, principals, time.Second)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, capabilityDomain.ErrCapabilityRevoked))
		principals.AssertNotCalled(t, "Load")
	})

	t.Run("Error_RevocationCheckFailureFailsClosed", func(t *testing.T) {
		decoder, verifier, revocations, principals := newMocks()
		chain := testChain(subject)
		decoder.On("Decode", ctx, serialized).Return(chain, nil).Once()
		verifier.On("Verify", chain).Return(nil).Once()
		revocations.On("Revoked", mock.Anything, []string{"digest-0"}).
			Return(nil, errors.New("authority unreachable")).
			Once()

		uc := NewAuthorizeUseCase(decoder, verifier, revocations, principals, time.Second)
		_, _, err := uc.Authenticate(ctx, serialized)

		// Unreachable authority is indistinguishable from a revocation.
		assert.True(t, apperrors.Is(err, capabilityDomain.ErrCapabilityRevoked))
		principals.AssertNotCalled(t, "Load")
	})

	t.Run("Error_UnknownPrincipal", func(t *testing.T) {
		decoder, verifier, revocations, principals := newMocks()
		chain := testChain(subject)
		decoder.On("Decode", ctx, serialized).Return(chain, nil).Once()
		verifier.On("Verify", chain).Return(nil).Once()
		revocations.On("Revoked", mock.Anything, []string{"digest-0"}).Return([]string{}, nil).Once()
		principals.On("Load", ctx, subject).Return(nil, principalDomain.ErrUnknownPrincipal).Once()

		uc := NewAuthorizeUseCase(decoder, verifier, revocations, principals, time.Second)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, principalDomain.ErrUnknownPrincipal))
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})
}
