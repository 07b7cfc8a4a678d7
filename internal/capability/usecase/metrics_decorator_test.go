package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// mockAuthorizeUseCase is a mock implementation of AuthorizeUseCase.
type mockAuthorizeUseCase struct {
	mock.Mock
}

func (m *mockAuthorizeUseCase) Authenticate(
	ctx context.Context,
	serialized string,
) (principalDomain.Principal, *capabilityDomain.Chain, error) {
	args := m.Called(ctx, serialized)
	var principal principalDomain.Principal
	if args.Get(0) != nil {
		principal = args.Get(0).(principalDomain.Principal)
	}
	var chain *capabilityDomain.Chain
	if args.Get(1) != nil {
		chain = args.Get(1).(*capabilityDomain.Chain)
	}
	return principal, chain, args.Error(2)
}

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestAuthorizeUseCaseWithMetrics(t *testing.T) {
	ctx := context.Background()
	const serialized = "serialized-chain"

	expectRecorded := func(metrics *mockBusinessMetrics, status string) {
		metrics.On("RecordOperation", ctx, "capability", "authenticate", status).Return().Once()
		metrics.On("RecordDuration", ctx, "capability", "authenticate",
			mock.AnythingOfType("time.Duration"), status).
			Return().
			Once()
	}

	t.Run("Success", func(t *testing.T) {
		next := &mockAuthorizeUseCase{}
		metrics := &mockBusinessMetrics{}
		chain := testChain("did:key:zSubject")
		builder := &principalDomain.Builder{DID: "did:key:zSubject"}

		next.On("Authenticate", ctx, serialized).Return(builder, chain, nil).Once()
		expectRecorded(metrics, "success")

		uc := NewAuthorizeUseCaseWithMetrics(next, metrics)
		principal, gotChain, err := uc.Authenticate(ctx, serialized)

		require.NoError(t, err)
		assert.Equal(t, builder, principal)
		assert.Equal(t, chain, gotChain)
		next.AssertExpectations(t)
		metrics.AssertExpectations(t)
	})

	t.Run("RevokedLabeledByStage", func(t *testing.T) {
		next := &mockAuthorizeUseCase{}
		metrics := &mockBusinessMetrics{}

		next.On("Authenticate", ctx, serialized).
			Return(nil, nil, apperrors.Wrap(capabilityDomain.ErrCapabilityRevoked, "revoked link in chain")).
			Once()
		expectRecorded(metrics, "revoked")

		uc := NewAuthorizeUseCaseWithMetrics(next, metrics)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, capabilityDomain.ErrCapabilityRevoked))
		metrics.AssertExpectations(t)
	})

	t.Run("ChainDefectLabeledByStage", func(t *testing.T) {
		next := &mockAuthorizeUseCase{}
		metrics := &mockBusinessMetrics{}

		next.On("Authenticate", ctx, serialized).
			Return(nil, nil, capabilityDomain.NewLinkError(1, "continuity broken")).
			Once()
		expectRecorded(metrics, "chain_invalid")

		uc := NewAuthorizeUseCaseWithMetrics(next, metrics)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, capabilityDomain.ErrChainInvalid))
		metrics.AssertExpectations(t)
	})

	t.Run("UnknownPrincipalLabeledByStage", func(t *testing.T) {
		next := &mockAuthorizeUseCase{}
		metrics := &mockBusinessMetrics{}

		next.On("Authenticate", ctx, serialized).
			Return(nil, nil, principalDomain.ErrUnknownPrincipal).
			Once()
		expectRecorded(metrics, "unknown_principal")

		uc := NewAuthorizeUseCaseWithMetrics(next, metrics)
		_, _, err := uc.Authenticate(ctx, serialized)

		assert.True(t, apperrors.Is(err, principalDomain.ErrUnknownPrincipal))
		metrics.AssertExpectations(t)
	})
}

func TestRevocationCheckerWithMetrics(t *testing.T) {
	ctx := context.Background()
	digests := []string{"digest-0"}

	t.Run("Success", func(t *testing.T) {
		next := &mockRevocationChecker{}
		metrics := &mockBusinessMetrics{}

		next.On("Revoked", ctx, digests).Return([]string{}, nil).Once()
		metrics.On("RecordOperation", ctx, "capability", "revocation_check", "success").Return().Once()
		metrics.On("RecordDuration", ctx, "capability", "revocation_check",
			mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		checker := NewRevocationCheckerWithMetrics(next, metrics)
		revoked, err := checker.Revoked(ctx, digests)

		require.NoError(t, err)
		assert.Empty(t, revoked)
		next.AssertExpectations(t)
		metrics.AssertExpectations(t)
	})

	t.Run("RoundTripFailureRecordedAsError", func(t *testing.T) {
		next := &mockRevocationChecker{}
		metrics := &mockBusinessMetrics{}

		next.On("Revoked", ctx, digests).Return(nil, errors.New("authority unreachable")).Once()
		metrics.On("RecordOperation", ctx, "capability", "revocation_check", "error").Return().Once()
		metrics.On("RecordDuration", ctx, "capability", "revocation_check",
			mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		checker := NewRevocationCheckerWithMetrics(next, metrics)
		_, err := checker.Revoked(ctx, digests)

		require.Error(t, err)
		metrics.AssertExpectations(t)
	})
}
