package usecase

import (
	"context"
	"time"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	capabilityService "github.com/capdocs/capdocs/internal/capability/service"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/metrics"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// authorizeUseCaseWithMetrics decorates AuthorizeUseCase with metrics instrumentation.
type authorizeUseCaseWithMetrics struct {
	next    AuthorizeUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthorizeUseCaseWithMetrics wraps an AuthorizeUseCase with metrics recording.
func NewAuthorizeUseCaseWithMetrics(useCase AuthorizeUseCase, m metrics.BusinessMetrics) AuthorizeUseCase {
	return &authorizeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Authenticate records each authorization decision and its latency, labeled
// by the outcome of the gating stage that settled it.
func (a *authorizeUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	serialized string,
) (principalDomain.Principal, *capabilityDomain.Chain, error) {
	start := time.Now()
	principal, chain, err := a.next.Authenticate(ctx, serialized)

	status := authenticateStatus(err)
	a.metrics.RecordOperation(ctx, "capability", "authenticate", status)
	a.metrics.RecordDuration(ctx, "capability", "authenticate", time.Since(start), status)

	return principal, chain, err
}

// authenticateStatus maps an authentication result to a metric label. The
// labels mirror the gating stages; the uniform unauthorized response at the
// boundary is unaffected.
func authenticateStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, capabilityDomain.ErrCapabilityRevoked):
		return "revoked"
	case apperrors.Is(err, capabilityDomain.ErrChainInvalid):
		return "chain_invalid"
	case apperrors.Is(err, principalDomain.ErrUnknownPrincipal):
		return "unknown_principal"
	default:
		return "error"
	}
}

// revocationCheckerWithMetrics decorates a RevocationChecker with round-trip
// latency recording.
type revocationCheckerWithMetrics struct {
	next    capabilityService.RevocationChecker
	metrics metrics.BusinessMetrics
}

// NewRevocationCheckerWithMetrics wraps a RevocationChecker with metrics recording.
func NewRevocationCheckerWithMetrics(
	checker capabilityService.RevocationChecker,
	m metrics.BusinessMetrics,
) capabilityService.RevocationChecker {
	return &revocationCheckerWithMetrics{
		next:    checker,
		metrics: m,
	}
}

// Revoked records the authority round-trip latency. A failed round trip is
// recorded as an error; the caller still treats it as a revocation.
func (r *revocationCheckerWithMetrics) Revoked(ctx context.Context, digests []string) ([]string, error) {
	start := time.Now()
	revoked, err := r.next.Revoked(ctx, digests)

	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordOperation(ctx, "capability", "revocation_check", status)
	r.metrics.RecordDuration(ctx, "capability", "revocation_check", time.Since(start), status)

	return revoked, err
}
