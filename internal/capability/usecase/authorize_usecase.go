package usecase

import (
	"context"
	"time"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	capabilityService "github.com/capdocs/capdocs/internal/capability/service"
	apperrors "github.com/capdocs/capdocs/internal/errors"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
	principalUseCase "github.com/capdocs/capdocs/internal/principal/usecase"
)

// authorizeUseCase implements AuthorizeUseCase.
type authorizeUseCase struct {
	decoder           capabilityService.ChainDecoder
	verifier          capabilityService.ChainVerifier
	revocations       capabilityService.RevocationChecker
	principals        principalUseCase.PrincipalUseCase
	revocationTimeout time.Duration
}

// NewAuthorizeUseCase creates an AuthorizeUseCase.
func NewAuthorizeUseCase(
	decoder capabilityService.ChainDecoder,
	verifier capabilityService.ChainVerifier,
	revocations capabilityService.RevocationChecker,
	principals principalUseCase.PrincipalUseCase,
	revocationTimeout time.Duration,
) AuthorizeUseCase {
	return &authorizeUseCase{
		decoder:           decoder,
		verifier:          verifier,
		revocations:       revocations,
		principals:        principals,
		revocationTimeout: revocationTimeout,
	}
}

// Authenticate runs the gating stages in strict order. The cheap structural
// checks reject malformed requests before the revocation round trip is paid;
// the principal lookup runs last because a chain that fails verification must
// never reach storage.
//
// Security notes:
//   - Every failure here maps to the same generic unauthorized response at the
//     boundary; which stage failed (and for a chain defect, which link) is
//     only ever logged.
//   - A revocation check that cannot be completed is a revocation: the request
//     fails closed, never open.
func (a *authorizeUseCase) Authenticate(
	ctx context.Context,
	serialized string,
) (principalDomain.Principal, *capabilityDomain.Chain, error) {
	// Stage 1+2: decode (identities are normalized during decoding) and
	// verify the chain structure.
	chain, err := a.decoder.Decode(ctx, serialized)
	if err != nil {
		return nil, nil, err
	}
	if err := a.verifier.Verify(chain); err != nil {
		return nil, nil, err
	}

	// Stage 3: revocation. Bounded round trip; timeout or transport failure
	// is treated as "all potentially revoked".
	revocationCtx, cancel := context.WithTimeout(ctx, a.revocationTimeout)
	defer cancel()

	revoked, err := a.revocations.Revoked(revocationCtx, chain.Digests())
	if err != nil {
		return nil, nil, apperrors.Wrap(capabilityDomain.ErrCapabilityRevoked, err.Error())
	}
	if len(revoked) > 0 {
		return nil, nil, apperrors.Wrap(capabilityDomain.ErrCapabilityRevoked, "revoked link in chain")
	}

	// Stage 4: resolve the chain subject to a registered principal.
	principal, err := a.principals.Load(ctx, chain.Subject())
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidInput) {
			// A malformed subject in an otherwise valid chain is a chain
			// defect, not a bad request.
			return nil, nil, apperrors.Wrap(capabilityDomain.ErrChainInvalid, err.Error())
		}
		return nil, nil, err
	}

	return principal, chain, nil
}
