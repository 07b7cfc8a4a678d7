// Package usecase implements the capability authorization pipeline.
package usecase

import (
	"context"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// AuthorizeUseCase runs the gating stages of request authorization: chain
// decoding, structural verification, revocation checking and principal
// loading. Stages run in strict order and the first failure short-circuits
// the rest (fail closed).
type AuthorizeUseCase interface {
	// Authenticate validates a serialized capability chain and resolves its
	// subject to a registered principal. The returned chain carries the
	// effective command for the attenuation check at the endpoint.
	Authenticate(ctx context.Context, serialized string) (principalDomain.Principal, *capabilityDomain.Chain, error)
}
