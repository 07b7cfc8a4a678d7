// Package service implements capability chain decoding, structural
// verification and revocation checking.
package service

import (
	"context"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
)

// ChainDecoder parses and cryptographically verifies a serialized capability
// chain into its per-link structure.
//
// The signature math is an external concern: verifier logic depends only on
// this interface so it can be tested with synthetic chains.
type ChainDecoder interface {
	// Decode parses the serialized chain, verifies every link's signature and
	// returns the parsed chain, root link first. A malformed or badly signed
	// chain yields an error wrapping ErrChainInvalid.
	Decode(ctx context.Context, serialized string) (*capabilityDomain.Chain, error)
}

// ChainVerifier validates the structural and temporal invariants of a parsed
// chain. Verification is pure: no I/O, no side effects.
type ChainVerifier interface {
	// Verify checks chain continuity, invocation audience, root trust,
	// per-link attenuation and time bounds. It fails with a LinkError
	// (wrapping ErrChainInvalid) at the first violation.
	Verify(chain *capabilityDomain.Chain) error
}

// RevocationChecker consults the external revocation authority.
type RevocationChecker interface {
	// Revoked returns the subset of the given link digests that are revoked.
	// An error means the check could not be completed; callers must treat
	// that as "all potentially revoked" (fail closed), never as "none revoked".
	Revoked(ctx context.Context, digests []string) ([]string, error)
}
