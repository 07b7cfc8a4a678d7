package service

import (
	"fmt"
	"time"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
)

// chainVerifier implements ChainVerifier over already-parsed chains.
type chainVerifier struct {
	nodeDID        string
	trustedIssuers map[string]struct{}
	now            func() time.Time
}

// NewChainVerifier creates a ChainVerifier for the given node identity and
// trusted root issuers. Both are expected in canonical did:key form.
func NewChainVerifier(nodeDID string, trustedIssuers []string) ChainVerifier {
	trusted := make(map[string]struct{}, len(trustedIssuers))
	for _, issuer := range trustedIssuers {
		trusted[issuer] = struct{}{}
	}
	return &chainVerifier{
		nodeDID:        nodeDID,
		trustedIssuers: trusted,
		now:            time.Now,
	}
}

// Verify validates the chain in order: continuity and subject consistency,
// terminal invocation audience, trusted root issuer, per-link command
// attenuation, and time bounds. It stops at the first violation; the returned
// LinkError names the failing link for logging only.
func (v *chainVerifier) Verify(chain *capabilityDomain.Chain) error {
	if chain == nil || len(chain.Links) == 0 {
		return capabilityDomain.NewLinkError(0, "empty chain")
	}

	// Chain continuity: every link's audience is the next link's issuer, and
	// the delegated subject never changes.
	subject := chain.Root().Subject
	if subject == "" {
		return capabilityDomain.NewLinkError(0, "missing subject")
	}
	for i := 0; i < len(chain.Links)-1; i++ {
		if chain.Links[i].Audience != chain.Links[i+1].Issuer {
			return capabilityDomain.NewLinkError(
				i+1,
				fmt.Sprintf("issuer %q does not match previous audience %q", chain.Links[i+1].Issuer, chain.Links[i].Audience),
			)
		}
	}
	for i, link := range chain.Links {
		if link.Subject != subject {
			return capabilityDomain.NewLinkError(i, "subject differs from chain subject")
		}
	}

	// The final link must be an invocation addressed to this node, not a bare
	// delegation.
	if terminal := chain.Terminal(); terminal.Audience != v.nodeDID {
		return capabilityDomain.NewLinkError(
			len(chain.Links)-1,
			fmt.Sprintf("terminal audience %q is not this node", terminal.Audience),
		)
	}

	// The chain must be rooted in a trusted authority.
	if _, ok := v.trustedIssuers[chain.Root().Issuer]; !ok {
		return capabilityDomain.NewLinkError(0, fmt.Sprintf("untrusted root issuer %q", chain.Root().Issuer))
	}

	// Authority only narrows: each link's command must attenuate its
	// predecessor's.
	for i := 1; i < len(chain.Links); i++ {
		if !chain.Links[i].Command.AttenuationOf(chain.Links[i-1].Command) {
			return capabilityDomain.NewLinkError(
				i,
				fmt.Sprintf("command %q is not an attenuation of %q", chain.Links[i].Command, chain.Links[i-1].Command),
			)
		}
	}

	// All time-bound attenuations must currently hold.
	now := v.now().UTC()
	for i, link := range chain.Links {
		if link.NotBefore != nil && now.Before(*link.NotBefore) {
			return capabilityDomain.NewLinkError(i, "not yet valid")
		}
		if link.ExpiresAt != nil && !now.Before(*link.ExpiresAt) {
			return capabilityDomain.NewLinkError(i, "expired")
		}
	}

	return nil
}
