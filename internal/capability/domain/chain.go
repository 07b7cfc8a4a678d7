package domain

import "time"

// Link is one delegation step in a capability chain.
//
// Links are produced by an external decoder after signature verification; this
// package only reasons about the already-parsed structure. Issuer, Subject and
// Audience are canonical did:key identifiers.
type Link struct {
	// Issuer is the identity that signed this link.
	Issuer string
	// Subject is the principal on whose behalf authority is delegated. It is
	// constant across a well-formed chain.
	Subject string
	// Audience is the identity this link delegates to. For the terminal link
	// it names the invoked node.
	Audience string
	// Command is the capability namespace granted by this link.
	Command Command
	// NotBefore and ExpiresAt are optional time-bound attenuations.
	NotBefore *time.Time
	ExpiresAt *time.Time
	// Digest is the content-addressed hash of the serialized link, used for
	// revocation checks.
	Digest string
}

// Chain is an ordered delegation chain, root link first, terminating in an
// invocation against this node. Chains are request-scoped: they are parsed,
// validated and discarded, never persisted.
type Chain struct {
	Links []Link
}

// Terminal returns the last link of the chain, the invocation link.
// Callers must ensure the chain is non-empty.
func (c *Chain) Terminal() Link {
	return c.Links[len(c.Links)-1]
}

// Root returns the first link of the chain. Callers must ensure the chain is
// non-empty.
func (c *Chain) Root() Link {
	return c.Links[0]
}

// Subject returns the principal identity the chain delegates on behalf of.
func (c *Chain) Subject() string {
	if len(c.Links) == 0 {
		return ""
	}
	return c.Terminal().Subject
}

// Command returns the command carried by the terminal link: the effective
// authority the invocation presents.
func (c *Chain) Command() Command {
	if len(c.Links) == 0 {
		return ""
	}
	return c.Terminal().Command
}

// Digests returns the content-addressed digests of every link, in chain order.
func (c *Chain) Digests() []string {
	digests := make([]string, len(c.Links))
	for i, link := range c.Links {
		digests[i] = link.Digest
	}
	return digests
}
