// Package http provides HTTP middleware and utilities for capability authentication.
package http

import (
	"context"

	capabilityDomain "github.com/capdocs/capdocs/internal/capability/domain"
	principalDomain "github.com/capdocs/capdocs/internal/principal/domain"
)

// principalKey is a context key type for storing authenticated principals.
type principalKey struct{}

// chainKey is a context key type for storing verified capability chains.
type chainKey struct{}

// WithPrincipal stores an authenticated principal in the context.
// This is typically called by the capability middleware after successful chain verification.
func WithPrincipal(ctx context.Context, principal principalDomain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// GetPrincipal retrieves an authenticated principal from the context.
// Returns (principal, true) if a principal is present, or (nil, false) if none was set.
func GetPrincipal(ctx context.Context) (principalDomain.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(principalDomain.Principal)
	return principal, ok
}

// GetBuilder retrieves the authenticated principal as a builder.
// Returns (nil, false) when no principal is set or the principal is a user.
func GetBuilder(ctx context.Context) (*principalDomain.Builder, bool) {
	principal, ok := ctx.Value(principalKey{}).(*principalDomain.Builder)
	return principal, ok
}

// GetUser retrieves the authenticated principal as a user.
// Returns (nil, false) when no principal is set or the principal is a builder.
func GetUser(ctx context.Context) (*principalDomain.User, bool) {
	principal, ok := ctx.Value(principalKey{}).(*principalDomain.User)
	return principal, ok
}

// WithChain stores the verified capability chain in the context.
// This is typically called by the capability middleware after successful verification.
func WithChain(ctx context.Context, chain *capabilityDomain.Chain) context.Context {
	return context.WithValue(ctx, chainKey{}, chain)
}

// GetChain retrieves the verified capability chain from the context.
// Returns (chain, true) if present, or (nil, false) if not set.
// Handlers use the chain to inspect the presented command for attenuation checks.
func GetChain(ctx context.Context) (*capabilityDomain.Chain, bool) {
	chain, ok := ctx.Value(chainKey{}).(*capabilityDomain.Chain)
	return chain, ok
}
