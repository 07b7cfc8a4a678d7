package domain

import (
	"fmt"

	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// Capability verification errors. All of them are terminal for the request.
// The boundary layer maps the unauthorized family to a generic 401 body and
// ErrInsufficientCapability to 403; diagnostic detail is logged, never echoed.
var (
	// ErrChainInvalid indicates a structural or temporal defect in the
	// presented delegation chain.
	ErrChainInvalid = apperrors.Wrap(apperrors.ErrUnauthorized, "invalid capability chain")

	// ErrCapabilityRevoked indicates a positive revocation hit anywhere in the
	// chain, or a revocation check that could not be completed (fail closed).
	ErrCapabilityRevoked = apperrors.Wrap(apperrors.ErrUnauthorized, "capability revoked")

	// ErrInsufficientCapability indicates the chain's terminal command is not
	// an attenuation of the command required by the invoked endpoint.
	ErrInsufficientCapability = apperrors.Wrap(apperrors.ErrForbidden, "insufficient capability")
)

// LinkError describes which link of a chain failed validation and why.
// It wraps ErrChainInvalid so boundary mapping stays uniform; the index and
// reason are for logs only.
type LinkError struct {
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	return fmt.Sprintf("invalid capability chain: link %d: %s", e.Index, e.Reason)
}

// Unwrap lets errors.Is match LinkError against ErrChainInvalid.
func (e *LinkError) Unwrap() error {
	return ErrChainInvalid
}

// NewLinkError creates a LinkError for the link at the given index.
func NewLinkError(index int, reason string) *LinkError {
	return &LinkError{Index: index, Reason: reason}
}
