package domain

import (
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// Principal errors.
var (
	// ErrUnknownPrincipal indicates the chain subject is not a registered
	// principal. At the boundary this is indistinguishable from any other
	// unauthorized response; the distinction lives in the logs.
	ErrUnknownPrincipal = apperrors.Wrap(apperrors.ErrUnauthorized, "unknown principal")

	// ErrPrincipalExists indicates a principal with the same canonical
	// identity is already registered.
	ErrPrincipalExists = apperrors.Wrap(apperrors.ErrConflict, "principal already exists")
)
