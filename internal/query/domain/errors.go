package domain

import (
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

var (
	// ErrQueryNotFound indicates the requested query does not exist.
	ErrQueryNotFound = apperrors.Wrap(apperrors.ErrNotFound, "query not found")

	// ErrRunNotFound indicates the requested run does not exist.
	ErrRunNotFound = apperrors.Wrap(apperrors.ErrNotFound, "query run not found")

	// ErrInvalidVariablePath indicates a declared variable path outside the
	// restricted grammar. Rejected when the query is defined, before anything
	// is stored.
	ErrInvalidVariablePath = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid variable path")

	// ErrVariableInjection indicates a run payload that does not satisfy the
	// declared variable shape: a missing path, a non-object where the path
	// expects one, or an index into a non-array.
	ErrVariableInjection = apperrors.Wrap(apperrors.ErrInvalidInput, "variable payload rejected")
)
