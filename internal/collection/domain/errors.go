package domain

import (
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

var (
	// ErrCollectionNotFound indicates the requested collection does not exist.
	ErrCollectionNotFound = apperrors.Wrap(apperrors.ErrNotFound, "collection not found")

	// ErrCollectionExists indicates the builder already has a collection with
	// the same name.
	ErrCollectionExists = apperrors.Wrap(apperrors.ErrConflict, "collection already exists")

	// ErrAccessDenied indicates the principal's ownership or ACL grants do not
	// cover the attempted operation. Maps to 403 at the boundary, distinct
	// from the unauthenticated family.
	ErrAccessDenied = apperrors.Wrap(apperrors.ErrForbidden, "access denied")

	// ErrInvalidSchema indicates the supplied document schema does not compile.
	ErrInvalidSchema = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid document schema")
)
