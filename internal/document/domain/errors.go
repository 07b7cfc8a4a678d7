package domain

import (
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

var (
	// ErrDocumentNotFound indicates no document matched the scoped filter.
	// A document outside the principal's grants is reported the same way as
	// one that does not exist.
	ErrDocumentNotFound = apperrors.Wrap(apperrors.ErrNotFound, "document not found")

	// ErrInvalidACLEntry indicates an ACL entry granting no capability at all.
	ErrInvalidACLEntry = apperrors.Wrap(apperrors.ErrInvalidInput, "acl entry must grant at least one capability")

	// ErrSchemaViolation indicates a document that does not satisfy the
	// collection's schema.
	ErrSchemaViolation = apperrors.Wrap(apperrors.ErrInvalidInput, "document violates collection schema")
)
