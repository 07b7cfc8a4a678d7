// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// CreateDocumentRequest contains the data fields of a new document.
type CreateDocumentRequest struct {
	Data map[string]any `json:"data"`
}

// Validate checks if the create document request is valid.
func (r *CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Data, validation.Required),
	)
}

// UpdateDocumentRequest contains replacement data fields for a document.
type UpdateDocumentRequest struct {
	Data map[string]any `json:"data"`
}

// Validate checks if the update document request is valid.
func (r *UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Data, validation.Required),
	)
}

// GrantRequest contains the parameters for granting document access.
type GrantRequest struct {
	Grantee string `json:"grantee"`
	Read    bool   `json:"read"`
	Write   bool   `json:"write"`
	Execute bool   `json:"execute"`
}

// Validate checks if the grant request is valid. The at-least-one-capability
// rule lives in the domain; here only the shape is checked.
func (r *GrantRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Grantee,
			validation.Required,
			customValidation.NotBlank,
			customValidation.DID,
		),
	)
}

// RevokeRequest contains the parameters for revoking document access.
type RevokeRequest struct {
	Grantee string `json:"grantee"`
}

// Validate checks if the revoke request is valid.
func (r *RevokeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Grantee,
			validation.Required,
			customValidation.NotBlank,
			customValidation.DID,
		),
	)
}
