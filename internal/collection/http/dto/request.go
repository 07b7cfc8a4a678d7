// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// CreateCollectionRequest contains the parameters for creating a new collection.
type CreateCollectionRequest struct {
	Name   string         `json:"name"`
	Kind   string         `json:"kind"` // "standard" or "owned"
	Schema map[string]any `json:"schema,omitempty"`
}

// Validate checks if the create collection request is valid.
func (r *CreateCollectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.CollectionName,
		),
		validation.Field(&r.Kind,
			validation.Required,
			validation.By(validateKind),
		),
	)
}

// UpdateCollectionSchemaRequest contains the parameters for replacing a
// collection's document schema. Kind is immutable and cannot appear here.
type UpdateCollectionSchemaRequest struct {
	Schema map[string]any `json:"schema"`
}

// Validate checks if the update schema request is valid.
func (r *UpdateCollectionSchemaRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Schema, validation.Required),
	)
}

// validateKind validates that the kind is a known collection kind.
func validateKind(value interface{}) error {
	kind, ok := value.(string)
	if !ok {
		return validation.NewError("validation_kind_type", "must be a string")
	}
	if !collectionDomain.Kind(kind).Valid() {
		return validation.NewError("validation_kind", "must be 'standard' or 'owned'")
	}
	return nil
}
