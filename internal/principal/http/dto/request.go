// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// CreateBuilderRequest contains the identity of a builder to register.
type CreateBuilderRequest struct {
	DID string `json:"did"`
}

// Validate checks if the create builder request is valid.
func (r *CreateBuilderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.DID,
		),
	)
}

// CreateUserRequest contains the identity of a user to register.
type CreateUserRequest struct {
	DID string `json:"did"`
}

// Validate checks if the create user request is valid.
func (r *CreateUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.DID,
		),
	)
}
