// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/capdocs/capdocs/internal/validation"
)

// VariableRequest declares one template variable of a query.
type VariableRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Validate checks if the variable declaration is valid. The path grammar
// itself is enforced by the domain parser.
func (r *VariableRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.VariableName,
		),
		validation.Field(&r.Path,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// CreateQueryRequest contains the parameters for defining a stored query.
type CreateQueryRequest struct {
	Name       string            `json:"name"`
	Collection string            `json:"collection"`
	Pipeline   []map[string]any  `json:"pipeline"`
	Variables  []VariableRequest `json:"variables"`
}

// Validate checks if the create query request is valid.
func (r *CreateQueryRequest) Validate() error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.CollectionName,
		),
		validation.Field(&r.Collection,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Pipeline, validation.Required),
	); err != nil {
		return err
	}

	for i := range r.Variables {
		if err := r.Variables[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SubmitRunRequest contains the variable payload for a run submission.
type SubmitRunRequest struct {
	Variables map[string]any `json:"variables"`
}

// Validate checks if the submit run request is valid. A query without
// variables accepts an empty payload.
func (r *SubmitRunRequest) Validate() error {
	return nil
}
