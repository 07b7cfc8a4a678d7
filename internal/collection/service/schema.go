package service

import (
	"github.com/santhosh-tekuri/jsonschema/v6"

	collectionDomain "github.com/capdocs/capdocs/internal/collection/domain"
	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// schemaURL is the synthetic resource name schemas compile under.
const schemaURL = "mem://collection/schema.json"

// CompileSchema compiles a collection's document schema. A nil schema
// compiles to nil, meaning the collection accepts any document shape.
func CompileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schema); err != nil {
		return nil, apperrors.Wrap(collectionDomain.ErrInvalidSchema, err.Error())
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, apperrors.Wrap(collectionDomain.ErrInvalidSchema, err.Error())
	}
	return compiled, nil
}
