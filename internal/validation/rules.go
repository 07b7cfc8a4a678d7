// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/capdocs/capdocs/internal/errors"
	"github.com/capdocs/capdocs/internal/identity"
)

var (
	// commandRegex matches slash-separated lowercase command namespaces
	// such as "capdocs/documents/read".
	commandRegex = regexp.MustCompile(`^[a-z0-9_]+(/[a-z0-9_]+)*$`)

	// collectionNameRegex restricts collection names to a portable identifier set.
	collectionNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-]{0,63}$`)

	// variableNameRegex matches query variable names referenced as "$name".
	variableNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// DID validates that a string is a well-formed did:key identifier.
// Both the multibase and the base64url encodings are accepted.
var DID = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := identity.Normalize(s)
		return err == nil
	},
	validation.NewError("validation_did_format", "must be a valid did:key identifier"),
)

// Command validates that a string is a well-formed command namespace.
var Command = validation.NewStringRuleWithError(
	func(s string) bool {
		return commandRegex.MatchString(s)
	},
	validation.NewError("validation_command_format", "must be a slash-separated command namespace"),
)

// CollectionName validates that a string is usable as a collection name.
var CollectionName = validation.NewStringRuleWithError(
	func(s string) bool {
		return collectionNameRegex.MatchString(s)
	},
	validation.NewError(
		"validation_collection_name",
		"must start with a letter and contain only letters, digits, underscores and hyphens",
	),
)

// VariableName validates that a string is usable as a query variable name.
var VariableName = validation.NewStringRuleWithError(
	func(s string) bool {
		return variableNameRegex.MatchString(s)
	},
	validation.NewError("validation_variable_name", "must be a valid identifier"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
