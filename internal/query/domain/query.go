// Package domain defines stored queries, their variable templates and the
// asynchronous run lifecycle.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Variable declares a named substitution slot in a stored pipeline. Path is a
// restricted expression describing where in the caller-supplied payload the
// value is drawn from; it is validated against the path grammar when the
// query is defined.
type Variable struct {
	Name string `bson:"name" json:"name"`
	Path string `bson:"path" json:"path"`
}

// Query is a stored aggregation pipeline owned by a builder. Occurrences of
// "$<variable name>" in pipeline values are replaced with bound values before
// execution.
type Query struct {
	ID         uuid.UUID        `json:"id"`
	Builder    string           `json:"builder"`
	Name       string           `json:"name"`
	Collection uuid.UUID        `json:"collection"`
	Pipeline   []map[string]any `json:"pipeline"`
	Variables  []Variable       `json:"variables,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// BindPipeline returns a copy of the pipeline with every string value equal
// to "$<name>" replaced by the binding for that name. Bindings are inserted
// as whole values, never spliced into strings, so a bound value can never
// introduce new operator keys.
func BindPipeline(pipeline []map[string]any, bindings map[string]any) []map[string]any {
	bound := make([]map[string]any, len(pipeline))
	for i, stage := range pipeline {
		bound[i] = bindValue(stage, bindings).(map[string]any)
	}
	return bound
}

// bindValue recursively substitutes bindings into a pipeline value.
func bindValue(value any, bindings map[string]any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[key] = bindValue(inner, bindings)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = bindValue(inner, bindings)
		}
		return out
	case string:
		if len(v) > 1 && v[0] == '$' {
			if replacement, ok := bindings[v[1:]]; ok {
				return replacement
			}
		}
		return v
	default:
		return v
	}
}
