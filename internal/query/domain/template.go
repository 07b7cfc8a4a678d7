package domain

import (
	"fmt"
	"strconv"

	apperrors "github.com/capdocs/capdocs/internal/errors"
)

// Path is a parsed variable path expression. The grammar is deliberately
// closed: a "$" root, then one or more ".identifier" segments, each followed
// by zero or more "[n]" index accessors with non-negative integer n. Nothing
// else parses, so a declared path can never smuggle operator keys or nested
// objects into the pipeline.
type Path struct {
	raw   string
	steps []pathStep
}

// pathStep is one field access with optional trailing array indices.
type pathStep struct {
	field   string
	indices []int
}

// String returns the original path expression.
func (p *Path) String() string {
	return p.raw
}

// ParsePath validates a variable path expression against the grammar.
func ParsePath(raw string) (*Path, error) {
	s := raw
	if len(s) == 0 || s[0] != '$' {
		return nil, pathError(raw, "must start with '$'")
	}
	s = s[1:]

	if len(s) == 0 {
		return nil, pathError(raw, "must contain at least one field segment")
	}

	var steps []pathStep
	for len(s) > 0 {
		if s[0] != '.' {
			return nil, pathError(raw, "expected '.' before field segment")
		}
		s = s[1:]

		field, rest, err := scanIdentifier(s)
		if err != nil {
			return nil, pathError(raw, err.Error())
		}
		s = rest

		step := pathStep{field: field}
		for len(s) > 0 && s[0] == '[' {
			index, rest, err := scanIndex(s)
			if err != nil {
				return nil, pathError(raw, err.Error())
			}
			step.indices = append(step.indices, index)
			s = rest
		}
		steps = append(steps, step)
	}

	return &Path{raw: raw, steps: steps}, nil
}

// Resolve extracts the value the path names from a run payload. Any mismatch
// between the declared shape and the payload is a rejection: a permissive
// fallback here would let a caller steer which parts of the payload reach the
// pipeline.
func (p *Path) Resolve(payload map[string]any) (any, error) {
	var current any = payload
	for _, step := range p.steps {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, resolveError(p.raw, "expected object at %q", step.field)
		}
		value, ok := object[step.field]
		if !ok {
			return nil, resolveError(p.raw, "missing field %q", step.field)
		}
		current = value

		for _, index := range step.indices {
			array, ok := current.([]any)
			if !ok {
				return nil, resolveError(p.raw, "expected array at %q[%d]", step.field, index)
			}
			if index >= len(array) {
				return nil, resolveError(p.raw, "index %d out of range at %q", index, step.field)
			}
			current = array[index]
		}
	}
	return current, nil
}

// scanIdentifier consumes one identifier ([A-Za-z_][A-Za-z0-9_]*).
func scanIdentifier(s string) (string, string, error) {
	i := 0
	for i < len(s) && isIdentChar(s[i], i == 0) {
		i++
	}
	if i == 0 {
		return "", "", fmt.Errorf("expected identifier")
	}
	return s[:i], s[i:], nil
}

// scanIndex consumes one "[n]" accessor with non-negative integer n.
func scanIndex(s string) (int, string, error) {
	// caller guarantees s[0] == '['
	i := 1
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 1 {
		return 0, "", fmt.Errorf("expected non-negative integer index")
	}
	if i >= len(s) || s[i] != ']' {
		return 0, "", fmt.Errorf("expected ']' after index")
	}
	index, err := strconv.Atoi(s[1:i])
	if err != nil {
		return 0, "", fmt.Errorf("invalid index: %v", err)
	}
	return index, s[i+1:], nil
}

// isIdentChar reports whether c may appear in an identifier at the given
// position.
func isIdentChar(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func pathError(raw, reason string) error {
	return apperrors.Wrap(ErrInvalidVariablePath, fmt.Sprintf("%s: %s", raw, reason))
}

func resolveError(raw, format string, args ...any) error {
	return apperrors.Wrap(ErrVariableInjection, raw+": "+fmt.Sprintf(format, args...))
}
