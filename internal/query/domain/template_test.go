package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capdocs/capdocs/internal/errors"
)

func TestParsePath(t *testing.T) {
	valid := []string{
		"$.customer",
		"$.customer.id",
		"$.items[0]",
		"$.items[0].price",
		"$.matrix[0][1]",
		"$._internal.value",
		"$.a1.b2[10]",
	}
	for _, path := range valid {
		t.Run("Valid_"+path, func(t *testing.T) {
			parsed, err := ParsePath(path)
			require.NoError(t, err)
			assert.Equal(t, path, parsed.String())
		})
	}

	invalid := []string{
		"",
		"customer",
		"$",
		"$.",
		"$customer",
		"$.customer.",
		"$..id",
		"$.items[]",
		"$.items[-1]",
		"$.items[a]",
		"$.items[0",
		"$.cus tomer",
		"$.$where",
		"$.items[0]extra",
		"$.1field",
	}
	for _, path := range invalid {
		t.Run("Invalid_"+path, func(t *testing.T) {
			_, err := ParsePath(path)
			assert.True(t, apperrors.Is(err, ErrInvalidVariablePath), "path %q should be rejected", path)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestPath_Resolve(t *testing.T) {
	payload := map[string]any{
		"customer": map[string]any{"id": "c-1"},
		"items": []any{
			map[string]any{"price": 10.5},
			map[string]any{"price": 20.0},
		},
		"flat": "value",
	}

	resolve := func(t *testing.T, raw string) (any, error) {
		t.Helper()
		parsed, err := ParsePath(raw)
		require.NoError(t, err)
		return parsed.Resolve(payload)
	}

	t.Run("NestedField", func(t *testing.T) {
		value, err := resolve(t, "$.customer.id")
		require.NoError(t, err)
		assert.Equal(t, "c-1", value)
	})

	t.Run("IndexedField", func(t *testing.T) {
		value, err := resolve(t, "$.items[1].price")
		require.NoError(t, err)
		assert.Equal(t, 20.0, value)
	})

	t.Run("WholeObject", func(t *testing.T) {
		value, err := resolve(t, "$.customer")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": "c-1"}, value)
	})

	t.Run("Error_MissingField", func(t *testing.T) {
		_, err := resolve(t, "$.customer.name")
		assert.True(t, apperrors.Is(err, ErrVariableInjection))
	})

	t.Run("Error_IndexIntoNonArray", func(t *testing.T) {
		_, err := resolve(t, "$.flat[0]")
		assert.True(t, apperrors.Is(err, ErrVariableInjection))
	})

	t.Run("Error_IndexOutOfRange", func(t *testing.T) {
		_, err := resolve(t, "$.items[5]")
		assert.True(t, apperrors.Is(err, ErrVariableInjection))
	})

	t.Run("Error_FieldAccessOnScalar", func(t *testing.T) {
		_, err := resolve(t, "$.flat.deeper")
		assert.True(t, apperrors.Is(err, ErrVariableInjection))
	})
}

func TestBindPipeline(t *testing.T) {
	pipeline := []map[string]any{
		{"$match": map[string]any{"customer": "$customerID"}},
		{"$limit": 10},
		{"$project": map[string]any{"tags": []any{"$tag", "static"}}},
	}
	bindings := map[string]any{
		"customerID": "c-1",
		"tag":        "vip",
	}

	bound := BindPipeline(pipeline, bindings)

	assert.Equal(t, "c-1", bound[0]["$match"].(map[string]any)["customer"])
	assert.Equal(t, 10, bound[1]["$limit"])
	assert.Equal(t, []any{"vip", "static"}, bound[2]["$project"].(map[string]any)["tags"])

	// The stored pipeline is never mutated.
	assert.Equal(t, "$customerID", pipeline[0]["$match"].(map[string]any)["customer"])
}

func TestBindPipeline_OperatorStringsUntouched(t *testing.T) {
	pipeline := []map[string]any{
		{"$group": map[string]any{"_id": "$customer", "total": map[string]any{"$sum": "$amount"}}},
	}

	bound := BindPipeline(pipeline, map[string]any{"other": 1})

	// "$customer" and "$amount" have no binding and stay as field references.
	assert.Equal(t, pipeline, bound)
}
