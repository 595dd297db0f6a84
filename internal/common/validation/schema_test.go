package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["email"],
  "properties": {
    "email": {"type": "string", "minLength": 1},
    "age": {"type": "integer"}
  }
}`

func TestValidateDocument(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		res, err := ValidateDocument(personSchema, map[string]interface{}{"email": "a@b.c", "age": 3})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	t.Run("missing required", func(t *testing.T) {
		res, err := ValidateDocument(personSchema, map[string]interface{}{"age": 3})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "REQUIRED", res.Errors[0].Code)
		assert.Len(t, res.GetErrorMessages(), 1)
	})

	t.Run("wrong type", func(t *testing.T) {
		res, err := ValidateDocument(personSchema, map[string]interface{}{"email": "a@b.c", "age": "old"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "age", res.Errors[0].Field)
	})

	t.Run("struct input", func(t *testing.T) {
		doc := struct {
			Email string `json:"email"`
		}{Email: "x@y.z"}
		res, err := ValidateDocument(personSchema, doc)
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})
}

func TestValidateDocument_BadSchema(t *testing.T) {
	_, err := ValidateDocument(`{"type": 12}`, map[string]interface{}{})
	assert.Error(t, err)
}
