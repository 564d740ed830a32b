package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id": {"type": "integer"},
		"name": {"type": "string"}
	}
}`

func TestAgainstValidDocument(t *testing.T) {
	result, err := Against(`{"id":7,"name":"John"}`, userSchema)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestAgainstInvalidDocument(t *testing.T) {
	result, err := Against(`{"id":"seven"}`, userSchema)

	require.NoError(t, err)
	assert.False(t, result.Valid)
	// Wrong type for id and the missing name both surface.
	assert.Len(t, result.Errors, 2)

	err = result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	var schemaErr *Error
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, result.Errors, schemaErr.Errors)
}

func TestAgainstMalformedSchema(t *testing.T) {
	_, err := Against(`{"id":7}`, `{"type":`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation error")
}

func TestAgainstMalformedBody(t *testing.T) {
	_, err := Against(`not json`, userSchema)

	assert.Error(t, err)
}

func TestAgainstFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(userSchema), 0o644))

	result, err := AgainstFile(`{"id":7,"name":"John"}`, path)

	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestAgainstFileMissing(t *testing.T) {
	_, err := AgainstFile(`{}`, filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema file")
}
