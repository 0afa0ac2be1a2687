package settings

import (
	"encoding/json"
	"testing"

	"github.com/kaptinlin/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	raw, err := JSONSchemaBytes()
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile(raw)
	require.NoError(t, err)
	return schema
}

func TestJSONSchema(t *testing.T) {
	t.Run("Should accept the default configuration", func(t *testing.T) {
		schema := compileSchema(t)
		m, err := ToMap(Default())
		require.NoError(t, err)
		raw, err := json.Marshal(m)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))

		result := schema.Validate(doc)
		assert.True(t, result.Valid, "%v", result.Errors)
	})

	t.Run("Should reject a port outside the allowed range", func(t *testing.T) {
		schema := compileSchema(t)
		result := schema.Validate(map[string]any{"port": float64(70000)})
		assert.False(t, result.Valid)
	})

	t.Run("Should accept both file strategy forms", func(t *testing.T) {
		schema := compileSchema(t)
		assert.True(t, schema.Validate(map[string]any{"fileStrategy": "s3"}).Valid)
		assert.True(t, schema.Validate(map[string]any{
			"fileStrategy": map[string]any{"avatar": "s3", "document": "local"},
		}).Valid)
		assert.False(t, schema.Validate(map[string]any{"fileStrategy": "ftp"}).Valid)
	})

	t.Run("Should carry categories and mark secrets write-only", func(t *testing.T) {
		s := JSONSchema()
		port, ok := s.Properties.Get("port")
		require.True(t, ok)
		assert.Equal(t, "Server", port.Extras["x-category"])
		assert.Equal(t, json.Number("65535"), port.Maximum)

		key, ok := s.Properties.Get("openaiApiKey")
		require.True(t, ok)
		assert.True(t, key.WriteOnly)
	})
}
