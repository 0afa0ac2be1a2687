package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	t.Run("Should return the unversioned API base path", func(t *testing.T) {
		assert.Equal(t, "/api", Base())
	})
}

func TestResourceRoutes(t *testing.T) {
	t.Run("Should nest resources under the base path", func(t *testing.T) {
		assert.Equal(t, "/api/configuration", Configuration())
		assert.Equal(t, "/api/profiles", Profiles())
		assert.Equal(t, "/api/package", Package())
		assert.Equal(t, "/api/deployments", Deployments())
	})

	t.Run("Should keep health outside the API group", func(t *testing.T) {
		assert.Equal(t, "/health", Health())
	})
}
