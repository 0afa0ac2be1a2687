package settingsrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	cfg := apiBase.Group("/configuration")
	{
		// GET /api/configuration/default
		// Default configuration with local secrets applied
		cfg.GET("/default", getDefault)

		// POST /api/configuration/validate
		// Per-category validation report
		cfg.POST("/validate", validateConfiguration)

		// GET /api/configuration/schema
		// JSON Schema of the configuration
		cfg.GET("/schema", getSchema)

		// POST /api/configuration/import?format=env|yaml|profile
		// Read a generated artifact back into a configuration
		cfg.POST("/import", importConfiguration)

		// PUT /api/configuration/secrets
		// Store local convenience secrets
		cfg.PUT("/secrets", putSecrets)
	}
}
