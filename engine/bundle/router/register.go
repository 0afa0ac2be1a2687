package bundlerouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	pkg := apiBase.Group("/package")
	{
		// POST /api/package/generate
		// Render artifacts and return them keyed by file name
		pkg.POST("/generate", generatePackage)

		// POST /api/package/download
		// Render artifacts as a zip archive
		pkg.POST("/download", downloadPackage)
	}

	cfg := apiBase.Group("/configuration")
	{
		// GET /api/configuration/history
		// List recent generations, newest first
		cfg.GET("/history", listHistory)

		// POST /api/configuration/load/:id
		// Load the configuration recorded with a generation
		cfg.POST("/load/:id", loadHistory)
	}
}
