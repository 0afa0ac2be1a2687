package profilerouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	profiles := apiBase.Group("/profiles")
	{
		// GET /api/profiles
		// List profiles, oldest first
		profiles.GET("", listProfiles)

		// GET /api/profiles/:id
		// Get a profile; honors If-None-Match
		profiles.GET("/:id", getProfile)

		// POST /api/profiles
		// Create a profile from a configuration
		profiles.POST("", createProfile)

		// PUT /api/profiles/:id
		// Partially update a profile; honors If-Match
		profiles.PUT("/:id", updateProfile)

		// DELETE /api/profiles/:id
		// Delete a profile
		profiles.DELETE("/:id", deleteProfile)

		// GET /api/profiles/:id/export?sanitize=true
		// Download the profile as a re-importable JSON document
		profiles.GET("/:id/export", exportProfile)
	}
}
