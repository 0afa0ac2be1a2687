package deployrouter

import "github.com/gin-gonic/gin"

func Register(apiBase *gin.RouterGroup) {
	deployments := apiBase.Group("/deployments")
	{
		// GET /api/deployments
		// List deployments, oldest first
		deployments.GET("", listDeployments)

		// GET /api/deployments/:id
		// Get a deployment
		deployments.GET("/:id", getDeployment)

		// POST /api/deployments
		// Create a deployment and queue its rollout
		deployments.POST("", createDeployment)

		// PUT /api/deployments/:id
		// Rename, change URLs or move status
		deployments.PUT("/:id", updateDeployment)

		// DELETE /api/deployments/:id
		// Tear down and forget a deployment
		deployments.DELETE("/:id", deleteDeployment)

		// GET /api/deployments/:id/logs
		// Deployment log lines
		deployments.GET("/:id/logs", getDeploymentLogs)

		// POST /api/deployments/:id/health-check
		// Queue a health check
		deployments.POST("/:id/health-check", checkDeploymentHealth)

		// POST /api/deployments/:id/redeploy
		// Queue a new rollout
		deployments.POST("/:id/redeploy", redeploy)
	}
}
