package server

import (
	"context"

	bundlerouter "github.com/chatdeploy/configurator/engine/bundle/router"
	deployrouter "github.com/chatdeploy/configurator/engine/deployment/router"
	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/infra/server/middleware/size"
	"github.com/chatdeploy/configurator/engine/infra/server/routes"
	profilerouter "github.com/chatdeploy/configurator/engine/profile/router"
	settingsrouter "github.com/chatdeploy/configurator/engine/settings/router"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/chatdeploy/configurator/pkg/version"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the health endpoints at the root and every resource
// router under the API base, behind the body size limit.
func RegisterRoutes(ctx context.Context, router *gin.Engine, state *appstate.State, server *Server) {
	ver := version.Get().Version
	setupDiagnosticEndpoints(router, ver, server)
	apiBase := router.Group(routes.Base())
	apiBase.Use(size.BodySizeLimiter(server.config().Server.BodyLimit))
	settingsrouter.Register(apiBase)
	profilerouter.Register(apiBase)
	bundlerouter.Register(apiBase)
	deployrouter.Register(apiBase)
	logger.FromContext(ctx).Info("Completed route registration",
		"api_base", routes.Base(),
		"platforms", state.Deployments.Platforms(),
	)
}
