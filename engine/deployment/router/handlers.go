package deployrouter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/infra/server/router"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/gin-gonic/gin"
)

// CreateRequest is the body of POST /api/deployments. Either a configuration
// or the id of a stored profile is required. An inline configuration is
// merged over the defaults.
type CreateRequest struct {
	Name                   string         `json:"name"`
	ConfigurationProfileID string         `json:"configurationProfileId,omitempty"`
	Configuration          map[string]any `json:"configuration,omitempty"`
	Platform               string         `json:"platform,omitempty"`
	URLs                   []string       `json:"urls,omitempty"`
}

func (r *CreateRequest) toInput() (deployment.CreateInput, error) {
	in := deployment.CreateInput{
		Name:     r.Name,
		Platform: strings.TrimSpace(r.Platform),
		URLs:     r.URLs,
	}
	if raw := strings.TrimSpace(r.ConfigurationProfileID); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			return in, fmt.Errorf("%w: configurationProfileId: %w", deployment.ErrInvalidInput, err)
		}
		in.ConfigurationProfileID = id
	}
	if r.Configuration != nil {
		cfg, errs := settings.Parse(r.Configuration)
		if err := errs.Err(); err != nil {
			return in, err
		}
		in.Configuration = cfg
	}
	return in, nil
}

func listDeployments(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	all, err := state.Deployments.List()
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	if all == nil {
		all = []*deployment.Deployment{}
	}
	router.RespondOK(c, all)
}

func getDeployment(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	d, err := state.Deployments.Get(id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondOK(c, d)
}

// createDeployment stores the record and answers 202 once the rollout is
// queued. The rollout itself runs on the deployment worker.
func createDeployment(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req CreateRequest
	if err := router.BindJSON(c, &req, false); err != nil {
		router.RespondWithError(c, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	d, err := state.Deployments.Create(c.Request.Context(), in)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+d.ID.String())
	router.RespondAccepted(c, d)
}

func updateDeployment(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	var in deployment.UpdateInput
	if err := router.BindJSON(c, &in, true); err != nil {
		router.RespondWithError(c, err)
		return
	}
	d, err := state.Deployments.Update(id, in)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondOK(c, d)
}

func deleteDeployment(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	deleted, err := state.Deployments.Delete(c.Request.Context(), id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	if !deleted {
		router.RespondWithError(c, fmt.Errorf("deployment %s: %w", id, deployment.ErrNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}

func getDeploymentLogs(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	logs, err := state.Deployments.Logs(id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	if logs == nil {
		logs = []deployment.LogEntry{}
	}
	router.RespondOK(c, logs)
}

func checkDeploymentHealth(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	d, err := state.Deployments.RequestHealthCheck(c.Request.Context(), id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondAccepted(c, d)
}

func redeploy(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	d, err := state.Deployments.Redeploy(c.Request.Context(), id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondAccepted(c, d)
}
