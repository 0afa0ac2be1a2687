package profilerouter

import (
	"fmt"
	"net/http"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/generator"
	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/infra/server/router"
	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
)

// CreateRequest is the body of POST /api/profiles. Configuration is merged
// over the defaults before validation.
type CreateRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// profileETag changes whenever any stored attribute changes.
func profileETag(p *store.Profile) string {
	return core.Fingerprint(p)
}

func loadProfile(c *gin.Context, state *appstate.State) (*store.Profile, bool) {
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return nil, false
	}
	p, err := state.Profiles.Get(id)
	if err != nil {
		router.RespondWithError(c, err)
		return nil, false
	}
	return p, true
}

func listProfiles(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	all, err := state.Profiles.List()
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	if all == nil {
		all = []*store.Profile{}
	}
	router.RespondOK(c, all)
}

func getProfile(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	ifNoneMatch, err := router.ParseStrongETag(c.GetHeader("If-None-Match"))
	if err != nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, "invalid If-None-Match header", err))
		return
	}
	p, ok := loadProfile(c, state)
	if !ok {
		return
	}
	etag := profileETag(p)
	router.SetETag(c, etag)
	if ifNoneMatch != "" && ifNoneMatch == etag {
		c.Status(http.StatusNotModified)
		return
	}
	router.RespondOK(c, p)
}

func createProfile(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var req CreateRequest
	if err := router.BindJSON(c, &req, false); err != nil {
		router.RespondWithError(c, err)
		return
	}
	cfg, errs := settings.Parse(req.Configuration)
	if err := errs.Err(); err != nil {
		router.RespondWithError(c, err)
		return
	}
	p, err := state.Profiles.Save(&store.Profile{
		Name:          req.Name,
		Description:   req.Description,
		Configuration: cfg,
	})
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).Info("Profile created", "profile_id", p.ID)
	router.SetETag(c, profileETag(p))
	router.RespondCreated(c, p)
}

func updateProfile(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	ifMatch, err := router.ParseStrongETag(c.GetHeader("If-Match"))
	if err != nil {
		router.RespondWithError(c, router.NewRequestError(http.StatusBadRequest, "invalid If-Match header", err))
		return
	}
	current, ok := loadProfile(c, state)
	if !ok {
		return
	}
	if ifMatch != "" && ifMatch != profileETag(current) {
		router.RespondWithError(c, router.NewRequestError(
			http.StatusPreconditionFailed,
			"profile was modified by another request",
			nil,
		))
		return
	}
	var patch store.ProfilePatch
	if err := router.BindJSON(c, &patch, false); err != nil {
		router.RespondWithError(c, err)
		return
	}
	p, err := state.Profiles.Update(current.ID, patch)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.SetETag(c, profileETag(p))
	router.RespondOK(c, p)
}

func deleteProfile(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	deleted, err := state.Profiles.Delete(id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	if !deleted {
		router.RespondWithError(c, fmt.Errorf("profile %s: %w", id, store.ErrProfileNotFound))
		return
	}
	logger.FromContext(c.Request.Context()).Info("Profile deleted", "profile_id", id)
	c.Status(http.StatusNoContent)
}

// exportProfile renders the profile artifact. Secrets are replaced by
// placeholders unless sanitize=false.
func exportProfile(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	sanitize, err := router.ParseBoolQuery(c, "sanitize", true)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	p, ok := loadProfile(c, state)
	if !ok {
		return
	}
	gen, ok := generator.DefaultRegistry().Get(string(generator.ArtifactProfile))
	if !ok {
		router.RespondWithError(c, router.GenerationError(generator.ErrUnknownArtifact))
		return
	}
	cfg := p.Configuration
	if cfg == nil {
		cfg = settings.Default()
	}
	doc, err := gen.Generate(mapping.ToNested(cfg), generator.Options{
		PackageName: p.Name,
		Description: p.Description,
		Sanitize:    sanitize,
	})
	if err != nil {
		router.RespondWithError(c, router.GenerationError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", generator.PackageSlug(p.Name)+"-"+gen.FileName()))
	c.Data(http.StatusOK, "application/json", []byte(doc))
}
