package settingsrouter

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/chatdeploy/configurator/engine/importer"
	"github.com/chatdeploy/configurator/engine/infra/server/router"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ImportResponse carries an imported configuration and its validation state.
// An imported document that fails validation is still returned so the
// client can fix it.
type ImportResponse struct {
	Format        importer.Format         `json:"format"`
	Configuration *settings.Configuration `json:"configuration"`
	Validation    settings.Summary        `json:"validation"`
}

// SecretsResponse lists stored secret keys. Values are never echoed.
type SecretsResponse struct {
	Keys []string `json:"keys"`
}

func getDefault(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	cfg, err := state.Profiles.GetDefault()
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondOK(c, cfg)
}

// validateConfiguration reports per category. ?summary=true adds the flat
// error list and overall verdict.
func validateConfiguration(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	summary, err := router.ParseBoolQuery(c, "summary", false)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	body, err := router.ReadBody(c)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	cfg, errs := settings.ParseJSON(body)
	if cfg == nil {
		router.RespondWithError(c, errs)
		return
	}
	state.Recorder.RecordValidation(c.Request.Context(), len(errs))
	if summary {
		router.RespondOK(c, settings.Summarize(cfg, errs))
		return
	}
	router.RespondOK(c, settings.Report(cfg, errs))
}

func getSchema(c *gin.Context) {
	doc, err := settings.JSONSchemaBytes()
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/schema+json", doc)
}

func importConfiguration(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	body, err := router.ReadBody(c)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	cfg, format, err := importer.Import(body, c.Query("format"))
	var verrs settings.ValidationErrors
	if err != nil && (cfg == nil || !errors.As(err, &verrs)) {
		router.RespondWithError(c, err)
		return
	}
	state.Recorder.RecordValidation(c.Request.Context(), len(verrs))
	logger.FromContext(c.Request.Context()).Info("Configuration imported", "format", format, "errors", len(verrs))
	router.RespondOK(c, ImportResponse{
		Format:        format,
		Configuration: cfg,
		Validation:    settings.Summarize(cfg, verrs),
	})
}

// putSecrets sets local secrets by field path. An empty value removes the
// key. Only sensitive fields are accepted.
func putSecrets(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	var values map[string]string
	if err := router.BindJSON(c, &values, false); err != nil {
		router.RespondWithError(c, err)
		return
	}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		f, ok := settings.LookupField(key)
		if !ok || !f.Sensitive {
			router.RespondWithError(c, router.NewRequestError(
				http.StatusBadRequest,
				fmt.Sprintf("%q is not a secret setting", key),
				nil,
			))
			return
		}
	}
	for key, value := range values {
		state.Secrets.Set(key, value)
	}
	if err := state.Secrets.Save(); err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondOK(c, SecretsResponse{Keys: slices.Sorted(maps.Keys(state.Secrets.All()))})
}
