package router

import (
	"net/http"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
)

// GetAppState returns the shared state or writes a 500 and returns nil.
func GetAppState(c *gin.Context) *appstate.State {
	state, err := appstate.GetState(c.Request.Context())
	if err != nil {
		RespondWithError(c, NewRequestError(http.StatusInternalServerError, ErrMsgAppStateNotInitialized, err))
		return nil
	}
	return state
}

func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func RespondAccepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, data)
}

// RespondWithError classifies err, logs it and writes the error body.
func RespondWithError(c *gin.Context, err error) {
	reqErr := Classify(err)
	logRequestError(c, reqErr)
	c.AbortWithStatusJSON(reqErr.StatusCode, reqErr.Info())
}

func logRequestError(c *gin.Context, reqErr *RequestError) {
	log := logger.FromContext(c.Request.Context())
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	fields := []any{
		"status", reqErr.StatusCode,
		"code", reqErr.Code,
		"reason", reqErr.Reason,
		"route", route,
	}
	if reqErr.Err != nil {
		fields = append(fields, "error", core.RedactError(reqErr.Err))
	}
	if reqErr.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
