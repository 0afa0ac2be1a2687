package bundlerouter

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/chatdeploy/configurator/engine/bundle"
	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/infra/server/router"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/gin-gonic/gin"
)

const maxHistoryLimit = 100

func executeGenerate(c *gin.Context, state *appstate.State) (*bundle.Package, bool) {
	req := &bundle.Request{}
	if err := router.BindJSON(c, req, false); err != nil {
		router.RespondWithError(c, err)
		return nil, false
	}
	uc := bundle.NewGenerate(nil, state.History, state.Recorder)
	pkg, err := uc.Execute(c.Request.Context(), req)
	if err != nil {
		router.RespondWithError(c, err)
		return nil, false
	}
	return pkg, true
}

// generatePackage renders the requested artifacts as a JSON file map.
//
//	POST /api/package/generate
func generatePackage(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	pkg, ok := executeGenerate(c, state)
	if !ok {
		return
	}
	router.RespondOK(c, pkg)
}

// downloadPackage renders the requested artifacts as a zip archive.
//
//	POST /api/package/download
func downloadPackage(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	pkg, ok := executeGenerate(c, state)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := bundle.WriteArchive(&buf, pkg); err != nil {
		router.RespondWithError(c, router.GenerationError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.ArchiveName(pkg)))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// listHistory returns the most recent generations, newest first.
//
//	GET /api/configuration/history?limit=10
func listHistory(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	limit, err := router.ParseLimitQuery(c, store.DefaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	entries, err := state.History.ListHistory(limit)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	if entries == nil {
		entries = []*store.HistoryEntry{}
	}
	router.RespondOK(c, entries)
}

// loadHistory returns the configuration stored with a history entry.
//
//	POST /api/configuration/load/:id
func loadHistory(c *gin.Context) {
	state := router.GetAppState(c)
	if state == nil {
		return
	}
	id, err := router.ParamID(c, "id")
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	cfg, err := state.History.LoadHistory(id)
	if err != nil {
		router.RespondWithError(c, err)
		return
	}
	router.RespondOK(c, cfg)
}
