package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type readinessReporter interface {
	isReady() bool
	pendingTasks() int
}

func (s *Server) isReady() bool {
	return s.ready.Load()
}

func (s *Server) pendingTasks() int {
	if s.deployments == nil {
		return 0
	}
	return s.deployments.Queue().Pending()
}

// CreateHealthHandler reports readiness. It answers 503 until startup has
// finished and again once shutdown begins.
func CreateHealthHandler(reporter readinessReporter, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := reporter != nil && reporter.isReady()
		status := statusReady
		code := http.StatusOK
		if !ready {
			status = statusNotReady
			code = http.StatusServiceUnavailable
		}
		body := gin.H{
			"status":  status,
			"version": version,
			"ready":   ready,
		}
		if reporter != nil {
			body["deployments"] = gin.H{"pending_tasks": reporter.pendingTasks()}
		}
		c.JSON(code, body)
	}
}
