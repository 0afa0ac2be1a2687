package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chatdeploy/configurator/engine/infra/server/routes"
	"github.com/gin-gonic/gin"
)

const (
	schemeHTTPS = "https"
	schemeHTTP  = "http"
)

func setupDiagnosticEndpoints(router *gin.Engine, version string, server *Server) {
	router.GET("/", createRootHandler(version))
	router.GET(routes.Base(), createRootHandler(version))
	var reporter readinessReporter
	if server != nil {
		reporter = server
	}
	router.GET(routes.Health(), CreateHealthHandler(reporter, version))
}

func createRootHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := sanitizeHost(c.Request.Host)
		scheme := strings.ToLower(strings.TrimSpace(c.Request.Header.Get("X-Forwarded-Proto")))
		if scheme == "" {
			if c.Request.TLS != nil {
				scheme = schemeHTTPS
			} else {
				scheme = schemeHTTP
			}
		} else {
			if comma := strings.IndexByte(scheme, ','); comma >= 0 {
				scheme = scheme[:comma]
			}
		}
		scheme = normalizeScheme(scheme)
		if host == "" {
			host = sanitizeHost(c.Request.Header.Get("X-Forwarded-Host"))
		}
		if host == "" {
			host = sanitizeHost(c.Request.URL.Host)
		}
		if host == "" {
			host = "localhost"
		}
		baseURL := fmt.Sprintf("%s://%s", scheme, host)
		c.JSON(http.StatusOK, gin.H{
			"name":        "LibreChat Configurator",
			"version":     version,
			"description": "Builds LibreChat configuration packages and tracks their deployments",
			"endpoints": gin.H{
				"health":      baseURL + routes.Health(),
				"api":         baseURL + routes.Base(),
				"schema":      baseURL + routes.Configuration() + "/schema",
				"defaults":    baseURL + routes.Configuration() + "/default",
				"profiles":    baseURL + routes.Profiles(),
				"deployments": baseURL + routes.Deployments(),
			},
		})
	}
}

func normalizeScheme(raw string) string {
	switch raw {
	case schemeHTTPS:
		return schemeHTTPS
	default:
		return schemeHTTP
	}
}

func sanitizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if comma := strings.IndexByte(raw, ','); comma >= 0 {
		raw = raw[:comma]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse("//" + raw)
	if err != nil {
		return ""
	}
	return parsed.Host
}
