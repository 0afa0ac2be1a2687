package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 64
)

// RequestIDMiddleware tags each request with an ID, echoed in the response,
// and stores a logger carrying it in the request context.
func RequestIDMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = ksuid.New().String()
		}
		c.Header(requestIDHeader, id)
		ctx := logger.ContextWithLogger(c.Request.Context(), log.With("request_id", id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoggerMiddleware logs HTTP request details.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		status := c.Writer.Status()
		keyvals := []any{
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"status_code", status,
			"body_size", c.Writer.Size(),
			"path", path,
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			keyvals = append(keyvals, "error", msg)
		}
		log := logger.FromContext(c.Request.Context())
		if status >= 500 {
			log.Error("Request completed", keyvals...)
			return
		}
		log.Info("Request completed", keyvals...)
	}
}

// CORSMiddleware enables CORS support with configurable origins. With no
// origins configured nothing is allowed.
func CORSMiddleware(corsConfig config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		isAllowed := false
		for _, allowed := range corsConfig.AllowedOrigins {
			if origin == allowed || allowed == "*" {
				isAllowed = true
				break
			}
		}
		if isAllowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
			if corsConfig.AllowCredentials {
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, If-Match, If-None-Match, "+
				"accept, origin, Cache-Control, X-Requested-With, X-Request-ID",
		)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "ETag, Location, Content-Disposition, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if corsConfig.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsConfig.MaxAge))
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
