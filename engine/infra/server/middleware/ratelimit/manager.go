package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel/metric"
)

// Manager limits requests per client IP with an in-process store. The
// configurator runs as a single instance, so no shared store is needed.
type Manager struct {
	config  *Config
	limiter *limiter.Limiter
	blocks  *blockCounter
}

// NewManager builds the limiter. A nil meter disables the block counter.
func NewManager(cfg *Config, meter metric.Meter) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: cfg.Prefix})
	blocks, err := newBlockCounter(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit metrics: %w", err)
	}
	return &Manager{
		config:  cfg,
		limiter: limiter.New(store, cfg.GlobalRate.ToLimiterRate()),
		blocks:  blocks,
	}, nil
}

func (m *Manager) excluded(path string) bool {
	for _, prefix := range m.config.ExcludedPaths {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Middleware rejects requests over the limit with 429 and the usual
// X-RateLimit-* headers.
func (m *Manager) Middleware() gin.HandlerFunc {
	handler := mgin.NewMiddleware(
		m.limiter,
		mgin.WithLimitReachedHandler(m.limitReached),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open: a limiter fault must not take the API down.
			logger.FromContext(c.Request.Context()).Error("Rate limiter failed", "error", err)
			c.Next()
		}),
	)
	return func(c *gin.Context) {
		if m.excluded(c.Request.URL.Path) {
			c.Next()
			return
		}
		handler(c)
	}
}

func (m *Manager) limitReached(c *gin.Context) {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	m.blocks.inc(c.Request.Context(), route)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
		"code":  "RATE_LIMITED",
	})
}
