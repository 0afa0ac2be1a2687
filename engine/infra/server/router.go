package server

import (
	"fmt"
	"strings"

	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/infra/server/middleware/ratelimit"
	"github.com/chatdeploy/configurator/engine/infra/server/routes"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/chatdeploy/configurator/pkg/version"
	"github.com/gin-gonic/gin"
)

func convertRateLimitConfig(cfg *config.Config) *ratelimit.Config {
	excluded := append([]string{routes.Health(), cfg.Monitoring.Path}, cfg.RateLimit.ExcludePaths...)
	return &ratelimit.Config{
		GlobalRate: ratelimit.RateConfig{
			Limit:  cfg.RateLimit.GlobalRate.Limit,
			Period: cfg.RateLimit.GlobalRate.Period,
		},
		Prefix:        cfg.RateLimit.Prefix,
		ExcludedPaths: excluded,
	}
}

func (s *Server) buildRouter(state *appstate.State) error {
	log := logger.FromContext(s.ctx)
	cfg := s.config()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware(log))
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.Use(s.monitoring.GinMiddleware(s.ctx))
	}
	r.Use(LoggerMiddleware())
	if cfg.Server.CORSEnabled {
		r.Use(CORSMiddleware(cfg.Server.CORS))
	}
	if cfg.RateLimit.Enabled {
		manager, err := ratelimit.NewManager(convertRateLimitConfig(cfg), s.monitoring.Meter())
		if err != nil {
			return fmt.Errorf("failed to initialize rate limiting: %w", err)
		}
		r.Use(manager.Middleware())
		log.Info("Rate limiter initialized",
			"global_limit", cfg.RateLimit.GlobalRate.Limit,
			"global_period", cfg.RateLimit.GlobalRate.Period)
	}
	r.Use(appstate.StateMiddleware(state))
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		r.GET(s.monitoring.Path(), gin.WrapH(s.monitoring.ExporterHandler()))
	}
	RegisterRoutes(s.ctx, r, state, s)
	s.router = r
	return nil
}

func (s *Server) logStartupBanner() {
	cfg := s.config()
	httpURL := fmt.Sprintf("http://%s:%d", friendlyHost(cfg.Server.Host), cfg.Server.Port)
	lines := []string{
		fmt.Sprintf("LibreChat Configurator %s", version.Get().Version),
		fmt.Sprintf("  API     > %s%s", httpURL, routes.Base()),
		fmt.Sprintf("  Health  > %s%s", httpURL, routes.Health()),
		fmt.Sprintf("  Data    > %s", cfg.Storage.DataDir),
	}
	if s.monitoring != nil && s.monitoring.IsInitialized() {
		lines = append(lines, fmt.Sprintf("  Metrics > %s%s", httpURL, s.monitoring.Path()))
	}
	logger.FromContext(s.ctx).Info("\n" + strings.Join(lines, "\n"))
}
