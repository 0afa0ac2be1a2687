package server

import (
	"context"
	"fmt"

	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/infra/monitoring"
	"github.com/chatdeploy/configurator/engine/infra/server/appstate"
	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/logger"
)

func (s *Server) setupDependencies() (*appstate.State, error) {
	log := logger.FromContext(s.ctx)
	cfg := s.config()
	// A settings field without a generator mapping would silently vanish from
	// every package, so refuse to start.
	if err := mapping.CheckCoverage(); err != nil {
		return nil, fmt.Errorf("settings mapping is incomplete: %w", err)
	}
	base, err := store.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	s.addCleanup(base.CloseWithContext)
	secrets := store.NewSecretsStore(base)
	if err := secrets.Load(); err != nil {
		return nil, fmt.Errorf("failed to load local secrets: %w", err)
	}
	deps := appstate.NewBaseDeps(base, secrets, cfg.Storage.HistoryRetention)
	if _, err := deps.Profiles.EnsureDefault(); err != nil {
		return nil, fmt.Errorf("failed to seed default profile: %w", err)
	}
	s.monitoring = monitoring.NewMonitoringServiceWithFallback(s.ctx, &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled,
		Path:    cfg.Monitoring.Path,
	})
	s.addCleanup(s.monitoring.Shutdown)
	recorder := s.monitoring.Recorder()
	deployments, err := s.setupDeployments(base, deps.Profiles, recorder, &cfg.Deploy)
	if err != nil {
		return nil, err
	}
	state, err := appstate.NewState(deps, deployments, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create app state: %w", err)
	}
	s.manager.OnFieldChange("storage.history_retention", func(next *config.Config) {
		deps.History.SetRetention(next.Storage.HistoryRetention)
		log.Info("History retention updated", "history_retention", next.Storage.HistoryRetention)
	})
	log.Info("Data directory ready", "path", cfg.Storage.DataDir, "secrets", len(secrets.All()))
	return state, nil
}

func buildPlatforms(cfg *config.DeployConfig) *deployment.Platforms {
	platforms := []deployment.Platform{deployment.ManualPlatform{}}
	if cfg.Webhook.URL != "" {
		platforms = append(platforms, deployment.NewWebhookPlatform(deployment.WebhookConfig{
			URL:        cfg.Webhook.URL,
			Token:      cfg.Webhook.Token.Value(),
			Timeout:    cfg.Webhook.Timeout,
			RetryCount: cfg.Webhook.RetryCount,
		}))
	}
	return deployment.NewPlatforms(platforms...)
}

func buildHealthChecker(cfg *config.HealthConfig) *deployment.HealthChecker {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return deployment.NewHealthChecker(deployment.HealthConfig{
		Timeout:     cfg.Timeout,
		MaxRetries:  uint64(retries),
		Backoff:     cfg.Backoff,
		Concurrency: cfg.Concurrency,
	})
}

// setupDeployments starts the task worker and the periodic health sweep.
// Both stop when the server context is canceled.
func (s *Server) setupDeployments(
	base *store.Store,
	profiles deployment.ProfileSource,
	recorder deployment.TaskRecorder,
	cfg *config.DeployConfig,
) (*deployment.Service, error) {
	log := logger.FromContext(s.ctx)
	service := deployment.NewService(
		deployment.NewStore(base),
		buildPlatforms(cfg),
		buildHealthChecker(&cfg.Health),
		profiles,
		deployment.WorkerConfig{
			QueueSize:   cfg.QueueSize,
			Concurrency: cfg.Concurrency,
			TaskTimeout: cfg.TaskTimeout,
		},
		deployment.WithTaskRecorder(recorder),
	)
	workerCtx, stopWorker := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := service.Run(workerCtx); err != nil {
			log.Error("Deployment worker stopped", "error", err)
		}
	}()
	s.addCleanup(func(ctx context.Context) error {
		stopWorker()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("deployment worker did not stop: %w", ctx.Err())
		}
	})
	monitor, err := deployment.NewMonitor(cfg.HealthSweep, service.Store(), service.Queue())
	if err != nil {
		return nil, err
	}
	if err := monitor.Start(s.ctx); err != nil {
		return nil, err
	}
	s.addCleanup(monitor.Stop)
	s.deployments = service
	log.Info("Deployment service started", "platforms", service.Platforms(), "concurrency", cfg.Concurrency)
	return service, nil
}
