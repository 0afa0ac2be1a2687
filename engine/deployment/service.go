package deployment

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/generator"
	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/chatdeploy/configurator/pkg/logger"
)

// ProfileSource resolves the configuration of a referenced profile.
type ProfileSource interface {
	Get(id core.ID) (*store.Profile, error)
}

// Service is the deployment use case layer. Lifecycle calls are queued on
// the worker and never run inside the request that triggered them.
type Service struct {
	records   *Store
	platforms *Platforms
	health    *HealthChecker
	profiles  ProfileSource
	worker    *Worker
}

func NewService(
	records *Store,
	platforms *Platforms,
	health *HealthChecker,
	profiles ProfileSource,
	workerCfg WorkerConfig,
	opts ...WorkerOption,
) *Service {
	s := &Service{records: records, platforms: platforms, health: health, profiles: profiles}
	s.worker = NewWorker(s, workerCfg, opts...)
	return s
}

// Run processes queued lifecycle tasks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	return s.worker.Run(ctx)
}

func (s *Service) Store() *Store { return s.records }

// Queue exposes the task queue so a Monitor can schedule health checks.
func (s *Service) Queue() *Worker { return s.worker }

func (s *Service) Platforms() []string { return s.platforms.Names() }

func (s *Service) List() ([]*Deployment, error) { return s.records.List() }

func (s *Service) Get(id core.ID) (*Deployment, error) { return s.records.Get(id) }

func (s *Service) Logs(id core.ID) ([]LogEntry, error) {
	d, err := s.records.Get(id)
	if err != nil {
		return nil, err
	}
	return d.Logs, nil
}

// Create stores a pending deployment and queues its initiation. The record
// is returned even when queueing fails so the caller can report it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Deployment, error) {
	if in.Platform == "" {
		in.Platform = PlatformManual
	}
	if _, err := s.platforms.Get(in.Platform); err != nil {
		return nil, err
	}
	if in.Configuration == nil && in.ConfigurationProfileID.IsZero() {
		return nil, fmt.Errorf("%w: configuration or configurationProfileId is required", ErrInvalidInput)
	}
	if in.Configuration != nil {
		if err := settings.Validate(in.Configuration).Err(); err != nil {
			return nil, err
		}
	} else if _, err := s.profiles.Get(in.ConfigurationProfileID); err != nil {
		return nil, err
	}
	d, err := s.records.Create(in)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Deployment created", "deployment_id", d.ID, "platform", d.Platform)
	return s.enqueue(ctx, d, TaskInitiate)
}

func (s *Service) Update(id core.ID, in UpdateInput) (*Deployment, error) {
	return s.records.Patch(id, in)
}

// Redeploy moves a running deployment to updating and queues a new rollout.
// Failed and stopped deployments are retried from pending.
func (s *Service) Redeploy(ctx context.Context, id core.ID) (*Deployment, error) {
	d, err := s.records.Update(id, func(d *Deployment) error {
		now := s.records.base.Now()
		next := StatusPending
		if d.Status == StatusRunning {
			next = StatusUpdating
		}
		prev := d.Status
		if err := d.SetStatus(next, now); err != nil {
			return err
		}
		d.Log(LogInfo, now, "redeploy requested, status %s -> %s", prev, next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, d, TaskInitiate)
}

// RequestHealthCheck queues a health check for an existing deployment.
func (s *Service) RequestHealthCheck(ctx context.Context, id core.ID) (*Deployment, error) {
	d, err := s.records.Get(id)
	if err != nil {
		return nil, err
	}
	return s.enqueue(ctx, d, TaskHealthCheck)
}

func (s *Service) enqueue(ctx context.Context, d *Deployment, kind TaskKind) (*Deployment, error) {
	err := s.worker.Enqueue(Task{Kind: kind, DeploymentID: d.ID})
	if err == nil {
		return d, nil
	}
	logger.FromContext(ctx).Warn("Deployment task rejected", "deployment_id", d.ID, "kind", kind, "error", err)
	if updated, logErr := s.records.AppendLog(d.ID, LogWarn, "%s task not queued: %v", kind, err); logErr == nil {
		d = updated
	}
	return d, err
}

// Delete removes the record. Remote teardown is attempted first but its
// failure does not keep the record.
func (s *Service) Delete(ctx context.Context, id core.ID) (bool, error) {
	d, err := s.records.Get(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p, err := s.platforms.Get(d.Platform); err == nil {
		if td, ok := p.(Teardowner); ok {
			if err := td.Teardown(ctx, d); err != nil {
				logger.FromContext(ctx).Warn("Remote teardown failed, removing record anyway",
					"deployment_id", id, "error", core.RedactError(err))
			}
		}
	}
	return s.records.Delete(id)
}

// HandleTask runs one queued lifecycle task.
func (s *Service) HandleTask(ctx context.Context, task Task) error {
	switch task.Kind {
	case TaskInitiate:
		return s.initiate(ctx, task.DeploymentID)
	case TaskHealthCheck:
		return s.checkHealth(ctx, task.DeploymentID)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

// HandleFailure writes a task failure onto the deployment and marks it
// failed when the status machine allows it.
func (s *Service) HandleFailure(ctx context.Context, failure *TaskError) {
	_, err := s.records.Update(failure.Task.DeploymentID, func(d *Deployment) error {
		now := s.records.base.Now()
		d.Log(LogError, now, "%s failed: %v", failure.Task.Kind, failure.Err)
		if CanTransition(d.Status, StatusFailed) {
			return d.SetStatus(StatusFailed, now)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.FromContext(ctx).Error("Failed to record deployment task failure",
			"deployment_id", failure.Task.DeploymentID, "error", err)
	}
}

func (s *Service) transition(id core.ID, status Status, format string, args ...any) (*Deployment, error) {
	return s.records.Update(id, func(d *Deployment) error {
		now := s.records.base.Now()
		if err := d.SetStatus(status, now); err != nil {
			return err
		}
		d.Log(LogInfo, now, format, args...)
		return nil
	})
}

func (s *Service) initiate(ctx context.Context, id core.ID) error {
	d, err := s.records.Get(id)
	if err != nil {
		return err
	}
	if d.Status == StatusStopped || d.Status == StatusFailed {
		if d, err = s.transition(id, StatusPending, "retrying deployment"); err != nil {
			return err
		}
	}
	platform, err := s.platforms.Get(d.Platform)
	if err != nil {
		return err
	}
	if d, err = s.transition(id, StatusBuilding, "generating package"); err != nil {
		return err
	}
	files, err := s.build(d)
	if err != nil {
		return err
	}
	if d, err = s.transition(id, StatusDeploying, "handing %d files to %s", len(files), platform.Name()); err != nil {
		return err
	}
	result, err := platform.Deploy(ctx, d, files)
	if err != nil {
		return err
	}
	_, err = s.records.Update(id, func(d *Deployment) error {
		now := s.records.base.Now()
		for _, line := range result.Logs {
			d.Log(LogInfo, now, "%s: %s", platform.Name(), line)
		}
		if len(result.URLs) > 0 {
			d.URLs = slices.Clone(result.URLs)
		}
		if err := d.SetStatus(result.Status, now); err != nil {
			return err
		}
		if d.Status == StatusRunning {
			d.DeployedAt = &now
		}
		d.Log(LogInfo, now, "platform reported %s", d.Status)
		return nil
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Deployment initiated", "deployment_id", id, "status", result.Status)
	return nil
}

func (s *Service) build(d *Deployment) (map[string]string, error) {
	cfg := d.Configuration
	if cfg == nil {
		p, err := s.profiles.Get(d.ConfigurationProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		cfg = p.Configuration
	}
	if cfg == nil {
		return nil, errors.New("deployment has no configuration")
	}
	if err := settings.Validate(cfg).Err(); err != nil {
		return nil, err
	}
	return generator.DefaultRegistry().GenerateAll(mapping.ToNested(cfg), nil, generator.Options{
		PackageName: d.Name,
	})
}

func (s *Service) checkHealth(ctx context.Context, id core.ID) error {
	d, err := s.records.Get(id)
	if err != nil {
		return err
	}
	if d.Status == StatusStopped {
		_, err := s.records.AppendLog(id, LogInfo, "health check skipped, deployment is stopped")
		return err
	}
	if len(d.URLs) == 0 {
		_, err := s.records.AppendLog(id, LogWarn, "health check skipped, deployment has no URLs")
		return err
	}
	checks, err := s.health.Check(ctx, d.URLs)
	if err != nil {
		return err
	}
	healthy := allHealthy(checks)
	_, err = s.records.Update(id, func(d *Deployment) error {
		now := s.records.base.Now()
		d.Uptime.Checks++
		d.Uptime.LastCheckedAt = &now
		d.Uptime.Healthy = healthy
		if !healthy {
			d.Uptime.Failures++
			for _, p := range checks {
				if !p.Healthy {
					d.Log(LogError, now, "health check failed for %s after %d attempts: %s", p.URL, p.Attempts, p.Error)
				}
			}
			if d.Status == StatusRunning {
				return d.SetStatus(StatusFailed, now)
			}
			return nil
		}
		d.Uptime.LastHealthyAt = &now
		d.Log(LogInfo, now, "health check passed for %d urls", len(checks))
		if d.Status != StatusRunning && CanTransition(d.Status, StatusRunning) {
			if err := d.SetStatus(StatusRunning, now); err != nil {
				return err
			}
			if d.DeployedAt == nil {
				d.DeployedAt = &now
			}
		}
		return nil
	})
	return err
}
