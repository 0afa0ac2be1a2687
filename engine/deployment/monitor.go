package deployment

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/robfig/cron/v3"
)

const DefaultHealthSweep = "@every 5m"

type deploymentLister interface {
	List() ([]*Deployment, error)
}

type taskQueue interface {
	Enqueue(task Task) error
}

// Monitor periodically queues health checks for live deployments.
type Monitor struct {
	cron     *cron.Cron
	schedule string
	records  deploymentLister
	queue    taskQueue
}

var sweepParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec is a standard cron expression or a
// descriptor such as "@every 5m".
func ValidateSchedule(spec string) error {
	if _, err := sweepParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid health sweep schedule %q: %w", spec, err)
	}
	return nil
}

func NewMonitor(schedule string, records deploymentLister, queue taskQueue) (*Monitor, error) {
	if schedule == "" {
		schedule = DefaultHealthSweep
	}
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	return &Monitor{
		cron:     cron.New(cron.WithParser(sweepParser)),
		schedule: schedule,
		records:  records,
		queue:    queue,
	}, nil
}

// Start schedules the sweep. The job runs with ctx, so its logger is used.
func (m *Monitor) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.schedule, func() {
		if _, err := m.Sweep(ctx); err != nil {
			logger.FromContext(ctx).Error("Health sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule health sweep: %w", err)
	}
	m.cron.Start()
	logger.FromContext(ctx).Info("Health sweep scheduled", "schedule", m.schedule)
	return nil
}

// Stop halts scheduling and waits for a running sweep to return.
func (m *Monitor) Stop(ctx context.Context) error {
	done := m.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep enqueues a health check for every running or updating deployment
// that has URLs, returning how many were queued.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	all, err := m.records.List()
	if err != nil {
		return 0, fmt.Errorf("failed to list deployments: %w", err)
	}
	queued := 0
	for _, d := range all {
		if d.Status != StatusRunning && d.Status != StatusUpdating || len(d.URLs) == 0 {
			continue
		}
		err := m.queue.Enqueue(Task{Kind: TaskHealthCheck, DeploymentID: d.ID})
		if errors.Is(err, ErrQueueFull) {
			logger.FromContext(ctx).Warn("Health sweep stopped early, task queue is full", "queued", queued)
			return queued, nil
		}
		if err != nil {
			return queued, err
		}
		queued++
	}
	logger.FromContext(ctx).Debug("Health sweep queued checks", "count", queued)
	return queued, nil
}
