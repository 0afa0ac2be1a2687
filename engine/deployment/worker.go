package deployment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type TaskKind string

const (
	TaskInitiate    TaskKind = "initiate"
	TaskHealthCheck TaskKind = "health_check"
)

type Task struct {
	Kind         TaskKind
	DeploymentID core.ID
}

// TaskError carries a failed task to the supervisor.
type TaskError struct {
	Task Task
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s task for deployment %s failed: %v", e.Task.Kind, e.Task.DeploymentID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Handler executes tasks and records failures back onto the deployment.
type Handler interface {
	HandleTask(ctx context.Context, task Task) error
	HandleFailure(ctx context.Context, failure *TaskError)
}

// TaskRecorder observes finished tasks, typically for metrics.
type TaskRecorder interface {
	RecordDeploymentTask(ctx context.Context, kind string, err error)
}

type WorkerConfig struct {
	QueueSize   int
	Concurrency int
	TaskTimeout time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{QueueSize: 64, Concurrency: 2, TaskTimeout: 2 * time.Minute}
}

// Worker consumes deployment tasks from a bounded queue. Failed tasks are
// sent over an error channel to a supervisor goroutine, which hands them to
// Handler.HandleFailure so the outcome lands on the deployment record.
type Worker struct {
	cfg      WorkerConfig
	handler  Handler
	recorder TaskRecorder
	queue    chan Task
	running  atomic.Bool
}

type WorkerOption func(*Worker)

func WithTaskRecorder(r TaskRecorder) WorkerOption {
	return func(w *Worker) {
		w.recorder = r
	}
}

func NewWorker(handler Handler, cfg WorkerConfig, opts ...WorkerOption) *Worker {
	def := DefaultWorkerConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	w := &Worker{cfg: cfg, handler: handler, queue: make(chan Task, cfg.QueueSize)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue adds a task without blocking. ErrQueueFull is returned when the
// queue has no room.
func (w *Worker) Enqueue(task Task) error {
	select {
	case w.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending reports how many tasks are waiting.
func (w *Worker) Pending() int {
	return len(w.queue)
}

// Run processes tasks until ctx is cancelled. Tasks still queued at that
// point are left unprocessed.
func (w *Worker) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("deployment worker is already running")
	}
	defer w.running.Store(false)
	log := logger.FromContext(ctx)
	log.Info("Deployment worker started", "concurrency", w.cfg.Concurrency, "queue_size", w.cfg.QueueSize)
	failures := make(chan *TaskError)
	var consumers sync.WaitGroup
	g, gCtx := errgroup.WithContext(ctx)
	for range w.cfg.Concurrency {
		consumers.Add(1)
		g.Go(func() error {
			defer consumers.Done()
			w.consume(gCtx, failures)
			return nil
		})
	}
	g.Go(func() error {
		consumers.Wait()
		close(failures)
		return nil
	})
	g.Go(func() error {
		w.supervise(context.WithoutCancel(ctx), failures)
		return nil
	})
	err := g.Wait()
	log.Info("Deployment worker stopped")
	return err
}

func (w *Worker) consume(ctx context.Context, failures chan<- *TaskError) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			err := w.execute(ctx, task)
			if w.recorder != nil {
				w.recorder.RecordDeploymentTask(ctx, string(task.Kind), err)
			}
			if err != nil {
				failures <- &TaskError{Task: task, Err: err}
			}
		}
	}
}

func (w *Worker) execute(ctx context.Context, task Task) (err error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.TaskTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return w.handler.HandleTask(ctx, task)
}

func (w *Worker) supervise(ctx context.Context, failures <-chan *TaskError) {
	log := logger.FromContext(ctx)
	for failure := range failures {
		log.Warn("Deployment task failed",
			"kind", failure.Task.Kind,
			"deployment_id", failure.Task.DeploymentID,
			"error", core.RedactError(failure.Err),
		)
		w.handler.HandleFailure(ctx, failure)
	}
}
