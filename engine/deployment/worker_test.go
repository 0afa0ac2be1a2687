package deployment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	mu       sync.Mutex
	handled  []Task
	failures []*TaskError
	run      func(Task) error
}

func (h *fakeHandler) HandleTask(_ context.Context, task Task) error {
	h.mu.Lock()
	h.handled = append(h.handled, task)
	h.mu.Unlock()
	if h.run != nil {
		return h.run(task)
	}
	return nil
}

func (h *fakeHandler) HandleFailure(_ context.Context, failure *TaskError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, failure)
}

func (h *fakeHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled), len(h.failures)
}

type recordedTask struct {
	kind string
	err  error
}

type fakeRecorder struct {
	mu    sync.Mutex
	tasks []recordedTask
}

func (r *fakeRecorder) RecordDeploymentTask(_ context.Context, kind string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, recordedTask{kind: kind, err: err})
}

func startWorker(t *testing.T, w *Worker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("worker did not stop")
		}
	})
}

func TestWorker_Enqueue(t *testing.T) {
	t.Run("Should refuse tasks once the queue is full", func(t *testing.T) {
		w := NewWorker(&fakeHandler{}, WorkerConfig{QueueSize: 1})
		require.NoError(t, w.Enqueue(Task{Kind: TaskInitiate, DeploymentID: core.MustNewID()}))
		err := w.Enqueue(Task{Kind: TaskInitiate, DeploymentID: core.MustNewID()})
		assert.ErrorIs(t, err, ErrQueueFull)
		assert.Equal(t, 1, w.Pending())
	})
}

func TestWorker_Run(t *testing.T) {
	t.Run("Should process queued tasks", func(t *testing.T) {
		h := &fakeHandler{}
		rec := &fakeRecorder{}
		w := NewWorker(h, WorkerConfig{Concurrency: 2}, WithTaskRecorder(rec))
		startWorker(t, w)
		for range 3 {
			require.NoError(t, w.Enqueue(Task{Kind: TaskHealthCheck, DeploymentID: core.MustNewID()}))
		}
		require.Eventually(t, func() bool {
			handled, _ := h.counts()
			return handled == 3
		}, 2*time.Second, 5*time.Millisecond)
		_, failed := h.counts()
		assert.Zero(t, failed)
		require.Eventually(t, func() bool {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			return len(rec.tasks) == 3
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("Should hand failures and panics to the supervisor", func(t *testing.T) {
		boom := errors.New("platform unreachable")
		h := &fakeHandler{run: func(task Task) error {
			if task.Kind == TaskInitiate {
				return boom
			}
			panic("health check exploded")
		}}
		w := NewWorker(h, WorkerConfig{})
		startWorker(t, w)
		id := core.MustNewID()
		require.NoError(t, w.Enqueue(Task{Kind: TaskInitiate, DeploymentID: id}))
		require.NoError(t, w.Enqueue(Task{Kind: TaskHealthCheck, DeploymentID: id}))
		require.Eventually(t, func() bool {
			_, failed := h.counts()
			return failed == 2
		}, 2*time.Second, 5*time.Millisecond)

		h.mu.Lock()
		defer h.mu.Unlock()
		var sawBoom, sawPanic bool
		for _, f := range h.failures {
			assert.Equal(t, id, f.Task.DeploymentID)
			sawBoom = sawBoom || errors.Is(f, boom)
			if f.Task.Kind == TaskHealthCheck {
				sawPanic = strings.Contains(f.Error(), "health check exploded")
			}
		}
		assert.True(t, sawBoom)
		assert.True(t, sawPanic)
	})

	t.Run("Should refuse to run twice", func(t *testing.T) {
		w := NewWorker(&fakeHandler{}, WorkerConfig{})
		startWorker(t, w)
		require.Eventually(t, w.running.Load, time.Second, time.Millisecond)
		assert.Error(t, w.Run(context.Background()))
	})
}
