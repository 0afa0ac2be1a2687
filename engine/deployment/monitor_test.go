package deployment

import (
	"context"
	"testing"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister []*Deployment

func (l staticLister) List() ([]*Deployment, error) { return l, nil }

type capturingQueue struct {
	limit int
	tasks []Task
}

func (q *capturingQueue) Enqueue(task Task) error {
	if q.limit > 0 && len(q.tasks) >= q.limit {
		return ErrQueueFull
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func TestValidateSchedule(t *testing.T) {
	t.Run("Should accept cron expressions and descriptors", func(t *testing.T) {
		for _, spec := range []string{"*/5 * * * *", "@every 30s", "@hourly"} {
			assert.NoError(t, ValidateSchedule(spec), spec)
		}
	})

	t.Run("Should reject malformed schedules", func(t *testing.T) {
		assert.Error(t, ValidateSchedule("every five minutes"))
		_, err := NewMonitor("61 * * * *", staticLister{}, &capturingQueue{})
		assert.Error(t, err)
	})
}

func TestMonitor_Sweep(t *testing.T) {
	running := &Deployment{ID: core.MustNewID(), Status: StatusRunning, URLs: []string{"https://a.example.com"}}
	updating := &Deployment{ID: core.MustNewID(), Status: StatusUpdating, URLs: []string{"https://b.example.com"}}
	noURLs := &Deployment{ID: core.MustNewID(), Status: StatusRunning}
	stopped := &Deployment{ID: core.MustNewID(), Status: StatusStopped, URLs: []string{"https://c.example.com"}}
	all := staticLister{running, updating, noURLs, stopped}

	t.Run("Should queue checks for live deployments with URLs", func(t *testing.T) {
		q := &capturingQueue{}
		m, err := NewMonitor("", all, q)
		require.NoError(t, err)
		n, err := m.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []Task{
			{Kind: TaskHealthCheck, DeploymentID: running.ID},
			{Kind: TaskHealthCheck, DeploymentID: updating.ID},
		}, q.tasks)
	})

	t.Run("Should stop quietly when the queue fills up", func(t *testing.T) {
		m, err := NewMonitor("@every 1m", all, &capturingQueue{limit: 1})
		require.NoError(t, err)
		n, err := m.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Should start and stop the schedule", func(t *testing.T) {
		m, err := NewMonitor("@every 1h", all, &capturingQueue{})
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))
		assert.NoError(t, m.Stop(context.Background()))
	})
}
