package deployment

import (
	"sync"
	"testing"
	"time"

	"github.com/chatdeploy/configurator/engine/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeClock advances one second per call and may be shared by goroutines.
func safeClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newBaseStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore("/data", store.WithFs(afero.NewMemMapFs()), store.WithClock(safeClock()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCanTransition(t *testing.T) {
	t.Run("Should follow the lifecycle", func(t *testing.T) {
		allowed := [][2]Status{
			{StatusPending, StatusBuilding},
			{StatusBuilding, StatusDeploying},
			{StatusDeploying, StatusRunning},
			{StatusDeploying, StatusFailed},
			{StatusRunning, StatusUpdating},
			{StatusUpdating, StatusBuilding},
			{StatusRunning, StatusStopped},
			{StatusFailed, StatusPending},
			{StatusRunning, StatusRunning},
		}
		for _, c := range allowed {
			assert.True(t, CanTransition(c[0], c[1]), "%s -> %s", c[0], c[1])
		}
	})

	t.Run("Should reject skipped or unknown steps", func(t *testing.T) {
		denied := [][2]Status{
			{StatusPending, StatusRunning},
			{StatusBuilding, StatusRunning},
			{StatusStopped, StatusRunning},
			{StatusRunning, StatusPending},
			{Status("exploded"), StatusRunning},
			{Status("exploded"), Status("exploded")},
		}
		for _, c := range denied {
			assert.False(t, CanTransition(c[0], c[1]), "%s -> %s", c[0], c[1])
		}
	})
}

func TestDeployment_SetStatus(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Should record when the deployment started running", func(t *testing.T) {
		d := &Deployment{Status: StatusDeploying}
		require.NoError(t, d.SetStatus(StatusRunning, at))
		require.NotNil(t, d.Uptime.StartedAt)
		assert.Equal(t, at, *d.Uptime.StartedAt)
	})

	t.Run("Should clear health when stopped", func(t *testing.T) {
		d := &Deployment{Status: StatusRunning, Uptime: Uptime{Healthy: true}}
		require.NoError(t, d.SetStatus(StatusStopped, at))
		assert.False(t, d.Uptime.Healthy)
	})

	t.Run("Should refuse an invalid transition", func(t *testing.T) {
		d := &Deployment{Status: StatusPending}
		err := d.SetStatus(StatusRunning, at)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusPending, d.Status)
	})
}

func TestDeployment_Log(t *testing.T) {
	t.Run("Should redact secrets from messages", func(t *testing.T) {
		d := &Deployment{}
		d.Log(LogError, time.Now(), "connect failed: mongodb://%s@db:27017", "admin:hunter2")
		require.Len(t, d.Logs, 1)
		assert.Equal(t, LogError, d.Logs[0].Level)
		assert.NotContains(t, d.Logs[0].Message, "hunter2")
		assert.Contains(t, d.Logs[0].Message, "[REDACTED]@db")
	})
}
