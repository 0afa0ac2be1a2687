// Package deployment tracks deployments of generated packages and runs their
// lifecycle tasks in the background.
package deployment

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/settings"
)

var (
	ErrNotFound          = errors.New("deployment not found")
	ErrInvalidTransition = errors.New("invalid deployment status transition")
	ErrUnknownPlatform   = errors.New("unknown deployment platform")
	ErrQueueFull         = errors.New("deployment task queue is full")
	ErrInvalidInput      = errors.New("invalid deployment")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusBuilding  Status = "building"
	StatusDeploying Status = "deploying"
	StatusRunning   Status = "running"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
	StatusUpdating  Status = "updating"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusBuilding, StatusDeploying, StatusFailed, StatusStopped},
	StatusBuilding:  {StatusDeploying, StatusFailed, StatusStopped},
	StatusDeploying: {StatusRunning, StatusFailed, StatusStopped},
	StatusRunning:   {StatusUpdating, StatusFailed, StatusStopped},
	StatusUpdating:  {StatusBuilding, StatusDeploying, StatusRunning, StatusFailed, StatusStopped},
	StatusFailed:    {StatusPending, StatusDeploying, StatusRunning, StatusStopped},
	StatusStopped:   {StatusPending, StatusDeploying},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a record may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid()
	}
	return slices.Contains(transitions[from], to)
}

type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

type Uptime struct {
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`
	LastHealthyAt *time.Time `json:"lastHealthyAt,omitempty"`
	Checks        int        `json:"checks"`
	Failures      int        `json:"failures"`
	Healthy       bool       `json:"healthy"`
}

// Deployment is one tracked rollout of a configuration to a platform.
type Deployment struct {
	ID                     core.ID                 `json:"id"`
	Name                   string                  `json:"name"`
	ConfigurationProfileID core.ID                 `json:"configurationProfileId,omitempty"`
	Configuration          *settings.Configuration `json:"configuration,omitempty"`
	Status                 Status                  `json:"status"`
	Platform               string                  `json:"platform"`
	URLs                   []string                `json:"urls"`
	Logs                   []LogEntry              `json:"logs"`
	Uptime                 Uptime                  `json:"uptime"`
	CreatedAt              time.Time               `json:"createdAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
	DeployedAt             *time.Time              `json:"deployedAt,omitempty"`
}

// SetStatus moves d to status when the transition is allowed.
func (d *Deployment) SetStatus(status Status, at time.Time) error {
	if !CanTransition(d.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, status)
	}
	if status == StatusRunning && d.Status != StatusRunning {
		t := at
		d.Uptime.StartedAt = &t
	}
	if status == StatusStopped || status == StatusFailed {
		d.Uptime.Healthy = false
	}
	d.Status = status
	return nil
}

// Log appends an entry, redacting anything that looks like a secret.
func (d *Deployment) Log(level LogLevel, at time.Time, format string, args ...any) {
	d.Logs = append(d.Logs, LogEntry{
		Time:    at,
		Level:   level,
		Message: core.RedactString(fmt.Sprintf(format, args...)),
	})
}

// CreateInput is the caller-supplied part of a new deployment.
type CreateInput struct {
	Name                   string                  `json:"name"`
	ConfigurationProfileID core.ID                 `json:"configurationProfileId,omitempty"`
	Configuration          *settings.Configuration `json:"configuration,omitempty"`
	Platform               string                  `json:"platform"`
	URLs                   []string                `json:"urls,omitempty"`
}

// UpdateInput changes mutable fields; nil fields are left alone.
type UpdateInput struct {
	Name   *string   `json:"name,omitempty"`
	Status *Status   `json:"status,omitempty"`
	URLs   *[]string `json:"urls,omitempty"`
}
