package appstate

import (
	"context"
	"fmt"

	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/gin-gonic/gin"
)

type contextKey string

const (
	stateKey contextKey = "app_state"
)

// PackageRecorder receives generation outcomes for metrics.
type PackageRecorder interface {
	RecordPackage(ctx context.Context, files int, err error)
	RecordValidation(ctx context.Context, errors int)
}

type BaseDeps struct {
	Store    *store.Store
	Profiles *store.ProfileStore
	History  *store.HistoryStore
	Secrets  *store.SecretsStore
}

func NewBaseDeps(base *store.Store, secrets *store.SecretsStore, historyRetention int) BaseDeps {
	return BaseDeps{
		Store:    base,
		Profiles: store.NewProfileStore(base, secrets),
		History:  store.NewHistoryStore(base, historyRetention),
		Secrets:  secrets,
	}
}

// State is shared by every handler for the lifetime of the server.
type State struct {
	BaseDeps
	Deployments *deployment.Service
	Recorder    PackageRecorder
}

func NewState(deps BaseDeps, deployments *deployment.Service, recorder PackageRecorder) (*State, error) {
	if deps.Store == nil || deps.Profiles == nil || deps.History == nil {
		return nil, fmt.Errorf("stores are required")
	}
	if deployments == nil {
		return nil, fmt.Errorf("deployment service is required")
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &State{
		BaseDeps:    deps,
		Deployments: deployments,
		Recorder:    recorder,
	}, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordPackage(context.Context, int, error) {}
func (nopRecorder) RecordValidation(context.Context, int)     {}

func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

func GetState(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(stateKey).(*State)
	if !ok {
		return nil, fmt.Errorf("app state not found in context")
	}
	return state, nil
}

func StateMiddleware(state *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithState(c.Request.Context(), state)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
