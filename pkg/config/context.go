package config

import (
	"context"
	"sync"

	"github.com/chatdeploy/configurator/pkg/logger"
)

type managerKey struct{}

// ContextWithManager attaches m so handlers and commands read the live,
// reloadable configuration instead of a snapshot.
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

// fallback serves code paths that run without the serve command, such as
// one-off CLI commands and tests. It reads defaults and environment only.
var fallback = sync.OnceValue(func() *Manager {
	ctx := context.Background()
	m := NewManager(nil)
	if _, err := m.Load(ctx, NewDefaultProvider(), NewEnvProvider()); err != nil {
		logger.FromContext(ctx).Warn("Environment configuration rejected, using built-in defaults", "error", err)
		m.current.Store(Default())
	}
	return m
})

// ManagerFromContext returns the attached manager or the process fallback.
func ManagerFromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, _ := ctx.Value(managerKey{}).(*Manager); m != nil {
			return m
		}
	}
	return fallback()
}

// FromContext returns the current configuration. It never returns nil.
func FromContext(ctx context.Context) *Config {
	if cfg := ManagerFromContext(ctx).Get(); cfg != nil {
		return cfg
	}
	return Default()
}
