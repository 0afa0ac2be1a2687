package config

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/chatdeploy/configurator/pkg/logger"
)

// startupPaths are read once when the server is built. A reload that changes
// them is applied to the stored Config but only takes effect after a restart.
var startupPaths = []string{
	"server",
	"storage.data_dir",
	"ratelimit",
	"deploy",
	"runtime",
	"monitoring",
}

type changeHook struct {
	path string
	fn   func(*Config)
}

// Manager holds the active configuration and reloads it when a watched
// source changes. A reload that fails validation keeps the previous value.
type Manager struct {
	Service Service
	current atomic.Pointer[Config]

	mu      sync.Mutex // guards sources and serializes reloads
	sources []Source

	hooksMu sync.RWMutex
	hooks   []changeHook

	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
	closeOnce   sync.Once
}

func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{Service: service}
}

// Load reads every source, stores the result and starts watching the sources
// that support it. Watching outlives ctx until Close.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.mu.Lock()
	m.sources = slices.Clone(sources)
	m.mu.Unlock()

	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.apply(ctx, cfg)

	if ctx == nil {
		ctx = context.Background()
	}
	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchCtx, m.watchCancel = context.WithCancel(context.WithoutCancel(ctx))
	m.watch(sources)
	return cfg, nil
}

// Sources returns a copy of the configured sources.
func (m *Manager) Sources() []Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Source, len(m.sources))
	copy(out, m.sources)
	return out
}

func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Reload reads every source again and applies the result.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.apply(ctx, cfg)
	return nil
}

// OnChange registers fn for every reload that changes any value.
func (m *Manager) OnChange(fn func(*Config)) {
	m.OnFieldChange("", fn)
}

// OnFieldChange registers fn for reloads that change path or a value below
// it, e.g. "storage.history_retention" or the whole "deploy" section.
func (m *Manager) OnFieldChange(path string, fn func(*Config)) {
	if fn == nil {
		return
	}
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, changeHook{path: path, fn: fn})
}

// Close stops the watchers and closes every source.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.watchWg.Wait()
		for _, source := range m.Sources() {
			if source == nil {
				continue
			}
			if err := source.Close(); err != nil {
				logger.FromContext(ctx).Error("failed to close configuration source", "type", source.Type(), "error", err)
			}
		}
	})
	return nil
}

func (m *Manager) watch(sources []Source) {
	ctx := m.watchCtx
	for _, source := range sources {
		if source == nil {
			continue
		}
		m.watchWg.Add(1)
		go func() {
			defer m.watchWg.Done()
			err := source.Watch(ctx, func() {
				if err := m.Reload(ctx); err != nil {
					logger.FromContext(ctx).Error("failed to reload configuration", "error", err)
				}
			})
			if err != nil {
				logger.FromContext(ctx).Debug("source does not support watching", "type", source.Type(), "error", err)
			}
		}()
	}
}

// apply stores cfg and runs the hooks whose paths changed. The first load
// runs no hooks.
func (m *Manager) apply(ctx context.Context, cfg *Config) {
	prev := m.current.Swap(cfg)
	if prev == nil {
		return
	}
	changed := changedPaths(prev, cfg)
	if len(changed) == 0 {
		return
	}
	if pending := restartRequired(changed); len(pending) > 0 {
		logger.FromContext(ctx).Warn("Configuration changes need a restart to take effect", "paths", pending)
	}
	m.hooksMu.RLock()
	hooks := slices.Clone(m.hooks)
	m.hooksMu.RUnlock()
	for _, h := range hooks {
		if h.path == "" || slices.ContainsFunc(changed, func(p string) bool { return underPath(p, h.path) }) {
			h.fn(cfg)
		}
	}
}

// restartRequired filters changed down to the paths read only at startup.
func restartRequired(changed []string) []string {
	var out []string
	for _, p := range changed {
		if slices.ContainsFunc(startupPaths, func(prefix string) bool { return underPath(p, prefix) }) {
			out = append(out, p)
		}
	}
	return out
}
