package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chatdeploy/configurator/pkg/config/definition"
	"gopkg.in/yaml.v3"
)

// envProvider marks where environment variables apply. The actual loading is
// done by koanf's env provider in loader.go.
type envProvider struct{}

func NewEnvProvider() Source {
	return &envProvider{}
}

func (e *envProvider) Load() (map[string]any, error) {
	return make(map[string]any), nil
}

func (e *envProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (e *envProvider) Type() SourceType {
	return SourceEnv
}

func (e *envProvider) Close() error {
	return nil
}

// cliProvider implements Source for CLI flags keyed by flag name.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider maps flag names to config paths through the field registry.
// Flags without a registry entry are ignored.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{flags: flags}
}

func (c *cliProvider) Load() (map[string]any, error) {
	config := make(map[string]any)
	if len(c.flags) == 0 {
		return config, nil
	}
	flagToPath := definition.CreateRegistry().GetCLIFlagMapping()
	for key, value := range c.flags {
		path, ok := flagToPath[key]
		if !ok {
			continue
		}
		if err := setNested(config, path, value); err != nil {
			return nil, fmt.Errorf("failed to set CLI flag %s: %w", key, err)
		}
	}
	return config, nil
}

func (c *cliProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

func (c *cliProvider) Close() error {
	return nil
}

// setNested sets a value in a nested map structure using dot notation.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

// yamlProvider implements Source for a YAML file. A missing file is an empty
// source so the server starts without one.
type yamlProvider struct {
	path      string
	watcher   *Watcher
	watcherMu sync.Mutex
	closeOnce sync.Once
}

func NewYAMLProvider(path string) Source {
	return &yamlProvider{path: path}
}

func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return filterNilValues(config), nil
}

// filterNilValues drops nil leaves so an empty YAML key keeps its default.
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if v == nil {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if filtered := filterNilValues(nested); len(filtered) > 0 {
				result[k] = filtered
			}
			continue
		}
		result[k] = v
	}
	return result
}

// Watch registers callback for writes to the file. The watcher is created on
// first use and shared by later calls.
func (y *yamlProvider) Watch(ctx context.Context, callback func()) error {
	y.watcherMu.Lock()
	defer y.watcherMu.Unlock()
	if y.watcher == nil {
		if _, err := os.Stat(y.path); err != nil {
			return fmt.Errorf("failed to watch YAML file: %w", err)
		}
		watcher, err := NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := watcher.Watch(ctx, y.path); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch YAML file: %w", err)
		}
		y.watcher = watcher
	}
	y.watcher.OnChange(callback)
	return nil
}

func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

func (y *yamlProvider) Close() error {
	var closeErr error
	y.closeOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()
		if y.watcher != nil {
			closeErr = y.watcher.Close()
			y.watcher = nil
		}
	})
	return closeErr
}

// defaultProvider serves the registry defaults as a nested map.
type defaultProvider struct {
	defaults map[string]any
}

func NewDefaultProvider() Source {
	return &defaultProvider{defaults: createDefaultMap()}
}

func (d *defaultProvider) Load() (map[string]any, error) {
	return d.defaults, nil
}

func (d *defaultProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

func (d *defaultProvider) Type() SourceType {
	return SourceDefault
}

func (d *defaultProvider) Close() error {
	return nil
}

func createDefaultMap() map[string]any {
	result := make(map[string]any)
	for _, field := range definition.CreateRegistry().Fields() {
		// Registry paths never collide, so setNested cannot fail here.
		_ = setNested(result, field.Path, field.Default)
	}
	return result
}
