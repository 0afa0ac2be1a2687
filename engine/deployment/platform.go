package deployment

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

const PlatformManual = "manual"

// Result is what a platform reports after accepting a deployment.
type Result struct {
	Status Status   `json:"status"`
	URLs   []string `json:"urls,omitempty"`
	Logs   []string `json:"logs,omitempty"`
}

// Platform pushes a generated package to a hosting target.
type Platform interface {
	Name() string
	Deploy(ctx context.Context, d *Deployment, files map[string]string) (*Result, error)
}

// Teardowner is implemented by platforms that can remove what they created.
type Teardowner interface {
	Teardown(ctx context.Context, d *Deployment) error
}

type Platforms struct {
	mu        sync.RWMutex
	platforms map[string]Platform
}

func NewPlatforms(platforms ...Platform) *Platforms {
	r := &Platforms{platforms: make(map[string]Platform, len(platforms))}
	for _, p := range platforms {
		r.Register(p)
	}
	return r
}

func (r *Platforms) Register(p Platform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[p.Name()] = p
}

func (r *Platforms) Get(name string) (Platform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
	return p, nil
}

func (r *Platforms) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ManualPlatform makes no remote call. The operator runs the install script
// themselves, so the deployment is reported running at the URLs it was
// created with.
type ManualPlatform struct{}

func (ManualPlatform) Name() string { return PlatformManual }

func (ManualPlatform) Deploy(_ context.Context, d *Deployment, files map[string]string) (*Result, error) {
	return &Result{
		Status: StatusRunning,
		URLs:   slices.Clone(d.URLs),
		Logs:   []string{fmt.Sprintf("package with %d files ready for manual installation", len(files))},
	}, nil
}
