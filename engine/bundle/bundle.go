// Package bundle turns a submitted configuration into a generated package.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/generator"
	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/chatdeploy/configurator/pkg/logger"
)

// ErrGenerationFailed wraps any failure raised while rendering artifacts.
var ErrGenerationFailed = errors.New("package generation failed")

// Request is the body of a package generation call.
type Request struct {
	Configuration map[string]any `json:"configuration"`
	IncludeFiles  []string       `json:"includeFiles,omitempty"`
	PackageName   string         `json:"packageName,omitempty"`
	Description   string         `json:"description,omitempty"`
	Sanitize      bool           `json:"sanitize,omitempty"`
}

// Package is a generated set of files keyed by file name.
type Package struct {
	Name           string            `json:"packageName"`
	Files          map[string]string `json:"files"`
	PendingSecrets []string          `json:"pendingSecrets,omitempty"`
	HistoryID      core.ID           `json:"historyId,omitempty"`
}

// FileNames returns the package's file names in sorted order.
func (p *Package) FileNames() []string {
	return slices.Sorted(maps.Keys(p.Files))
}

// HistoryAppender records successful generations.
type HistoryAppender interface {
	AppendHistory(cfg *settings.Configuration, name string) (*store.HistoryEntry, error)
}

// Recorder observes generation outcomes.
type Recorder interface {
	RecordPackage(ctx context.Context, files int, err error)
}

// Generate validates a configuration and renders the requested artifacts.
// Rendering is all-or-nothing. History is appended after success; a history
// failure is logged and does not fail the request.
type Generate struct {
	registry *generator.Registry
	history  HistoryAppender
	recorder Recorder
}

func NewGenerate(registry *generator.Registry, history HistoryAppender, recorder Recorder) *Generate {
	if registry == nil {
		registry = generator.DefaultRegistry()
	}
	return &Generate{registry: registry, history: history, recorder: recorder}
}

func (uc *Generate) Execute(ctx context.Context, req *Request) (*Package, error) {
	if req == nil {
		req = &Request{}
	}
	cfg, errs := settings.Parse(req.Configuration)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	pkg, err := uc.render(cfg, req)
	if uc.recorder != nil {
		files := 0
		if pkg != nil {
			files = len(pkg.Files)
		}
		uc.recorder.RecordPackage(ctx, files, err)
	}
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	if uc.history != nil {
		entry, err := uc.history.AppendHistory(cfg, pkg.Name)
		if err != nil {
			log.Warn("Failed to record configuration history", "package", pkg.Name, "error", core.RedactError(err))
		} else {
			pkg.HistoryID = entry.ID
		}
	}
	log.Info("Package generated", "package", pkg.Name, "files", len(pkg.Files))
	return pkg, nil
}

func (uc *Generate) render(cfg *settings.Configuration, req *Request) (pkg *Package, err error) {
	defer func() {
		if r := recover(); r != nil {
			pkg = nil
			err = fmt.Errorf("%w: %v", ErrGenerationFailed, r)
		}
	}()
	nested := mapping.ToNested(cfg)
	opts := generator.Options{
		PackageName: req.PackageName,
		Description: req.Description,
		Sanitize:    req.Sanitize,
	}
	files, err := uc.registry.GenerateAll(nested, req.IncludeFiles, opts)
	if err != nil {
		if errors.Is(err, generator.ErrUnknownArtifact) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return &Package{
		Name:           generator.PackageSlug(req.PackageName),
		Files:          files,
		PendingSecrets: generator.PendingSecrets(nested),
	}, nil
}
