package generator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/pkg/version"
	"github.com/gosimple/slug"
)

// ArtifactName identifies one generated file.
type ArtifactName string

const (
	ArtifactEnv        ArtifactName = "env"
	ArtifactYAML       ArtifactName = "yaml"
	ArtifactCompose    ArtifactName = "compose"
	ArtifactInstallSh  ArtifactName = "install-sh"
	ArtifactInstallPS1 ArtifactName = "install-ps1"
	ArtifactReadme     ArtifactName = "readme"
	ArtifactProfile    ArtifactName = "profile"
)

const DefaultPackageName = "librechat"

var ErrUnknownArtifact = errors.New("unknown artifact")

// Options are the caller-supplied inputs shared by every generator.
type Options struct {
	PackageName string
	Description string
	Sanitize    bool
	Version     string
}

func (o Options) normalized() Options {
	o.PackageName = PackageSlug(o.PackageName)
	if o.Version == "" {
		o.Version = version.Version
	}
	o.Description = strings.TrimSpace(o.Description)
	return o
}

// PackageSlug turns a free-form package name into a file-system safe slug.
func PackageSlug(name string) string {
	s := slug.Make(strings.TrimSpace(name))
	if s == "" {
		return DefaultPackageName
	}
	return s
}

// Generator renders one artifact. Implementations are pure: the same input
// always yields the same bytes and nothing is read or written.
type Generator interface {
	Name() ArtifactName
	FileName() string
	Generate(n *mapping.NestedConfiguration, opts Options) (string, error)
}

// Registry holds generators in emission order.
type Registry struct {
	generators []Generator
}

func NewRegistry(generators ...Generator) *Registry {
	return &Registry{generators: generators}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(
		envGenerator{},
		yamlGenerator{},
		composeGenerator{},
		newInstallShGenerator(),
		newInstallPS1Generator(),
		newReadmeGenerator(),
		profileGenerator{},
	)
})

// DefaultRegistry returns every built-in generator. The registry is shared
// and must not be modified.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

func (r *Registry) Names() []ArtifactName {
	out := make([]ArtifactName, len(r.generators))
	for i, g := range r.generators {
		out[i] = g.Name()
	}
	return out
}

// Get finds a generator by artifact name or by file name.
func (r *Registry) Get(name string) (Generator, bool) {
	name = strings.TrimSpace(name)
	for _, g := range r.generators {
		if string(g.Name()) == name || g.FileName() == name {
			return g, true
		}
	}
	return nil, false
}

// Select resolves an include list in registry order. An empty list selects
// every generator.
func (r *Registry) Select(include []string) ([]Generator, error) {
	if len(include) == 0 {
		return slices.Clone(r.generators), nil
	}
	var unknown []string
	picked := map[ArtifactName]bool{}
	for _, name := range include {
		g, ok := r.Get(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		picked[g.Name()] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArtifact, strings.Join(unknown, ", "))
	}
	var out []Generator
	for _, g := range r.generators {
		if picked[g.Name()] {
			out = append(out, g)
		}
	}
	return out, nil
}

// GenerateAll renders the selected artifacts keyed by file name. Any failure
// discards the whole set.
func (r *Registry) GenerateAll(
	n *mapping.NestedConfiguration,
	include []string,
	opts Options,
) (map[string]string, error) {
	if n == nil {
		return nil, errors.New("nested configuration is required")
	}
	gens, err := r.Select(include)
	if err != nil {
		return nil, err
	}
	opts = opts.normalized()
	out := make(map[string]string, len(gens))
	for _, g := range gens {
		content, err := g.Generate(n, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", g.FileName(), err)
		}
		out[g.FileName()] = content
	}
	return out, nil
}

func header(comment string, opts Options, title string) string {
	opts = opts.normalized()
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", comment, title)
	fmt.Fprintf(&b, "%s Generated by configurator %s for %s.\n", comment, opts.Version, opts.PackageName)
	return b.String()
}
