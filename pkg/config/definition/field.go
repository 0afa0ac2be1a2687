package definition

import (
	"reflect"
	"strings"
)

// FieldDef describes one setting of the configurator: where it lives in the
// config tree and how it is exposed as a default, a flag and a variable.
type FieldDef struct {
	Path      string       // koanf path, e.g. "deploy.webhook.url"
	Default   any          // value used when no source sets the field
	CLIFlag   string       // flag name, empty when the field has no flag
	Shorthand string       // one-letter flag alias
	EnvVar    string       // environment variable, e.g. "DEPLOY_WEBHOOK_URL"
	Type      reflect.Type // decides the flag kind
	Help      string       // flag usage text
	Sensitive bool         // redacted by config show and never logged
}

// Group is the top-level section of the field, such as "deploy".
func (f FieldDef) Group() string {
	group, _, _ := strings.Cut(f.Path, ".")
	return group
}

// Registry keeps field definitions in registration order so flags and
// listings come out grouped the way the schema declares them.
type Registry struct {
	fields []FieldDef
	index  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds field, replacing an earlier definition of the same path.
func (r *Registry) Register(field *FieldDef) {
	if i, ok := r.index[field.Path]; ok {
		r.fields[i] = *field
		return
	}
	r.index[field.Path] = len(r.fields)
	r.fields = append(r.fields, *field)
}

func (r *Registry) GetField(path string) (FieldDef, bool) {
	i, ok := r.index[path]
	if !ok {
		return FieldDef{}, false
	}
	return r.fields[i], true
}

// GetDefault returns the default of path, or nil for an unknown path.
func (r *Registry) GetDefault(path string) any {
	if f, ok := r.GetField(path); ok {
		return f.Default
	}
	return nil
}

// Fields returns a copy of every definition in registration order.
func (r *Registry) Fields() []FieldDef {
	out := make([]FieldDef, len(r.fields))
	copy(out, r.fields)
	return out
}

// Groups lists the top-level sections in the order they were first registered.
func (r *Registry) Groups() []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range r.fields {
		if g := f.Group(); !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// GetCLIFlagMapping maps flag names to config paths.
func (r *Registry) GetCLIFlagMapping() map[string]string {
	mapping := make(map[string]string)
	for _, f := range r.fields {
		if f.CLIFlag != "" {
			mapping[f.CLIFlag] = f.Path
		}
	}
	return mapping
}
