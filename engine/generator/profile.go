package generator

import (
	"encoding/json"
	"fmt"

	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/tidwall/pretty"
)

// ProfileDocument is the re-importable snapshot written as
// configuration-profile.json.
type ProfileDocument struct {
	Name          string                  `json:"name"`
	Description   string                  `json:"description,omitempty"`
	Configuration *settings.Configuration `json:"configuration"`
}

var profilePretty = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

type profileGenerator struct{}

func (profileGenerator) Name() ArtifactName { return ArtifactProfile }
func (profileGenerator) FileName() string   { return "configuration-profile.json" }

func (profileGenerator) Generate(n *mapping.NestedConfiguration, opts Options) (string, error) {
	opts = opts.normalized()
	cfg := mapping.ToFlat(n)
	if opts.Sanitize {
		cfg = settings.Sanitize(cfg)
	}
	raw, err := json.Marshal(ProfileDocument{
		Name:          opts.PackageName,
		Description:   opts.Description,
		Configuration: cfg,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	return string(pretty.PrettyOptions(raw, profilePretty)), nil
}
