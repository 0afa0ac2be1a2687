package generator

import (
	"bytes"
	"fmt"

	"github.com/chatdeploy/configurator/engine/mapping"
	"gopkg.in/yaml.v3"
)

type yamlGenerator struct{}

func (yamlGenerator) Name() ArtifactName { return ArtifactYAML }
func (yamlGenerator) FileName() string   { return "librechat.yaml" }

// Generate encodes the application document. Secrets appear only as ${NAME}
// references resolved from .env at runtime; quoting of user text is left to
// the encoder.
func (yamlGenerator) Generate(n *mapping.NestedConfiguration, opts Options) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(header("#", opts, "LibreChat application configuration"))
	buf.WriteString("# Reference: https://www.librechat.ai/docs/configuration/librechat_yaml\n\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n.Config); err != nil {
		return "", fmt.Errorf("failed to encode librechat.yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode librechat.yaml: %w", err)
	}
	return buf.String(), nil
}
