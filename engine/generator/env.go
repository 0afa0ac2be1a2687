package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/joho/godotenv"
)

type envGenerator struct{}

func (envGenerator) Name() ArtifactName { return ArtifactEnv }
func (envGenerator) FileName() string   { return ".env" }

const envRule = "#====================================================#"

// Generate writes every active variable. Unset secrets become {{NAME}}
// placeholders and unset plain values are left commented out.
func (envGenerator) Generate(n *mapping.NestedConfiguration, opts Options) (string, error) {
	var b strings.Builder
	b.WriteString(header("#", opts, "LibreChat environment"))
	b.WriteString("# Replace every {{PLACEHOLDER}} before starting the stack.\n")
	section := ""
	for _, v := range n.Env.Vars() {
		if !n.GroupActive(v.Group) {
			continue
		}
		if v.Section != section {
			section = v.Section
			fmt.Fprintf(&b, "\n%s\n# %s\n%s\n", envRule, section, envRule)
		}
		switch {
		case v.Set:
			value, err := quoteEnv(v.Value)
			if err != nil {
				return "", fmt.Errorf("%s: %w", v.Name, err)
			}
			fmt.Fprintf(&b, "%s=%s\n", v.Name, value)
		case v.Sensitive:
			fmt.Fprintf(&b, "%s=%s\n", v.Name, core.Placeholder(v.Name))
		default:
			fmt.Fprintf(&b, "# %s=\n", v.Name)
		}
	}
	return b.String(), nil
}

var bareEnvValue = regexp.MustCompile(`^[A-Za-z0-9_./:@,{}+\-]*$`)

// quoteEnv leaves simple values bare and otherwise uses godotenv's own
// double-quote escaping so the file reads back unchanged.
func quoteEnv(v string) (string, error) {
	if bareEnvValue.MatchString(v) && !strings.HasPrefix(v, "#") {
		return v, nil
	}
	line, err := godotenv.Marshal(map[string]string{"V": v})
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(line, "V="), nil
}

// PendingSecrets lists active secret variables that still need a value,
// either because they are unset or because they hold a placeholder.
func PendingSecrets(n *mapping.NestedConfiguration) []string {
	var out []string
	for _, v := range n.Env.Vars() {
		if !v.Sensitive || !n.GroupActive(v.Group) {
			continue
		}
		if !v.Set || core.IsPlaceholder(v.Value) {
			out = append(out, v.Name)
		}
	}
	return out
}
