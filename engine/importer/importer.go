// Package importer reads previously generated artifacts back into a flat
// configuration. Profile JSON, librechat.yaml and .env files are accepted.
package importer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatAuto    Format = ""
	FormatProfile Format = "profile"
	FormatYAML    Format = "yaml"
	FormatEnv     Format = "env"
)

var (
	ErrEmptyInput        = errors.New("import payload is empty")
	ErrUnsupportedFormat = errors.New("unsupported import format")
	ErrMalformedInput    = errors.New("malformed import payload")
)

// ParseFormat maps a format name or a file name to a Format.
func ParseFormat(hint string) (Format, error) {
	h := strings.ToLower(strings.TrimSpace(hint))
	switch h {
	case "", "auto":
		return FormatAuto, nil
	case "profile", "json":
		return FormatProfile, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "env", "dotenv", ".env":
		return FormatEnv, nil
	}
	switch ext := path.Ext(h); {
	case ext == ".json":
		return FormatProfile, nil
	case ext == ".yaml" || ext == ".yml":
		return FormatYAML, nil
	case ext == ".env" || strings.HasPrefix(path.Base(h), ".env"):
		return FormatEnv, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, hint)
}

var envLine = regexp.MustCompile(`^(export\s+)?[A-Za-z_][A-Za-z0-9_.]*\s*=`)

// Detect sniffs the payload. JSON is a profile, a file made only of
// assignments and comments is a .env file, and any other text is YAML.
func Detect(data []byte) (Format, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return FormatAuto, ErrEmptyInput
	}
	if trimmed := bytes.TrimSpace(data); trimmed[0] == '{' && gjson.ValidBytes(trimmed) {
		return FormatProfile, nil
	}
	mt := mimetype.Detect(data)
	if mt.Is("application/json") {
		return FormatProfile, nil
	}
	if !isText(mt) {
		return FormatAuto, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
	if looksLikeEnv(data) {
		return FormatEnv, nil
	}
	return FormatYAML, nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func looksLikeEnv(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	assignments := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !envLine.MatchString(line) {
			return false
		}
		assignments++
	}
	return assignments > 0
}

// Import converts data into a configuration. hint may be a format name, a
// file name or empty for detection. Malformed input returns a nil
// configuration. When the document parses but fails validation, the
// configuration is returned together with settings.ValidationErrors.
func Import(data []byte, hint string) (*settings.Configuration, Format, error) {
	format, err := ParseFormat(hint)
	if err != nil {
		return nil, FormatAuto, err
	}
	if format == FormatAuto {
		if format, err = Detect(data); err != nil {
			return nil, FormatAuto, err
		}
	} else if len(bytes.TrimSpace(data)) == 0 {
		return nil, format, ErrEmptyInput
	}
	var cfg *settings.Configuration
	var errs settings.ValidationErrors
	switch format {
	case FormatProfile:
		cfg, errs, err = importProfile(data)
	default:
		n := baseline()
		if format == FormatEnv {
			err = overlayEnv(n, data)
		} else {
			err = overlayYAML(n, data)
		}
		if err == nil {
			cfg = mapping.ToFlat(n)
			errs = settings.Validate(cfg)
		}
	}
	if err != nil {
		return nil, format, err
	}
	return cfg, format, errs.Err()
}

// ImportBundle rebuilds a configuration from a set of generated files keyed
// by file name. A profile wins when present; otherwise .env and
// librechat.yaml are layered onto the defaults.
func ImportBundle(files map[string][]byte) (*settings.Configuration, error) {
	if data, ok := files["configuration-profile.json"]; ok {
		cfg, _, err := Import(data, string(FormatProfile))
		return cfg, err
	}
	env, hasEnv := files[".env"]
	doc, hasYAML := files["librechat.yaml"]
	if !hasEnv && !hasYAML {
		return nil, fmt.Errorf("%w: bundle has no profile, .env or librechat.yaml", ErrUnsupportedFormat)
	}
	n := baseline()
	if hasEnv {
		if err := overlayEnv(n, env); err != nil {
			return nil, err
		}
	}
	if hasYAML {
		if err := overlayYAML(n, doc); err != nil {
			return nil, err
		}
	}
	cfg := mapping.ToFlat(n)
	return cfg, settings.Validate(cfg).Err()
}

func baseline() *mapping.NestedConfiguration {
	return mapping.ToNested(settings.Default())
}

func importProfile(data []byte) (*settings.Configuration, settings.ValidationErrors, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: profile is not valid JSON", ErrMalformedInput)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("%w: profile must be a JSON object", ErrMalformedInput)
	}
	raw := data
	if inner := doc.Get("configuration"); inner.IsObject() {
		raw = []byte(inner.Raw)
	}
	cfg, errs := settings.ParseJSON(raw)
	if cfg == nil {
		return nil, nil, errs
	}
	return cfg, errs, nil
}

func overlayEnv(n *mapping.NestedConfiguration, data []byte) error {
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: failed to parse .env: %w", ErrMalformedInput, err)
	}
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		if err := n.Env.SetVar(name, vars[name]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: invalid .env values: %w", ErrMalformedInput, err)
	}
	return nil
}

func overlayYAML(n *mapping.NestedConfiguration, data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: failed to parse librechat.yaml: %w", ErrMalformedInput, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: librechat.yaml must be a mapping", ErrMalformedInput)
	}
	// Provider-keyed maps are replaced, not merged with the defaults.
	if _, ok := doc["speech"]; ok {
		n.Config.Speech = mapping.SpeechConfig{}
	}
	if err := yaml.Unmarshal(data, &n.Config); err != nil {
		return fmt.Errorf("%w: failed to decode librechat.yaml: %w", ErrMalformedInput, err)
	}
	return nil
}
