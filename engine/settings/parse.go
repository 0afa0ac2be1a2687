package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Parse merges input over the defaults, resolves inferred fields and validates
// the result. The configuration is always returned, even when errors are present,
// so callers can report on a partially valid document.
func Parse(input map[string]any) (*Configuration, ValidationErrors) {
	cfg := defaults()
	var errs ValidationErrors
	if input != nil {
		errs = append(errs, decodeInto(input, cfg)...)
	}
	clearPlaceholders(cfg)
	cfg.Normalize()
	errs = append(errs, Validate(cfg)...)
	return cfg, errs.sorted()
}

// ParseJSON is Parse for a raw JSON document. A payload that is not a JSON
// object yields a single error on the root path.
func ParseJSON(data []byte) (*Configuration, ValidationErrors) {
	input, err := DecodeObject(data)
	if err != nil {
		return nil, ValidationErrors{newFieldError(RootPath, "%v", err)}
	}
	return Parse(input)
}

// DecodeObject reads a JSON object, keeping integers exact.
func DecodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("configuration body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, errors.New("configuration must be a JSON object: " + err.Error())
	}
	if out == nil {
		return nil, errors.New("configuration must be a JSON object")
	}
	return out, nil
}

// ToMap converts cfg into its generic JSON form.
func ToMap(cfg *Configuration) (map[string]any, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	out, err := DecodeObject(raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decoderConfig(result any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           result,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonNumberHook,
			fileStrategyHook,
			mcpServersHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	}
}

func decode(input, result any) error {
	dec, err := mapstructure.NewDecoder(decoderConfig(result))
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func decodeInto(input map[string]any, cfg *Configuration) ValidationErrors {
	err := decode(input, cfg)
	if err == nil {
		return nil
	}
	var out ValidationErrors
	for _, e := range flattenErrors(err) {
		out = append(out, decodeFieldError(e))
	}
	return out
}

func flattenErrors(err error) []error {
	switch e := err.(type) {
	case *mapstructure.DecodeError:
		return []error{e}
	case interface{ Unwrap() []error }:
		var out []error
		for _, inner := range e.Unwrap() {
			out = append(out, flattenErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		if inner := e.Unwrap(); inner != nil {
			return flattenErrors(inner)
		}
	}
	return []error{err}
}

func decodeFieldError(err error) FieldError {
	var de *mapstructure.DecodeError
	if !errors.As(err, &de) || de.Name() == "" {
		return newFieldError(RootPath, "%s", oneLine(err.Error()))
	}
	return newFieldError(de.Name(), "%s has an invalid value: %s", de.Name(), oneLine(de.Unwrap().Error()))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func jsonNumberHook(from, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	case reflect.String:
		return n.String(), nil
	case reflect.Interface:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return data, nil
}

func fileStrategyHook(from, to reflect.Type, data any) (any, error) {
	if to != fileStrategyType {
		return data, nil
	}
	return ParseFileStrategy(data)
}

func mcpServersHook(from, to reflect.Type, data any) (any, error) {
	if to != mcpServersType {
		return data, nil
	}
	return parseMCPServers(data, func(in any, out *MCPServer) error {
		return decode(in, out)
	})
}
