package settings

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

const schemaID = "https://chatdeploy.dev/schemas/configuration.json"

var (
	schemaOnce sync.Once
	schemaDoc  []byte
	schemaErr  error
)

// JSONSchema describes the flat configuration for form generation and client-side checks.
// Field constraints come from the same validate tags the server enforces.
func JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Configuration{})
	s.ID = schemaID
	s.Title = "Chat deployment configuration"
	applyValidateTags(typeOf[Configuration](), s)
	annotateDefaults(s)
	return s
}

// JSONSchemaBytes returns the rendered schema, computed once.
func JSONSchemaBytes() ([]byte, error) {
	schemaOnce.Do(func() {
		schemaDoc, schemaErr = json.MarshalIndent(JSONSchema(), "", "  ")
	})
	return schemaDoc, schemaErr
}

func applyValidateTags(t reflect.Type, s *jsonschema.Schema) {
	if s == nil || s.Properties == nil || t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := jsonName(sf)
		if name == "" {
			continue
		}
		prop, ok := s.Properties.Get(name)
		if !ok || prop == nil {
			continue
		}
		if cat := sf.Tag.Get("category"); cat != "" {
			if prop.Extras == nil {
				prop.Extras = map[string]any{}
			}
			prop.Extras["x-category"] = cat
		}
		if sf.Tag.Get("sensitive") == "true" {
			prop.WriteOnly = true
		}
		applyConstraints(sf.Type, sf.Tag.Get("validate"), prop)
		switch {
		case sf.Type == fileStrategyType || sf.Type == mcpServersType:
		case sf.Type.Kind() == reflect.Struct:
			applyValidateTags(sf.Type, prop)
		case sf.Type.Kind() == reflect.Slice && sf.Type.Elem().Kind() == reflect.Struct:
			applyValidateTags(sf.Type.Elem(), prop.Items)
		}
	}
}

// applyConstraints maps validator tags onto schema keywords. Rules after "dive"
// apply to slice items. Under omitempty the empty string stays acceptable, so
// formats and minimum lengths are left out.
func applyConstraints(t reflect.Type, tag string, s *jsonschema.Schema) {
	if tag == "" {
		return
	}
	before, after, dived := strings.Cut(tag, ",dive")
	if strings.HasPrefix(tag, "dive") {
		before, after, dived = "", strings.TrimPrefix(tag, "dive"), true
	}
	if dived && t.Kind() == reflect.Slice && s.Items != nil {
		applyConstraints(t.Elem(), strings.TrimPrefix(after, ","), s.Items)
	}
	omitEmpty := strings.HasPrefix(before, "omitempty")
	for _, part := range strings.Split(before, ",") {
		key, param, _ := strings.Cut(part, "=")
		switch key {
		case "required":
			if t.Kind() == reflect.String {
				one := uint64(1)
				s.MinLength = &one
			}
		case "oneof":
			s.Enum = nil
			if omitEmpty {
				s.Enum = append(s.Enum, "")
			}
			for _, v := range strings.Fields(param) {
				s.Enum = append(s.Enum, v)
			}
		case "url", "email", "hostname_rfc1123":
			if !omitEmpty {
				s.Format = schemaFormats[key]
			}
		case "min", "max", "len":
			n, err := strconv.ParseUint(param, 10, 64)
			if err != nil {
				continue
			}
			setBound(t, key, n, omitEmpty, s)
		}
	}
}

var schemaFormats = map[string]string{
	"url":              "uri",
	"email":            "email",
	"hostname_rfc1123": "hostname",
}

func setBound(t reflect.Type, key string, n uint64, omitEmpty bool, s *jsonschema.Schema) {
	switch t.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		num := json.Number(strconv.FormatUint(n, 10))
		if key == "min" || key == "len" {
			s.Minimum = num
		}
		if key == "max" || key == "len" {
			s.Maximum = num
		}
	case reflect.String:
		if omitEmpty && key != "max" {
			return
		}
		if key == "min" || key == "len" {
			s.MinLength = &n
		}
		if key == "max" || key == "len" {
			s.MaxLength = &n
		}
	case reflect.Slice:
		if key == "min" {
			s.MinItems = &n
		}
		if key == "max" {
			s.MaxItems = &n
		}
	}
}

// annotateDefaults records the top-level default of each scalar property.
func annotateDefaults(s *jsonschema.Schema) {
	def, err := ToMap(Default())
	if err != nil || s.Properties == nil {
		return
	}
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		v, ok := def[pair.Key]
		if !ok {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		pair.Value.Default = v
	}
}
