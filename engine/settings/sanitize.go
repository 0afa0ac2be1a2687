package settings

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/mohae/deepcopy"
)

var envReferenceRe = regexp.MustCompile(`^\$\{[A-Za-z0-9_]+\}$`)

// IsPlaceholderValue reports whether v stands in for a secret rather than holding one.
// Both "{{NAME}}" and "${NAME}" forms qualify.
func IsPlaceholderValue(v string) bool {
	v = strings.TrimSpace(v)
	return core.IsPlaceholder(v) || envReferenceRe.MatchString(v)
}

// walkSensitive visits every sensitive string or map field under v.
// Path segments for list items use the item's name when it has one.
func walkSensitive(v reflect.Value, path string, fn func(path string, v reflect.Value)) {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			fv := v.Field(i)
			childPath := joinPath(path, jsonName(sf))
			if sf.Tag.Get("sensitive") == "true" {
				fn(childPath, fv)
				continue
			}
			walkSensitive(fv, childPath, fn)
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			walkSensitive(item, joinPath(path, itemSegment(item, i)), fn)
		}
	}
}

func joinPath(parent, name string) string {
	switch {
	case name == "":
		return parent
	case parent == "":
		return name
	default:
		return parent + "." + name
	}
}

func itemSegment(item reflect.Value, i int) string {
	if item.Kind() == reflect.Struct {
		if name := item.FieldByName("Name"); name.IsValid() && name.Kind() == reflect.String && name.String() != "" {
			return name.String()
		}
	}
	return strconv.Itoa(i)
}

var defaultValues = sync.OnceValue(defaults)

// isDefaultSecret reports whether s is the documented default of the leaf at path.
// Defaults such as the bundled database URI are not withheld.
func isDefaultSecret(path, s string) bool {
	f, ok := LookupField(path)
	if !ok {
		return false
	}
	dv := f.Value(defaultValues())
	return dv.Kind() == reflect.String && dv.String() == s
}

// withholdable reports whether the secret at path holds a real, non-default value.
func withholdable(path, s string) bool {
	return s != "" && !IsPlaceholderValue(s) && !isDefaultSecret(path, s)
}

const customEndpointPrefix = "endpoints.custom."

// SecretPlaceholder names the placeholder used for the secret at path.
// Custom endpoint keys are named after the endpoint alone.
func SecretPlaceholder(path string) string {
	if rest, ok := strings.CutPrefix(path, customEndpointPrefix); ok {
		if name, ok := strings.CutSuffix(rest, ".apiKey"); ok {
			return core.Placeholder(CustomEndpointKeyName(name))
		}
	}
	return core.Placeholder(core.ScreamingSnake(path))
}

// CustomEndpointKeyName is the environment variable holding a custom endpoint's key.
func CustomEndpointKeyName(endpoint string) string {
	return core.ScreamingSnake(endpoint) + "_API_KEY"
}

// Sanitize returns a deep copy of cfg with every populated secret replaced by a
// placeholder. The input is left untouched.
func Sanitize(cfg *Configuration) *Configuration {
	if cfg == nil {
		return nil
	}
	out, ok := deepcopy.Copy(cfg).(*Configuration)
	if !ok {
		return nil
	}
	walkSensitive(reflect.ValueOf(out).Elem(), "", func(path string, v reflect.Value) {
		switch v.Kind() {
		case reflect.String:
			if withholdable(path, v.String()) {
				v.SetString(SecretPlaceholder(path))
			}
		case reflect.Map:
			for _, k := range v.MapKeys() {
				s := v.MapIndex(k).String()
				if s != "" && !IsPlaceholderValue(s) {
					v.SetMapIndex(k, reflect.ValueOf(SecretPlaceholder(path+"."+k.String())))
				}
			}
		}
	})
	return out
}

// Secrets lists the populated secret values keyed by path. Placeholders and
// documented defaults are skipped.
func Secrets(cfg *Configuration) map[string]string {
	out := map[string]string{}
	if cfg == nil {
		return out
	}
	walkSensitive(reflect.ValueOf(cfg).Elem(), "", func(path string, v reflect.Value) {
		switch v.Kind() {
		case reflect.String:
			if s := v.String(); withholdable(path, s) {
				out[path] = s
			}
		case reflect.Map:
			for _, k := range v.MapKeys() {
				if s := v.MapIndex(k).String(); s != "" && !IsPlaceholderValue(s) {
					out[path+"."+k.String()] = s
				}
			}
		}
	})
	return out
}
