package mapping

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/chatdeploy/configurator/engine/settings"
)

// EnvVar is one rendered variable of the .env file.
type EnvVar struct {
	Name      string
	Value     string
	Set       bool
	Sensitive bool
	Group     string
	Section   string
}

// ExtraSection titles the block of dynamically named variables.
const ExtraSection = "Custom Endpoints & MCP"

type envField struct {
	name      string
	index     int
	sensitive bool
	group     string
	section   string
}

var envFields = sync.OnceValue(func() []envField {
	var out []envField
	section := ""
	for i := 0; i < envSettingsType.NumField(); i++ {
		sf := envSettingsType.Field(i)
		if s := sf.Tag.Get("section"); s != "" {
			section = s
		}
		name := sf.Tag.Get("env")
		if name == "" || name == "-" {
			continue
		}
		out = append(out, envField{
			name:      name,
			index:     i,
			sensitive: sf.Tag.Get("sensitive") == "true",
			group:     sf.Tag.Get("group"),
			section:   section,
		})
	}
	return out
})

func lookupEnvField(name string) (envField, bool) {
	i := slices.IndexFunc(envFields(), func(f envField) bool { return f.name == name })
	if i < 0 {
		return envField{}, false
	}
	return envFields()[i], true
}

// Vars lists every variable in declaration order, followed by the extra
// variables sorted by name.
func (e EnvSettings) Vars() []EnvVar {
	v := reflect.ValueOf(e)
	out := make([]EnvVar, 0, len(envFields())+len(e.Extra))
	for _, f := range envFields() {
		value, set := formatEnv(v.Field(f.index))
		out = append(out, EnvVar{
			Name:      f.name,
			Value:     value,
			Set:       set,
			Sensitive: f.sensitive,
			Group:     f.group,
			Section:   f.section,
		})
	}
	names := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		val := e.Extra[k]
		out = append(out, EnvVar{
			Name:      k,
			Value:     val,
			Set:       val != "",
			Sensitive: true,
			Section:   ExtraSection,
		})
	}
	return out
}

func formatEnv(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), v.String() != ""
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	default:
		return fmt.Sprint(v.Interface()), true
	}
}

// Lookup returns the value of a known or extra variable.
func (e EnvSettings) Lookup(name string) (string, bool) {
	if f, ok := lookupEnvField(name); ok {
		value, _ := formatEnv(reflect.ValueOf(e).Field(f.index))
		return value, true
	}
	val, ok := e.Extra[name]
	return val, ok
}

// SetVar assigns a variable parsed from a .env file. Unknown names are kept
// as extra variables so endpoint and MCP references can be resolved.
func (e *EnvSettings) SetVar(name, value string) error {
	f, ok := lookupEnvField(name)
	if !ok {
		e.setExtra(name, value)
		return nil
	}
	dst := reflect.ValueOf(e).Elem().Field(f.index)
	value = strings.TrimSpace(value)
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", name, value)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a whole number, got %q", name, value)
		}
		dst.SetInt(i)
	}
	return nil
}

var socialGroups = []string{"google", "github", "discord", "openid"}

// GroupActive reports whether the variables of a group belong in the output.
// Variables without a group are always emitted.
func (n *NestedConfiguration) GroupActive(group string) bool {
	fs := n.Config.FileStrategy
	switch group {
	case "":
		return true
	case "firebase":
		return fs.Uses(settings.BackendFirebase)
	case "s3":
		return fs.Uses(settings.BackendS3) || fs.Uses(settings.BackendCloudFront)
	case "azure":
		return fs.Uses(settings.BackendAzureBlob)
	case "smtp", "mailgun":
		return n.Deploy.EmailService == group
	case "email":
		return n.Deploy.EmailService == "smtp" || n.Deploy.EmailService == "mailgun"
	case "redis":
		return n.Env.UseRedis
	case "meili":
		return n.Env.Search
	case "rag":
		return n.Deploy.RAGAPI
	}
	if slices.Contains(socialGroups, group) {
		if slices.Contains(n.Config.Registration.SocialLogins, group) {
			return true
		}
		id, _ := n.Env.Lookup(strings.ToUpper(group) + "_CLIENT_ID")
		return id != ""
	}
	return false
}
