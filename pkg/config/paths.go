package config

import (
	"reflect"
	"strings"
	"sync"
)

// leaf is one settable value of Config, addressed by its koanf path.
type leaf struct {
	path      string
	env       string
	sensitive bool
	index     []int
}

var sensitiveStringType = reflect.TypeOf(SensitiveString(""))

type leafTable struct {
	leaves []leaf
	byPath map[string]int
	byEnv  map[string]int
}

var leaves = sync.OnceValue(func() *leafTable {
	t := &leafTable{byPath: make(map[string]int), byEnv: make(map[string]int)}
	t.collect(reflect.TypeOf(Config{}), "", nil)
	return t
})

func (t *leafTable) collect(typ reflect.Type, prefix string, index []int) {
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name := f.Tag.Get("koanf")
		if !f.IsExported() || name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		idx := append(append([]int(nil), index...), i)
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			t.collect(f.Type, path, idx)
			continue
		}
		l := leaf{
			path:      path,
			env:       f.Tag.Get("env"),
			sensitive: f.Type == sensitiveStringType || f.Tag.Get("sensitive") == "true",
			index:     idx,
		}
		t.byPath[path] = len(t.leaves)
		if l.env != "" && l.env != "-" {
			t.byEnv[l.env] = len(t.leaves)
		}
		t.leaves = append(t.leaves, l)
	}
}

func (t *leafTable) lookup(path string) (leaf, bool) {
	i, ok := t.byPath[path]
	if !ok {
		return leaf{}, false
	}
	return t.leaves[i], true
}

// GenerateEnvToConfigMap maps each declared variable to its config path.
func GenerateEnvToConfigMap() map[string]string {
	t := leaves()
	out := make(map[string]string, len(t.byEnv))
	for env, i := range t.byEnv {
		out[env] = t.leaves[i].path
	}
	return out
}

// GetEnvVarForConfigPath returns the variable for path, or "" when none is declared.
func GetEnvVarForConfigPath(configPath string) string {
	if l, ok := leaves().lookup(configPath); ok {
		return l.env
	}
	return ""
}

// IsSensitiveConfigPath reports whether path holds a secret such as the
// webhook token.
func IsSensitiveConfigPath(configPath string) bool {
	l, ok := leaves().lookup(configPath)
	return ok && l.sensitive
}

// changedPaths lists the leaf paths whose values differ between a and b.
func changedPaths(a, b *Config) []string {
	if a == nil || b == nil {
		return nil
	}
	va, vb := reflect.ValueOf(a).Elem(), reflect.ValueOf(b).Elem()
	var out []string
	for _, l := range leaves().leaves {
		if !reflect.DeepEqual(va.FieldByIndex(l.index).Interface(), vb.FieldByIndex(l.index).Interface()) {
			out = append(out, l.path)
		}
	}
	return out
}

// underPath reports whether path is prefix itself or nested below it.
func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+".")
}
