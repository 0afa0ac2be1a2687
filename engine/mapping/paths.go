package mapping

import (
	"reflect"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Leaf is one addressable setting of the nested configuration.
type Leaf struct {
	Path      string
	Type      reflect.Type
	Sensitive bool
	index     []int
}

type leafIndex struct {
	leaves []Leaf
	byPath map[string]Leaf
}

var (
	envSettingsType = reflect.TypeOf(EnvSettings{})
	marshalerType   = reflect.TypeOf((*yaml.Marshaler)(nil)).Elem()
)

var nestedIndex = sync.OnceValue(func() *leafIndex {
	ix := &leafIndex{byPath: map[string]Leaf{}}
	collect(ix, reflect.TypeOf(NestedConfiguration{}), "", nil, false)
	return ix
})

func isLeaf(t reflect.Type) bool {
	return t.Kind() != reflect.Struct || t.Implements(marshalerType)
}

// segment names a field by its env variable inside EnvSettings and by its
// yaml key everywhere else.
func segment(owner reflect.Type, sf reflect.StructField) string {
	if owner == envSettingsType {
		if name := sf.Tag.Get("env"); name != "" && name != "-" {
			return name
		}
	}
	name, _, _ := strings.Cut(sf.Tag.Get("yaml"), ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func collect(ix *leafIndex, t reflect.Type, prefix string, index []int, sensitive bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		path := segment(t, sf)
		if prefix != "" {
			path = prefix + "." + path
		}
		fieldIndex := append(append([]int{}, index...), i)
		secret := sensitive || sf.Tag.Get("sensitive") == "true"
		if isLeaf(sf.Type) {
			l := Leaf{Path: path, Type: sf.Type, Sensitive: secret, index: fieldIndex}
			ix.leaves = append(ix.leaves, l)
			ix.byPath[path] = l
			continue
		}
		collect(ix, sf.Type, path, fieldIndex, secret)
	}
}

// Leaves lists every nested leaf in declaration order.
func Leaves() []Leaf {
	return nestedIndex().leaves
}

// LookupLeaf finds a nested leaf by its dotted path, e.g. "env.JWT_SECRET"
// or "config.interface.presets".
func LookupLeaf(path string) (Leaf, bool) {
	l, ok := nestedIndex().byPath[path]
	return l, ok
}

func (l Leaf) Value(n *NestedConfiguration) reflect.Value {
	return reflect.ValueOf(n).Elem().FieldByIndex(l.index)
}

// EnvName returns the variable name of an env leaf, or "" for other leaves.
func (l Leaf) EnvName() string {
	name, ok := strings.CutPrefix(l.Path, "env.")
	if !ok || strings.Contains(name, ".") || name == "extra" {
		return ""
	}
	return name
}

// assignable reports whether a value of src can be stored in dst by assign.
func assignable(src, dst reflect.Type) bool {
	if src.AssignableTo(dst) {
		return true
	}
	return src.Kind() == dst.Kind() && src.ConvertibleTo(dst)
}

func assign(dst, src reflect.Value) {
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(cloneValue(src))
	case src.Kind() == dst.Kind() && src.Type().ConvertibleTo(dst.Type()):
		dst.Set(cloneValue(src).Convert(dst.Type()))
	}
}

// cloneValue copies slices so nested and flat values never share backing arrays.
func cloneValue(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Slice || v.IsNil() {
		return v
	}
	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)
	return out
}
