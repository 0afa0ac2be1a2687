package settings

import (
	"reflect"
	"strings"
	"sync"
)

// Field describes one leaf of the flat configuration.
type Field struct {
	Path      string
	Category  Category
	Sensitive bool
	Type      reflect.Type
	index     []int
}

type fieldIndex struct {
	fields           []Field
	byPath           map[string]Field
	categoryByTop    map[string]Category
	leavesByCategory map[Category][]string
}

var (
	indexOnce sync.Once
	idx       *fieldIndex
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var (
	fileStrategyType = typeOf[FileStrategy]()
	mcpServersType   = typeOf[MCPServers]()
)

// isLeafType reports whether a value of t is treated as a single setting.
// Slices, maps and the two union types count as one setting each.
func isLeafType(t reflect.Type) bool {
	if t == fileStrategyType || t == mcpServersType {
		return true
	}
	return t.Kind() != reflect.Struct
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func schemaIndex() *fieldIndex {
	indexOnce.Do(func() {
		idx = buildIndex()
	})
	return idx
}

func buildIndex() *fieldIndex {
	ix := &fieldIndex{
		byPath:           map[string]Field{},
		categoryByTop:    map[string]Category{},
		leavesByCategory: map[Category][]string{},
	}
	root := typeOf[Configuration]()
	for i := 0; i < root.NumField(); i++ {
		sf := root.Field(i)
		name := jsonName(sf)
		cat := Category(sf.Tag.Get("category"))
		ix.categoryByTop[name] = cat
		collectLeaves(ix, sf, name, cat, []int{i})
	}
	return ix
}

func collectLeaves(ix *fieldIndex, sf reflect.StructField, path string, cat Category, index []int) {
	if isLeafType(sf.Type) {
		f := Field{
			Path:      path,
			Category:  cat,
			Sensitive: sf.Tag.Get("sensitive") == "true",
			Type:      sf.Type,
			index:     index,
		}
		ix.fields = append(ix.fields, f)
		ix.byPath[path] = f
		ix.leavesByCategory[cat] = append(ix.leavesByCategory[cat], path)
		return
	}
	for i := 0; i < sf.Type.NumField(); i++ {
		child := sf.Type.Field(i)
		if !child.IsExported() {
			continue
		}
		childIndex := append(append([]int{}, index...), i)
		collectLeaves(ix, child, path+"."+jsonName(child), cat, childIndex)
	}
}

// Fields lists every leaf setting in declaration order.
func Fields() []Field {
	return schemaIndex().fields
}

// LookupField finds a leaf by its dotted json path.
func LookupField(path string) (Field, bool) {
	f, ok := schemaIndex().byPath[path]
	return f, ok
}

// Value reads the leaf from cfg.
func (f Field) Value(cfg *Configuration) reflect.Value {
	return reflect.ValueOf(cfg).Elem().FieldByIndex(f.index)
}

// Interface returns the leaf value of cfg as an untyped value.
func (f Field) Interface(cfg *Configuration) any {
	return f.Value(cfg).Interface()
}

// Set assigns v to the leaf in cfg, converting between compatible kinds.
func (f Field) Set(cfg *Configuration, v any) bool {
	dst := f.Value(cfg)
	src := reflect.ValueOf(v)
	if !src.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return true
	}
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind():
		dst.Set(src.Convert(dst.Type()))
	default:
		return false
	}
	return true
}

// leafOf maps an error path like "modelSpecs.list[2].name" onto its owning leaf.
func leafOf(path string) string {
	if i := strings.Index(path, "["); i >= 0 {
		path = path[:i]
	}
	for path != "" {
		if _, ok := schemaIndex().byPath[path]; ok {
			return path
		}
		i := strings.LastIndex(path, ".")
		if i < 0 {
			break
		}
		path = path[:i]
	}
	return path
}
