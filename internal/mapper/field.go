// Package mapper caches the mapping between struct fields and document keys.
package mapper

import (
	"reflect"
	"strings"
	"sync"
)

// Field is an exported struct field that takes part in encoding.
type Field struct {
	Name      string
	Index     []int
	Tagged    bool
	OmitEmpty bool
}

// Fields lists the fields of a struct type in declaration order and looks
// them up by key.
type Fields struct {
	List   []Field
	byName map[string]int
	byFold map[string]int
}

// Find returns the field for key. An exact match on the key wins over a
// case-insensitive one.
func (fs *Fields) Find(key string) *Field {
	if i, ok := fs.byName[key]; ok {
		return &fs.List[i]
	}
	if i, ok := fs.byFold[strings.ToLower(key)]; ok {
		return &fs.List[i]
	}
	return nil
}

// fieldCache caches the fields of a struct type.
var fieldCache sync.Map // map[reflect.Type]*Fields

// CachedFields uses reflection to parse a struct's tags and build a cache
// of its fields. It skips unexported fields and fields tagged with
// `yaml:"-"`. Untagged embedded structs have their fields promoted.
func CachedFields(t reflect.Type) *Fields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*Fields)
	}

	fs := &Fields{byName: make(map[string]int), byFold: make(map[string]int)}
	var walk func(t reflect.Type, idx []int)
	walk = func(t reflect.Type, idx []int) {
		var embedded []int
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("yaml")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			index := append(append([]int(nil), idx...), i)

			if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
				embedded = append(embedded, i)
				continue
			}
			if !sf.IsExported() {
				continue
			}

			f := Field{Name: sf.Name, Index: index}
			if name != "" {
				f.Name = name
				f.Tagged = true
			}
			for opts != "" {
				var opt string
				opt, opts, _ = strings.Cut(opts, ",")
				if opt == "omitempty" {
					f.OmitEmpty = true
				}
			}

			// Fields of the outer struct shadow promoted ones.
			if _, ok := fs.byName[f.Name]; ok {
				continue
			}
			fs.List = append(fs.List, f)
			fs.byName[f.Name] = len(fs.List) - 1
			if _, ok := fs.byFold[strings.ToLower(f.Name)]; !ok {
				fs.byFold[strings.ToLower(f.Name)] = len(fs.List) - 1
			}
		}
		for _, i := range embedded {
			walk(t.Field(i).Type, append(append([]int(nil), idx...), i))
		}
	}
	walk(t, nil)

	fieldCache.Store(t, fs)
	return fs
}
