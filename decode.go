package ryaml

import (
	"encoding"
	"fmt"
	"math"
	"reflect"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/KimNorgaard/go-ryaml/internal/mapper"
)

// Unmarshaler is the interface implemented by types that can unmarshal
// themselves. UnmarshalYAML receives the plain value of the node: a Map, a
// []any, a scalar or nil.
type Unmarshaler interface {
	UnmarshalYAML(value any) error
}

type decodeState struct {
	tree  *ast.Tree
	depth int
}

func (ds *decodeState) decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("ryaml: Unmarshal(non-pointer %T or nil)", v)
	}
	return ds.mapValue(ds.tree.Root, rv.Elem())
}

func (ds *decodeState) mapValue(id ast.NodeID, rv reflect.Value) error { //nolint:gocyclo
	ds.depth--
	if ds.depth <= 0 {
		return fmt.Errorf("ryaml: reached max recursion depth")
	}
	defer func() { ds.depth++ }()

	n := ds.tree.Node(id)
	if n.Kind == ast.Null {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	handled, err := ds.tryCustomUnmarshal(id, rv)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Interface {
		return ds.mapInterface(id, rv)
	}
	if !rv.CanSet() {
		return fmt.Errorf("ryaml: cannot set value of type %s", rv.Type())
	}

	switch n.Kind {
	case ast.Null:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case ast.Scalar:
		switch v := n.Value.(type) {
		case string:
			return mapString(v, rv)
		case int64:
			return mapInt(v, rv)
		case float64:
			return mapFloat(v, rv)
		case bool:
			return mapBool(v, rv)
		}
		return fmt.Errorf("ryaml: unexpected scalar %T", n.Value)
	case ast.Sequence:
		switch rv.Kind() {
		case reflect.Slice:
			return ds.mapSlice(n, rv)
		case reflect.Array:
			return ds.mapArray(n, rv)
		}
		return fmt.Errorf("ryaml: cannot unmarshal sequence into Go value of type %s", rv.Type())
	case ast.Mapping:
		switch rv.Kind() {
		case reflect.Struct:
			return ds.mapStruct(n, rv)
		case reflect.Map:
			return ds.mapMap(n, rv)
		}
		return fmt.Errorf("ryaml: cannot unmarshal mapping into Go value of type %s", rv.Type())
	}
	return fmt.Errorf("ryaml: unexpected node kind %s", n.Kind)
}

// tryCustomUnmarshal attempts to use a custom unmarshaler (Unmarshaler or
// encoding.TextUnmarshaler) on rv. It returns true if one was found and used,
// in which case the caller should not proceed with default unmarshaling.
func (ds *decodeState) tryCustomUnmarshal(id ast.NodeID, rv reflect.Value) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if u, ok := pv.Interface().(Unmarshaler); ok {
		if err := u.UnmarshalYAML(project(ds.tree, id)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(encoding.TextUnmarshaler); ok {
		s, isString := ds.tree.Node(id).Value.(string)
		if !isString {
			// TextUnmarshaler can only be used on string values.
			return false, nil
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func mapString(s string, rv reflect.Value) error {
	if rv.Kind() != reflect.String {
		return fmt.Errorf("ryaml: cannot unmarshal string into Go value of type %s", rv.Type())
	}
	rv.SetString(s)
	return nil
}

func mapInt(i int64, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.OverflowInt(i) {
			return fmt.Errorf("ryaml: integer value %d overflows Go value of type %s", i, rv.Type())
		}
		rv.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if i < 0 || rv.OverflowUint(uint64(i)) {
			return fmt.Errorf("ryaml: integer value %d overflows Go value of type %s", i, rv.Type())
		}
		rv.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(float64(i))
		return nil
	}
	return fmt.Errorf("ryaml: cannot unmarshal integer into Go value of type %s", rv.Type())
}

func mapFloat(f float64, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if !math.IsInf(f, 0) && rv.OverflowFloat(f) {
			return fmt.Errorf("ryaml: float value %g overflows Go value of type %s", f, rv.Type())
		}
		rv.SetFloat(f)
		return nil
	}
	return fmt.Errorf("ryaml: cannot unmarshal float into Go value of type %s", rv.Type())
}

func mapBool(b bool, rv reflect.Value) error {
	if rv.Kind() != reflect.Bool {
		return fmt.Errorf("ryaml: cannot unmarshal boolean into Go value of type %s", rv.Type())
	}
	rv.SetBool(b)
	return nil
}

func (ds *decodeState) mapSlice(n *ast.Node, rv reflect.Value) error {
	items := n.Items
	newSlice := reflect.MakeSlice(rv.Type(), len(items), len(items))
	for i, it := range items {
		if err := ds.mapValue(it.Value, newSlice.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(newSlice)
	return nil
}

func (ds *decodeState) mapArray(n *ast.Node, rv reflect.Value) error {
	items := n.Items
	if rv.Len() != len(items) {
		return fmt.Errorf("ryaml: cannot unmarshal sequence of length %d into Go array of length %d", len(items), rv.Len())
	}
	for i, it := range items {
		if err := ds.mapValue(it.Value, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) mapMap(n *ast.Node, rv reflect.Value) error {
	mapType := rv.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("ryaml: cannot unmarshal mapping into map with non-string key type %s", mapType.Key())
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(mapType))
	} else {
		rv.Clear()
	}
	entries := n.Entries
	elemType := mapType.Elem()
	for _, e := range entries {
		newVal := reflect.New(elemType).Elem()
		if err := ds.mapValue(e.Value, newVal); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(e.Key).Convert(mapType.Key()), newVal)
	}
	return nil
}

func (ds *decodeState) mapStruct(n *ast.Node, rv reflect.Value) error {
	fields := mapper.CachedFields(rv.Type())
	for _, e := range n.Entries {
		f := fields.Find(e.Key)
		if f == nil {
			continue
		}
		fieldVal, err := rv.FieldByIndexErr(f.Index)
		if err != nil {
			// A nil embedded pointer; promoted fields through pointers are
			// not followed.
			continue
		}
		if fieldVal.CanSet() {
			if err := ds.mapValue(e.Value, fieldVal); err != nil {
				return err
			}
		}
	}
	return nil
}

// mapInterface stores the plain value of id in an empty interface.
// Mappings become a Map so that their key order survives.
func (ds *decodeState) mapInterface(id ast.NodeID, rv reflect.Value) error {
	if rv.NumMethod() != 0 {
		return fmt.Errorf("ryaml: cannot unmarshal into non-empty interface %s", rv.Type())
	}
	n := ds.tree.Node(id)
	var v any
	switch n.Kind {
	case ast.Null:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case ast.Scalar:
		v = n.Value
	case ast.Sequence:
		items := make([]any, len(n.Items))
		for i, it := range n.Items {
			if err := ds.mapValue(it.Value, reflect.ValueOf(&items[i]).Elem()); err != nil {
				return err
			}
		}
		v = items
	case ast.Mapping:
		entries := n.Entries
		m := make(Map, len(entries))
		for i, e := range entries {
			m[i].Key = e.Key
			if err := ds.mapValue(e.Value, reflect.ValueOf(&m[i].Value).Elem()); err != nil {
				return err
			}
		}
		v = m
	}
	rv.Set(reflect.ValueOf(v))
	return nil
}
