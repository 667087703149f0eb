package ryaml

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/KimNorgaard/go-ryaml/internal/mapper"
)

// Marshaler is the interface implemented by types that can marshal
// themselves. MarshalYAML returns a value that is marshaled in place of the
// receiver.
type Marshaler interface {
	MarshalYAML() (any, error)
}

// encodeState builds fresh nodes for Go values in a tree.
type encodeState struct {
	tree  *ast.Tree
	depth int
}

func (e *encodeState) fresh(n ast.Node) ast.NodeID {
	n.Parent = ast.None
	n.Fresh = true
	return e.tree.Add(n)
}

func (e *encodeState) null() ast.NodeID {
	return e.fresh(ast.Node{Kind: ast.Null})
}

func (e *encodeState) scalar(v any) ast.NodeID {
	return e.fresh(ast.Node{Kind: ast.Scalar, Value: v})
}

func (e *encodeState) marshalCustom(v reflect.Value, u Marshaler) (ast.NodeID, error) {
	out, err := u.MarshalYAML()
	if err != nil {
		return ast.None, &MarshalerError{Type: v.Type(), Err: err}
	}
	return e.marshalValue(reflect.ValueOf(out))
}

func (e *encodeState) marshalText(v reflect.Value, u encoding.TextMarshaler) (ast.NodeID, error) {
	out, err := u.MarshalText()
	if err != nil {
		return ast.None, &MarshalerError{Type: v.Type(), Err: err}
	}
	return e.scalar(string(out)), nil
}

// custom checks v and a pointer to v for Marshaler and TextMarshaler, to
// handle both value and pointer receivers.
func (e *encodeState) custom(v reflect.Value) (ast.NodeID, bool, error) {
	candidates := []reflect.Value{v}
	if v.Kind() != reflect.Pointer {
		var pv reflect.Value
		if v.CanAddr() {
			pv = v.Addr()
		} else {
			// For non-addressable values (like struct literals),
			// use a pointer to a copy.
			pv = reflect.New(v.Type())
			pv.Elem().Set(v)
		}
		candidates = append(candidates, pv)
	}
	for _, c := range candidates {
		if c.Type().NumMethod() == 0 || !c.CanInterface() {
			continue
		}
		if c.Kind() == reflect.Pointer && c.IsNil() {
			continue
		}
		switch u := c.Interface().(type) {
		case Marshaler:
			id, err := e.marshalCustom(c, u)
			return id, true, err
		case encoding.TextMarshaler:
			id, err := e.marshalText(c, u)
			return id, true, err
		}
	}
	return ast.None, false, nil
}

// isEmptyValue reports whether the value v is empty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func (e *encodeState) marshalValue(v reflect.Value) (ast.NodeID, error) { //nolint:gocyclo,funlen
	e.depth--
	if e.depth <= 0 {
		return ast.None, fmt.Errorf("ryaml: reached max recursion depth")
	}
	defer func() { e.depth++ }()

	// Handle nil interfaces explicitly to avoid panics.
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
		return e.null(), nil
	}

	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case Map:
			return e.marshalMap(x)
		case *Document:
			if x == nil {
				return e.null(), nil
			}
			return e.marshalValue(reflect.ValueOf(x.Value()))
		}
		if id, ok, err := e.custom(v); ok {
			return id, err
		}
	}

	// Follow pointers and interfaces to find the concrete value.
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return e.null(), nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return e.scalar(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.scalar(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		val := v.Uint()
		if val > math.MaxInt64 {
			return ast.None, fmt.Errorf("ryaml: cannot marshal uint64 %d (overflows int64)", val)
		}
		return e.scalar(int64(val)), nil
	case reflect.Float32:
		// Go through the shortest float32 text so that 0.1 stays 0.1.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(v.Float(), 'g', -1, 32), 64)
		return e.scalar(f), nil
	case reflect.Float64:
		return e.scalar(v.Float()), nil
	case reflect.Bool:
		return e.scalar(v.Bool()), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return e.null(), nil
		}
		seq := e.fresh(ast.Node{Kind: ast.Sequence})
		for i := 0; i < v.Len(); i++ {
			item, err := e.marshalValue(v.Index(i))
			if err != nil {
				return ast.None, err
			}
			e.tree.AppendItem(seq, item)
		}
		return seq, nil
	case reflect.Map:
		if v.IsNil() {
			return e.null(), nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return ast.None, fmt.Errorf("ryaml: map key type must be a string, got %s", v.Type().Key())
		}
		// Go maps have no order; sort the keys so output is stable.
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			switch {
			case a.String() < b.String():
				return -1
			case a.String() > b.String():
				return 1
			}
			return 0
		})
		m := e.fresh(ast.Node{Kind: ast.Mapping})
		for _, key := range keys {
			value, err := e.marshalValue(v.MapIndex(key))
			if err != nil {
				return ast.None, err
			}
			e.tree.AddEntry(m, key.String(), value)
		}
		return m, nil
	case reflect.Struct:
		m := e.fresh(ast.Node{Kind: ast.Mapping})
		for _, f := range mapper.CachedFields(v.Type()).List {
			fieldValue, err := v.FieldByIndexErr(f.Index)
			if err != nil {
				continue
			}
			if f.OmitEmpty && isEmptyValue(fieldValue) {
				continue
			}
			value, err := e.marshalValue(fieldValue)
			if err != nil {
				return ast.None, err
			}
			e.tree.AddEntry(m, f.Name, value)
		}
		return m, nil
	}
	return ast.None, fmt.Errorf("ryaml: unsupported type for marshaling: %s", v.Type())
}

func (e *encodeState) marshalMap(x Map) (ast.NodeID, error) {
	if x == nil {
		return e.null(), nil
	}
	m := e.fresh(ast.Node{Kind: ast.Mapping})
	seen := make(map[string]struct{}, len(x))
	for _, item := range x {
		if _, dup := seen[item.Key]; dup {
			return ast.None, &CorruptedError{Key: item.Key}
		}
		seen[item.Key] = struct{}{}
		value, err := e.marshalValue(reflect.ValueOf(item.Value))
		if err != nil {
			return ast.None, err
		}
		e.tree.AddEntry(m, item.Key, value)
	}
	return m, nil
}
