package ryaml

import (
	"fmt"
	"reflect"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/KimNorgaard/go-ryaml/internal/formatter"
	"github.com/KimNorgaard/go-ryaml/internal/parser"
	"github.com/KimNorgaard/go-ryaml/internal/textenc"
)

// Parse decodes data and returns its plain value: a Map, a []any, a
// string, int64, float64, bool or nil. An empty document is an empty Map.
//
// path only names the source in errors. The error, if any, is an
// *EncodingError, a *CorruptedError or a *SyntaxError.
func Parse(data []byte, path string, opts ...Option) (any, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	tree, err := load(data, path, o)
	if err != nil {
		return nil, err
	}
	return project(tree, tree.Root), nil
}

// ParseForUpdate decodes data into a Document that can be changed and
// written back with its formatting intact.
func ParseForUpdate(data []byte, path string, opts ...Option) (*Document, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parseForUpdate(data, path, o)
}

func parseForUpdate(data []byte, path string, o *options) (*Document, error) {
	tree, err := load(data, path, o)
	if err != nil {
		return nil, err
	}
	return &Document{tree: tree, path: path, opts: o}, nil
}

// load runs the decoder and the parser over data.
func load(data []byte, path string, o *options) (*ast.Tree, error) {
	text, err := textenc.Decode(data, o.encoding)
	if err != nil {
		return nil, encodingError(err, data, path)
	}
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, parseError(err, path)
	}
	return tree, nil
}

// Unmarshal parses data and stores the result in the value pointed to by v.
//
// Mappings are decoded into structs, using the `yaml` field tag or the field
// name, or into maps with string keys. Into an empty interface, a mapping is
// stored as a Map.
func Unmarshal(data []byte, v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	tree, err := load(data, "", o)
	if err != nil {
		return err
	}
	ds := &decodeState{tree: tree, depth: o.maxDepth}
	return ds.decode(v)
}

// Marshal returns the text of v, encoded in the configured encoding.
//
// Maps with string keys are written with their keys sorted; use Map to
// control the order. Long strings are never wrapped.
func Marshal(v any, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	text, err := marshal(v, o)
	if err != nil {
		return nil, err
	}
	return encodeText(text, o)
}

func encodeText(text string, o *options) ([]byte, error) {
	out, err := textenc.Encode(text, o.encoding)
	if err != nil {
		return nil, fmt.Errorf("ryaml: %w", err)
	}
	return out, nil
}

// MarshalString returns the text of v.
func MarshalString(v any, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}
	return marshal(v, o)
}

func marshal(v any, o *options) (string, error) {
	tree := ast.New("")
	es := &encodeState{tree: tree, depth: o.maxDepth}
	root, err := es.marshalValue(reflect.ValueOf(v))
	if err != nil {
		return "", err
	}
	tree.Root = root
	return formatter.Format(tree, o.indent), nil
}
