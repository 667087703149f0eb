package ryaml

import "github.com/KimNorgaard/go-ryaml/internal/ast"

// Map is a mapping that keeps its keys in order. Parsed mappings hold their
// keys in source order, and Marshal writes them in slice order.
type Map []MapItem

// MapItem is a single key/value pair of a Map.
type MapItem struct {
	Key   string
	Value any
}

// Get returns the value stored under key.
func (m Map) Get(key string) (any, bool) {
	for _, item := range m {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys of m in order.
func (m Map) Keys() []string {
	keys := make([]string, len(m))
	for i, item := range m {
		keys[i] = item.Key
	}
	return keys
}

// project returns the plain value of node id: a Map, a []any, a string,
// int64, float64, bool or nil.
func project(t *ast.Tree, id ast.NodeID) any {
	n := t.Node(id)
	switch n.Kind {
	case ast.Scalar:
		return n.Value
	case ast.Mapping:
		m := make(Map, len(n.Entries))
		for i, e := range n.Entries {
			m[i] = MapItem{Key: e.Key, Value: project(t, e.Value)}
		}
		return m
	case ast.Sequence:
		items := make([]any, len(n.Items))
		for i, it := range n.Items {
			items[i] = project(t, it.Value)
		}
		return items
	}
	return nil
}
