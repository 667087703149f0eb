package ryaml

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/KimNorgaard/go-ryaml/internal/formatter"
)

// A Document is a parsed document that can be changed in place.
//
// Writing a Document back reproduces its source byte for byte, except for
// the entries that were set, added or deleted. Comments, blank lines, key
// order and the style of untouched values are kept. A Document is not safe
// for concurrent use.
type Document struct {
	tree *ast.Tree
	path string
	opts *options
}

// Path returns the path the document was read from.
func (d *Document) Path() string { return d.path }

// Value returns the plain value of the document, as Parse would.
func (d *Document) Value() any {
	return project(d.tree, d.tree.Root)
}

// String returns the text of the document.
func (d *Document) String() string {
	return formatter.Format(d.tree, d.opts.indent)
}

// Bytes returns the text of the document in its encoding.
func (d *Document) Bytes() ([]byte, error) {
	return encodeText(d.String(), d.opts)
}

// Root returns the top-level mapping. An empty document has an empty root
// mapping.
func (d *Document) Root() (*Mapping, error) {
	if k := d.tree.Node(d.tree.Root).Kind; k != ast.Mapping {
		return nil, fmt.Errorf("ryaml: document root is a %s, not a mapping", k)
	}
	return &Mapping{doc: d, id: d.tree.Root}, nil
}

// RootSequence returns the top-level sequence.
func (d *Document) RootSequence() (*Sequence, error) {
	if k := d.tree.Node(d.tree.Root).Kind; k != ast.Sequence {
		return nil, fmt.Errorf("ryaml: document root is a %s, not a sequence", k)
	}
	return &Sequence{doc: d, id: d.tree.Root}, nil
}

// SetRoot replaces the whole content of the document with v. Comments
// before and after the old content are kept.
func (d *Document) SetRoot(v any) error {
	id, err := d.build(v)
	if err != nil {
		return err
	}
	d.tree.Root = id
	return nil
}

// Lookup follows path from the root and returns the plain value found
// there. Elements of a sequence are addressed by their decimal index.
func (d *Document) Lookup(path ...string) (any, bool) {
	id, ok := d.find(path)
	if !ok {
		return nil, false
	}
	return project(d.tree, id), true
}

func (d *Document) find(path []string) (ast.NodeID, bool) {
	t := d.tree
	id := t.Root
	for _, key := range path {
		n := t.Node(id)
		switch n.Kind {
		case ast.Mapping:
			i := t.Lookup(id, key)
			if i < 0 {
				return ast.None, false
			}
			id = n.Entries[i].Value
		case ast.Sequence:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(n.Items) {
				return ast.None, false
			}
			id = n.Items[i].Value
		default:
			return ast.None, false
		}
	}
	return id, true
}

// build adds fresh nodes for v to the tree.
func (d *Document) build(v any) (ast.NodeID, error) {
	es := &encodeState{tree: d.tree, depth: d.opts.maxDepth}
	return es.marshalValue(reflect.ValueOf(v))
}

// same reports whether the fresh node id has the plain value of old, in
// which case old is kept as written.
func (d *Document) same(old, id ast.NodeID) bool {
	return reflect.DeepEqual(project(d.tree, old), project(d.tree, id))
}

// A Mapping is a handle on a mapping of a Document. Changes made through it
// are written when the document is.
type Mapping struct {
	doc *Document
	id  ast.NodeID
}

func (m *Mapping) node() *ast.Node { return m.doc.tree.Node(m.id) }

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.node().Entries) }

// Keys returns the keys in order: source order first, then the order in
// which keys were added.
func (m *Mapping) Keys() []string {
	entries := m.node().Entries
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	return m.doc.tree.Lookup(m.id, key) >= 0
}

// Get returns the plain value stored under key.
func (m *Mapping) Get(key string) (any, bool) {
	i := m.doc.tree.Lookup(m.id, key)
	if i < 0 {
		return nil, false
	}
	return project(m.doc.tree, m.node().Entries[i].Value), true
}

// Set stores v under key. An existing entry keeps its place and its line
// comment; a new one is appended after the last entry. Setting a value
// equal to the current one leaves the entry untouched.
func (m *Mapping) Set(key string, v any) error {
	t := m.doc.tree
	id, err := m.doc.build(v)
	if err != nil {
		return err
	}
	i := t.Lookup(m.id, key)
	if i < 0 {
		t.AddEntry(m.id, key, id)
		return nil
	}
	if m.doc.same(m.node().Entries[i].Value, id) {
		return nil
	}
	t.SetEntryValue(m.id, i, id)
	return nil
}

// Delete removes key and the comment lines directly above it. It reports
// whether the key was present.
func (m *Mapping) Delete(key string) bool {
	i := m.doc.tree.Lookup(m.id, key)
	if i < 0 {
		return false
	}
	m.doc.tree.DeleteEntry(m.id, i)
	return true
}

// Mapping returns a handle on the mapping stored under key.
func (m *Mapping) Mapping(key string) (*Mapping, error) {
	id, err := m.child(key, ast.Mapping)
	if err != nil {
		return nil, err
	}
	return &Mapping{doc: m.doc, id: id}, nil
}

// Sequence returns a handle on the sequence stored under key.
func (m *Mapping) Sequence(key string) (*Sequence, error) {
	id, err := m.child(key, ast.Sequence)
	if err != nil {
		return nil, err
	}
	return &Sequence{doc: m.doc, id: id}, nil
}

func (m *Mapping) child(key string, kind ast.Kind) (ast.NodeID, error) {
	i := m.doc.tree.Lookup(m.id, key)
	if i < 0 {
		return ast.None, fmt.Errorf("ryaml: key %q not found", key)
	}
	id := m.node().Entries[i].Value
	if k := m.doc.tree.Node(id).Kind; k != kind {
		return ast.None, fmt.Errorf("ryaml: value of %q is a %s, not a %s", key, k, kind)
	}
	return id, nil
}

// A Sequence is a handle on a sequence of a Document.
type Sequence struct {
	doc *Document
	id  ast.NodeID
}

func (s *Sequence) node() *ast.Node { return s.doc.tree.Node(s.id) }

// Len returns the number of items.
func (s *Sequence) Len() int { return len(s.node().Items) }

// Get returns the plain value of item i.
func (s *Sequence) Get(i int) (any, bool) {
	items := s.node().Items
	if i < 0 || i >= len(items) {
		return nil, false
	}
	return project(s.doc.tree, items[i].Value), true
}

// Set replaces item i with v.
func (s *Sequence) Set(i int, v any) error {
	if err := s.check(i); err != nil {
		return err
	}
	id, err := s.doc.build(v)
	if err != nil {
		return err
	}
	if s.doc.same(s.node().Items[i].Value, id) {
		return nil
	}
	s.doc.tree.SetItemValue(s.id, i, id)
	return nil
}

// Append adds v after the last item.
func (s *Sequence) Append(v any) error {
	id, err := s.doc.build(v)
	if err != nil {
		return err
	}
	s.doc.tree.AppendItem(s.id, id)
	return nil
}

// Delete removes item i.
func (s *Sequence) Delete(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.doc.tree.DeleteItem(s.id, i)
	return nil
}

// Mapping returns a handle on the mapping at index i.
func (s *Sequence) Mapping(i int) (*Mapping, error) {
	id, err := s.child(i, ast.Mapping)
	if err != nil {
		return nil, err
	}
	return &Mapping{doc: s.doc, id: id}, nil
}

// Sequence returns a handle on the sequence at index i.
func (s *Sequence) Sequence(i int) (*Sequence, error) {
	id, err := s.child(i, ast.Sequence)
	if err != nil {
		return nil, err
	}
	return &Sequence{doc: s.doc, id: id}, nil
}

func (s *Sequence) check(i int) error {
	if n := s.Len(); i < 0 || i >= n {
		return fmt.Errorf("ryaml: index %d out of range [0:%d]", i, n)
	}
	return nil
}

func (s *Sequence) child(i int, kind ast.Kind) (ast.NodeID, error) {
	if err := s.check(i); err != nil {
		return ast.None, err
	}
	id := s.node().Items[i].Value
	if k := s.doc.tree.Node(id).Kind; k != kind {
		return ast.None, fmt.Errorf("ryaml: item %d is a %s, not a %s", i, k, kind)
	}
	return id, nil
}
