// Package ast holds the syntax tree shared by the read-only and the
// format-preserving views of a document.
//
// Nodes live in an arena owned by a Tree and are addressed by NodeID.
// Parsed nodes keep the byte span they were read from so that untouched
// regions can be written back verbatim; nodes created by mutation are
// marked Fresh and are always rendered from their value.
package ast

// NodeID addresses a node in a Tree.
type NodeID int

// None is the NodeID of a missing node.
const None NodeID = -1

// Kind is the variant of a node.
type Kind uint8

const (
	Null Kind = iota
	Scalar
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	}
	return "unknown"
}

// Style is the presentation a node was written in.
type Style uint8

const (
	// Block is used for indented collections. It is the zero Style, so
	// fresh nodes render as block collections and auto-quoted scalars.
	Block Style = iota
	Flow
	Plain
	SingleQuoted
	DoubleQuoted
	Literal
	Folded
)

func (s Style) String() string {
	switch s {
	case Block:
		return "block"
	case Flow:
		return "flow"
	case Plain:
		return "plain"
	case SingleQuoted:
		return "single-quoted"
	case DoubleQuoted:
		return "double-quoted"
	case Literal:
		return "literal"
	case Folded:
		return "folded"
	}
	return "unknown"
}

// Span is a half-open byte range [Start, End) of the source.
type Span struct {
	Start int
	End   int
}

// Node is a single value in the tree.
type Node struct {
	Kind  Kind
	Style Style
	Tag   string

	// Value holds the resolved scalar: string, int64, float64 or bool.
	Value any

	Entries []Entry // Mapping
	Items   []Item  // Sequence

	// Span covers the node's own text. For block collections it runs from
	// the start of the first entry to the end of the last one.
	Span Span

	// Indent is the 0-based column of a block collection's keys or dashes.
	Indent int
	// Compact is set for block collections that begin mid-line, after the
	// "- " of their parent sequence item.
	Compact bool

	Parent NodeID
	Fresh  bool
	Dirty  bool
}

// Entry is a key/value pair of a mapping.
//
// Span covers the entry from the first comment or blank line preceding it
// through the line break that ends its value. ColonEnd is the offset just
// past the ':' indicator. Suffix covers the text between the value (or the
// ':' when the value is on later lines) and the end of that line, which is
// where a line comment lives. Orig is the value the entry was parsed
// with; it differs from Value once the value has been replaced.
type Entry struct {
	Key      string
	Value    NodeID
	Orig     NodeID
	Span     Span
	KeyLine  int
	ColonEnd int
	Suffix   Span
	Fresh    bool
}

// Item is an element of a sequence. DashEnd is the offset just past the '-'
// indicator of block sequence items.
type Item struct {
	Value   NodeID
	Orig    NodeID
	Span    Span
	DashEnd int
	Suffix  Span
	Fresh   bool
}

// Tree is a parsed or constructed document.
type Tree struct {
	Src   string
	Nodes []Node
	Root  NodeID

	// Head and Tail hold the text before and after the root node: the
	// document start marker, leading comments and trailing comments.
	Head Span
	Tail Span
}

// New returns an empty tree over src.
func New(src string) *Tree {
	return &Tree{Src: src, Root: None}
}

// Add appends n to the arena and returns its id.
func (t *Tree) Add(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}

// Node returns the node with the given id. The pointer is invalidated by
// the next call to Add.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Text returns the source text covered by s.
func (t *Tree) Text(s Span) string {
	return t.Src[s.Start:s.End]
}

// Clean reports whether the node can be written back verbatim.
func (t *Tree) Clean(id NodeID) bool {
	n := t.Node(id)
	return !n.Fresh && !n.Dirty
}

// MarkDirty flags id and all of its ancestors as modified.
func (t *Tree) MarkDirty(id NodeID) {
	for id != None {
		n := t.Node(id)
		n.Dirty = true
		id = n.Parent
	}
}

// Lookup returns the index of key in the mapping id, or -1.
func (t *Tree) Lookup(id NodeID, key string) int {
	for i, e := range t.Node(id).Entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// IsEmptyCollection reports whether id is a mapping or sequence without
// entries.
func (t *Tree) IsEmptyCollection(id NodeID) bool {
	n := t.Node(id)
	switch n.Kind {
	case Mapping:
		return len(n.Entries) == 0
	case Sequence:
		return len(n.Items) == 0
	}
	return false
}

// SetEntryValue replaces the value of entry i of mapping id.
func (t *Tree) SetEntryValue(id NodeID, i int, value NodeID) {
	t.Node(value).Parent = id
	t.Node(id).Entries[i].Value = value
	t.MarkDirty(id)
}

// AddEntry appends a new entry to mapping id.
func (t *Tree) AddEntry(id NodeID, key string, value NodeID) {
	t.Node(value).Parent = id
	n := t.Node(id)
	n.Entries = append(n.Entries, Entry{Key: key, Value: value, Orig: None, Fresh: true})
	t.MarkDirty(id)
}

// DeleteEntry removes entry i of mapping id, together with the comments
// that precede it.
func (t *Tree) DeleteEntry(id NodeID, i int) {
	n := t.Node(id)
	n.Entries = append(n.Entries[:i:i], n.Entries[i+1:]...)
	t.MarkDirty(id)
}

// SetItemValue replaces the value of item i of sequence id.
func (t *Tree) SetItemValue(id NodeID, i int, value NodeID) {
	t.Node(value).Parent = id
	t.Node(id).Items[i].Value = value
	t.MarkDirty(id)
}

// AppendItem appends a new item to sequence id.
func (t *Tree) AppendItem(id NodeID, value NodeID) {
	t.Node(value).Parent = id
	n := t.Node(id)
	n.Items = append(n.Items, Item{Value: value, Orig: None, Fresh: true})
	t.MarkDirty(id)
}

// DeleteItem removes item i of sequence id.
func (t *Tree) DeleteItem(id NodeID, i int) {
	n := t.Node(id)
	n.Items = append(n.Items[:i:i], n.Items[i+1:]...)
	t.MarkDirty(id)
}
