package formatter

import (
	"strings"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
)

const (
	defaultIndent = 2

	// Block sequence items are always indented by the width of "- ".
	itemIndent = 2
)

// Formatter writes a tree as text.
//
// Parts of the tree that were parsed and left untouched are copied from the
// source verbatim. Everything else is rendered: mappings in block style with
// one entry per line, sequences with their dashes at the indentation of the
// owning key, and scalars on a single line, whatever their length.
type Formatter struct {
	tree *ast.Tree
	buf  strings.Builder
	step int
	nl   string
}

// New returns a new formatter for tree. Nested mappings are indented by
// indentSpaces; when it is not positive the default of 2 is used.
func New(tree *ast.Tree, indentSpaces int) *Formatter {
	if indentSpaces <= 0 {
		indentSpaces = defaultIndent
	}
	return &Formatter{tree: tree, step: indentSpaces, nl: lineBreak(tree.Src)}
}

// lineBreak returns the line break used by src: "\r\n" when its first line
// ends that way, "\n" otherwise.
func lineBreak(src string) string {
	if i := strings.IndexByte(src, '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// Format renders tree with the given indentation.
func Format(tree *ast.Tree, indentSpaces int) string {
	return New(tree, indentSpaces).Format()
}

// Format renders the document.
func (f *Formatter) Format() string {
	t := f.tree
	f.buf.Reset()
	f.buf.WriteString(t.Text(t.Head))

	n := t.Node(t.Root)
	tail := t.Text(t.Tail)
	if n.Fresh {
		// A replaced root ends with its own line break.
		tail = strings.TrimPrefix(strings.TrimPrefix(tail, "\r"), "\n")
	}
	switch {
	case t.Clean(t.Root):
		f.buf.WriteString(t.Text(n.Span))
	case f.isBlock(t.Root):
		f.writeCollection(t.Root, n.Indent, false)
	case n.Fresh:
		f.ensureNewline()
		f.writeInline(t.Root)
		f.buf.WriteString(f.nl)
	case n.Style == ast.Block && n.Kind == ast.Mapping:
		// All entries were deleted; only the comments around them remain.
	case n.Style == ast.Block:
		f.ensureNewline()
		f.buf.WriteString("[]" + f.nl)
	default:
		f.writeInline(t.Root)
	}

	f.buf.WriteString(tail)
	return f.buf.String()
}

// slot is an entry or an item.
type slot struct {
	key    string
	item   bool
	fresh  bool
	value  ast.NodeID
	orig   ast.NodeID
	span   ast.Span
	indEnd int
	suffix ast.Span
}

func entrySlot(e ast.Entry) slot {
	return slot{key: e.Key, fresh: e.Fresh, value: e.Value, orig: e.Orig, span: e.Span, indEnd: e.ColonEnd, suffix: e.Suffix}
}

func itemSlot(it ast.Item) slot {
	return slot{item: true, fresh: it.Fresh, value: it.Value, orig: it.Orig, span: it.Span, indEnd: it.DashEnd, suffix: it.Suffix}
}

// writeCollection writes the entries of a block collection whose keys or
// dashes sit at column indent. A compact collection continues the line of
// its parent's "- ", so its first entry is not indented.
func (f *Formatter) writeCollection(id ast.NodeID, indent int, compact bool) {
	n := f.tree.Node(id)
	lead := compact
	switch n.Kind {
	case ast.Mapping:
		for _, e := range n.Entries {
			f.writeSlot(entrySlot(e), indent, lead)
			lead = false
		}
	case ast.Sequence:
		for _, it := range n.Items {
			f.writeSlot(itemSlot(it), indent, lead)
			lead = false
		}
	}
}

func (f *Formatter) writeSlot(s slot, indent int, lead bool) {
	t := f.tree
	if s.fresh {
		if !lead {
			f.ensureNewline()
			f.writeIndent(indent)
		}
		if s.item {
			f.buf.WriteByte('-')
		} else {
			f.buf.WriteString(quoteKey(s.key))
			f.buf.WriteByte(':')
		}
		f.writeValue(s, indent, "")
		return
	}

	if t.Clean(s.value) {
		f.writeSource(s.span.Start, s.span.End, lead)
		return
	}

	v := t.Node(s.value)
	switch {
	case s.value != s.orig || t.IsEmptyCollection(s.value):
		f.replace(s, indent, lead)
	case f.isBlock(s.value):
		f.writeSource(s.span.Start, v.Span.Start, lead)
		f.writeCollection(s.value, v.Indent, v.Compact)
		f.buf.WriteString(t.Src[v.Span.End:s.span.End])
	default:
		f.writeSource(s.span.Start, v.Span.Start, lead)
		f.writeInline(s.value)
		f.buf.WriteString(t.Src[v.Span.End:s.span.End])
	}
}

// replace writes a parsed entry or item whose value was replaced. The text
// before the value is kept, and so is the line comment after it.
func (f *Formatter) replace(s slot, indent int, lead bool) {
	t := f.tree
	src := t.Src
	old := t.Node(s.orig)

	if f.inlineSource(s.orig) && f.renderedInline(s.value) {
		f.writeSource(s.span.Start, old.Span.Start, lead)
		f.writeInline(s.value)
		f.buf.WriteString(src[old.Span.End:s.span.End])
		return
	}

	f.writeSource(s.span.Start, s.indEnd, lead)
	comment := strings.TrimSpace(src[s.suffix.Start:s.suffix.End])
	f.writeValue(s, indent, comment)
}

// writeValue writes the value of a slot whose key or dash has just been
// written, followed by the line comment, if any.
func (f *Formatter) writeValue(s slot, indent int, comment string) {
	if f.renderedInline(s.value) {
		f.buf.WriteByte(' ')
		f.writeInline(s.value)
		f.writeComment(comment)
		f.buf.WriteString(f.nl)
		return
	}

	v := f.tree.Node(s.value)
	switch {
	case s.item && comment == "":
		f.buf.WriteByte(' ')
		f.writeCollection(s.value, indent+itemIndent, true)
	case s.item:
		f.writeComment(comment)
		f.buf.WriteString(f.nl)
		f.writeCollection(s.value, indent+itemIndent, false)
	case v.Kind == ast.Sequence:
		f.writeComment(comment)
		f.buf.WriteString(f.nl)
		f.writeCollection(s.value, indent, false)
	default:
		f.writeComment(comment)
		f.buf.WriteString(f.nl)
		f.writeCollection(s.value, indent+f.step, false)
	}
}

// writeInline writes a scalar or a collection in flow style. Untouched
// parsed nodes are copied from the source.
func (f *Formatter) writeInline(id ast.NodeID) {
	t := f.tree
	n := t.Node(id)
	if t.Clean(id) {
		f.buf.WriteString(t.Text(n.Span))
		return
	}

	switch n.Kind {
	case ast.Null:
		f.buf.WriteString("null")
	case ast.Scalar:
		f.buf.WriteString(formatScalar(n.Value))
	case ast.Mapping:
		f.buf.WriteByte('{')
		for i, e := range n.Entries {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			if !e.Fresh && e.Value == e.Orig && t.Clean(e.Value) {
				f.buf.WriteString(t.Text(e.Span))
				continue
			}
			f.buf.WriteString(quoteKey(e.Key))
			f.buf.WriteString(": ")
			f.writeInline(e.Value)
		}
		f.buf.WriteByte('}')
	case ast.Sequence:
		f.buf.WriteByte('[')
		for i, it := range n.Items {
			if i > 0 {
				f.buf.WriteString(", ")
			}
			f.writeInline(it.Value)
		}
		f.buf.WriteByte(']')
	}
}

// isBlock reports whether id is a non-empty collection written in block
// style.
func (f *Formatter) isBlock(id ast.NodeID) bool {
	n := f.tree.Node(id)
	return n.Style == ast.Block && (n.Kind == ast.Mapping || n.Kind == ast.Sequence) && !f.tree.IsEmptyCollection(id)
}

// renderedInline reports whether id is written on the line of its key or
// dash.
func (f *Formatter) renderedInline(id ast.NodeID) bool {
	return !f.isBlock(id)
}

// inlineSource reports whether the parsed node id occupied a range of its
// own line, so that a new inline value can take its place.
func (f *Formatter) inlineSource(id ast.NodeID) bool {
	n := f.tree.Node(id)
	if n.Fresh || n.Span.Start == n.Span.End {
		return false
	}
	switch n.Kind {
	case ast.Mapping, ast.Sequence:
		return n.Style == ast.Flow
	}
	return n.Style != ast.Literal && n.Style != ast.Folded
}

// writeSource copies src[start:end]. When the text continues a line that
// was already started it is stripped of its indentation.
func (f *Formatter) writeSource(start, end int, lead bool) {
	text := f.tree.Src[start:end]
	if lead {
		text = strings.TrimLeft(text, " ")
	}
	f.buf.WriteString(text)
}

func (f *Formatter) writeComment(comment string) {
	if comment != "" {
		f.buf.WriteByte(' ')
		f.buf.WriteString(comment)
	}
}

func (f *Formatter) writeIndent(n int) {
	for i := 0; i < n; i++ {
		f.buf.WriteByte(' ')
	}
}

// ensureNewline terminates the last line written, if there is one.
func (f *Formatter) ensureNewline() {
	s := f.buf.String()
	if s != "" && s[len(s)-1] != '\n' {
		f.buf.WriteString(f.nl)
	}
}
