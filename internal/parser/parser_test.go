package parser

import (
	"math"
	"testing"

	"github.com/KimNorgaard/go-ryaml/internal/ast"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	tree, err := Parse(src)
	require.NoError(t, err)
	return tree
}

func TestParseSpans(t *testing.T) {
	src := "# head\nb: 2 # two\na:\n  x: 1\n\n  y: [1, 2]\nc: |\n  text\n# tail\n"
	tree := mustParse(t, src)

	require.Equal(t, "# head\n", tree.Text(tree.Head))
	require.Equal(t, "# tail\n", tree.Text(tree.Tail))

	root := tree.Node(tree.Root)
	require.Equal(t, ast.Mapping, root.Kind)
	require.Equal(t, ast.Block, root.Style)
	require.Len(t, root.Entries, 3)

	b := root.Entries[0]
	require.Equal(t, "b", b.Key)
	require.Equal(t, "b: 2 # two\n", tree.Text(b.Span))
	require.Equal(t, " # two", tree.Text(b.Suffix))
	require.Equal(t, "b:", tree.Src[b.Span.Start:b.ColonEnd])
	require.Equal(t, int64(2), tree.Node(b.Value).Value)

	a := root.Entries[1]
	require.Equal(t, "a:\n  x: 1\n\n  y: [1, 2]\n", tree.Text(a.Span))
	require.Equal(t, "", tree.Text(a.Suffix))
	nested := tree.Node(a.Value)
	require.Equal(t, ast.Mapping, nested.Kind)
	require.Equal(t, 2, nested.Indent)
	require.False(t, nested.Compact)
	require.Equal(t, "  x: 1\n", tree.Text(nested.Entries[0].Span))
	require.Equal(t, "\n  y: [1, 2]\n", tree.Text(nested.Entries[1].Span))

	flow := tree.Node(nested.Entries[1].Value)
	require.Equal(t, ast.Flow, flow.Style)
	require.Equal(t, "[1, 2]", tree.Text(flow.Span))
	require.Len(t, flow.Items, 2)
	require.Equal(t, "2", tree.Text(flow.Items[1].Span))

	c := root.Entries[2]
	require.Equal(t, "c: |\n  text\n", tree.Text(c.Span))
	lit := tree.Node(c.Value)
	require.Equal(t, ast.Literal, lit.Style)
	require.Equal(t, "text\n", lit.Value)
	require.Equal(t, "|\n  text", tree.Text(lit.Span))

	for i, n := range tree.Nodes {
		if n.Parent != ast.None {
			require.Less(t, int(n.Parent), i, "parent of node %d must precede it", i)
		}
	}
}

func TestParseCompactCollections(t *testing.T) {
	src := "- a: 1\n  b: 2\n- - x\n  - y\n"
	tree := mustParse(t, src)

	root := tree.Node(tree.Root)
	require.Equal(t, ast.Sequence, root.Kind)
	require.Len(t, root.Items, 2)

	first := root.Items[0]
	require.Equal(t, "- a: 1\n  b: 2\n", tree.Text(first.Span))
	m := tree.Node(first.Value)
	require.Equal(t, ast.Mapping, m.Kind)
	require.True(t, m.Compact)
	require.Equal(t, 2, m.Indent)
	require.Equal(t, "a: 1\n", tree.Text(m.Entries[0].Span))
	require.Equal(t, "  b: 2\n", tree.Text(m.Entries[1].Span))

	second := root.Items[1]
	require.Equal(t, "- - x\n  - y\n", tree.Text(second.Span))
	seq := tree.Node(second.Value)
	require.Equal(t, ast.Sequence, seq.Kind)
	require.True(t, seq.Compact)
	require.Equal(t, "- x\n", tree.Text(seq.Items[0].Span))
	require.Equal(t, "  - y\n", tree.Text(seq.Items[1].Span))
}

func TestParseSequenceUnderKey(t *testing.T) {
	tree := mustParse(t, "list:\n- a\n- b\nnext: 1\n")
	root := tree.Node(tree.Root)
	require.Len(t, root.Entries, 2)

	seq := tree.Node(root.Entries[0].Value)
	require.Equal(t, ast.Sequence, seq.Kind)
	require.Equal(t, 0, seq.Indent)
	require.Len(t, seq.Items, 2)
	require.Equal(t, "list:\n- a\n- b\n", tree.Text(root.Entries[0].Span))
}

func TestParseEmptyValues(t *testing.T) {
	tree := mustParse(t, "a:\nb: # note\nc: 1\n")
	root := tree.Node(tree.Root)

	a := tree.Node(root.Entries[0].Value)
	require.Equal(t, ast.Null, a.Kind)
	require.Equal(t, a.Span.Start, a.Span.End)

	b := root.Entries[1]
	require.Equal(t, ast.Null, tree.Node(b.Value).Kind)
	require.Equal(t, " # note", tree.Text(b.Suffix))
}

func TestParseDocuments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		head string
		tail string
		kind ast.Kind
	}{
		{"empty", "", "", "", ast.Mapping},
		{"comment only", "# only\n", "# only\n", "", ast.Mapping},
		{"markers", "---\na: 1\n...\n", "---\n", "...\n", ast.Mapping},
		{"scalar root", "5\n", "", "\n", ast.Scalar},
		{"null root", "null", "", "", ast.Null},
		{"flow root", "{a: 1}\n", "", "\n", ast.Mapping},
		{"start marker only", "---\n", "---\n", "", ast.Mapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, tt.src)
			require.Equal(t, tt.head, tree.Text(tree.Head))
			require.Equal(t, tt.tail, tree.Text(tree.Tail))
			require.Equal(t, tt.kind, tree.Node(tree.Root).Kind)
		})
	}
}

func TestParseTags(t *testing.T) {
	tree := mustParse(t, "a: !!str 123\nb: !!float 1\nc: '1'\nd: !!bool true\ne: !!null ~\nf: ! 12\n")
	root := tree.Node(tree.Root)

	values := make(map[string]any)
	for _, e := range root.Entries {
		values[e.Key] = tree.Node(e.Value).Value
	}
	require.Equal(t, "123", values["a"])
	require.Equal(t, 1.0, values["b"])
	require.Equal(t, "1", values["c"])
	require.Equal(t, true, values["d"])
	require.Nil(t, values["e"])
	require.Equal(t, "12", values["f"])

	require.Equal(t, "!!str", tree.Node(root.Entries[0].Value).Tag)
	require.Equal(t, "!!str 123", tree.Text(tree.Node(root.Entries[0].Value).Span))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input    string
		kind     ast.Kind
		expected any
	}{
		{"", ast.Null, nil},
		{"~", ast.Null, nil},
		{"NULL", ast.Null, nil},
		{"True", ast.Scalar, true},
		{"false", ast.Scalar, false},
		{"42", ast.Scalar, int64(42)},
		{"+12", ast.Scalar, int64(12)},
		{"-7", ast.Scalar, int64(-7)},
		{"0x1F", ast.Scalar, int64(31)},
		{"0o17", ast.Scalar, int64(15)},
		{"1.5", ast.Scalar, 1.5},
		{".5", ast.Scalar, 0.5},
		{"1.", ast.Scalar, 1.0},
		{"1e3", ast.Scalar, 1000.0},
		{"99999999999999999999", ast.Scalar, 1e20},
		{"-.inf", ast.Scalar, math.Inf(-1)},
		{".", ast.Scalar, "."},
		{"12abc", ast.Scalar, "12abc"},
		{"1_000", ast.Scalar, "1_000"},
		{"yes", ast.Scalar, "yes"},
		{"0x", ast.Scalar, "0x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, v := Resolve(tt.input)
			require.Equal(t, tt.kind, kind)
			require.Equal(t, tt.expected, v)
		})
	}

	_, nan := Resolve(".nan")
	require.True(t, math.IsNaN(nan.(float64)))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		column  int
		message string
	}{
		{"value after value", "key: value: another", 1, 11, "mapping values are not allowed here"},
		{"bad indentation", "a: 1\n  b: 2", 2, 3, "bad indentation of a mapping entry"},
		{"multi-line plain", "a:\n    b\n  c\n", 3, 3, "bad indentation of a multi-line plain scalar"},
		{"multiple documents", "a: 1\n---\nb: 2\n", 2, 1, "multiple documents are not supported"},
		{"unterminated flow", "a: [1, 2", 1, 9, "unexpected end of input in flow sequence"},
		{"invalid tagged value", "a: !!int abc", 1, 4, `invalid value "abc" for tag !!int`},
		{"unsupported tag", "a: !!binary x", 1, 4, "unsupported tag !!binary"},
		{"sequence after key", "a: - b", 1, 4, "block sequence entries are not allowed here"},
		{"sequence in mapping", "a: 1\n- b\n", 2, 1, "block sequence entries are not allowed here"},
		{"lexer error", "a: 'x", 1, 4, "unterminated single-quoted scalar"},
		{"missing dash", "- a\nb: 1\n", 2, 1, "did not find expected '-' indicator"},
		{"missing colon", "a: 1\nb\n", 2, 2, "could not find expected ':'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			perr, ok := err.(*Error)
			require.True(t, ok, "expected *Error, got %T", err)
			require.False(t, perr.Duplicate)
			require.Equal(t, tt.line, perr.Line)
			require.Equal(t, tt.column, perr.Column)
			require.Equal(t, tt.message, perr.Message)
		})
	}
}

func TestParseDuplicateKeys(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		key       string
		line      int
		column    int
		firstLine int
	}{
		{"top level", "a: 1\nb: 2\na: 3\n", "a", 3, 1, 1},
		{"nested", "x:\n  a: 1\n  a: 2\n", "a", 3, 3, 2},
		{"quoted", "\"a\": 1\n'a': 2\n", "a", 2, 1, 1},
		{"flow", "{a: 1, a: 2}", "a", 1, 8, 1},
		{"plain number and quoted string", "1: a\n\"1\": b\n", "1", 2, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			perr, ok := err.(*Error)
			require.True(t, ok, "expected *Error, got %T", err)
			require.True(t, perr.Duplicate)
			require.Equal(t, tt.key, perr.Key)
			require.Equal(t, tt.line, perr.Line)
			require.Equal(t, tt.column, perr.Column)
			require.Equal(t, tt.firstLine, perr.FirstLine)
		})
	}
}

func TestParseSameKeyInSiblings(t *testing.T) {
	mustParse(t, "x:\n  a: 1\ny:\n  a: 2\n")
}

func TestParseNestingLimit(t *testing.T) {
	src := ""
	for i := 0; i < maxNesting+1; i++ {
		src += "["
	}
	_, err := Parse(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "maximum nesting depth exceeded")
}

func TestParseMultiLineScalars(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		key      string
		expected any
		text     string
	}{
		{"plain", "cmd: python train.py\n  --epochs 10\nnext: 1\n", "cmd", "python train.py --epochs 10", "python train.py\n  --epochs 10"},
		{"plain on its own line", "cmd:\n  a\n  b\n\n  c # note\nnext: 1\n", "cmd", "a b\nc", "a\n  b\n\n  c"},
		{"plain in sequence", "- a\n  b\n- c\n", "", "a b", "a\n  b"},
		{"single-quoted", "s: 'one\n  two '\nnext: 1\n", "s", "one two ", "'one\n  two '"},
		{"double-quoted", "s: \"one  \n\n  two\\\n  three\"\nnext: 1\n", "s", "one\ntwothree", "\"one  \n\n  two\\\n  three\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, tt.src)
			root := tree.Node(tree.Root)
			var id ast.NodeID
			if tt.key == "" {
				id = root.Items[0].Value
			} else {
				id = root.Entries[0].Value
				require.Equal(t, tt.key, root.Entries[0].Key)
			}
			require.Equal(t, tt.expected, tree.Node(id).Value)
			require.Equal(t, tt.text, tree.Text(tree.Node(id).Span))
		})
	}

	tree := mustParse(t, "a: b\n  c\nd: 1\n")
	root := tree.Node(tree.Root)
	require.Len(t, root.Entries, 2)
	require.Equal(t, "d", root.Entries[1].Key)
	require.Equal(t, "a: b\n  c\n", tree.Text(root.Entries[0].Span))
}
