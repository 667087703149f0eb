package ryaml_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KimNorgaard/go-ryaml"
	goyaml "github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"empty", "", ryaml.Map{}},
		{"comment only", "# nothing here\n", ryaml.Map{}},
		{"null", "null", nil},
		{"scalar", "5", int64(5)},
		{"explicit string tag", "key: !!str 123", ryaml.Map{{Key: "key", Value: "123"}}},
		{"literal block", "key: |\n  line1\n  line2\n", ryaml.Map{{Key: "key", Value: "line1\nline2\n"}}},
		{"folded block", "key: >-\n  a\n  b\n", ryaml.Map{{Key: "key", Value: "a b"}}},
		{
			name:  "source order",
			input: "b: 2\na: 1\nc: 3\n",
			expected: ryaml.Map{
				{Key: "b", Value: int64(2)},
				{Key: "a", Value: int64(1)},
				{Key: "c", Value: int64(3)},
			},
		},
		{
			name:  "nested",
			input: "a:\n- 1\n- x: y\nb: {c: [true, ~]}\n",
			expected: ryaml.Map{
				{Key: "a", Value: []any{int64(1), ryaml.Map{{Key: "x", Value: "y"}}}},
				{Key: "b", Value: ryaml.Map{{Key: "c", Value: []any{true, nil}}}},
			},
		},
		{"flow sequence root", "[1, 2.5, 'three']", []any{int64(1), 2.5, "three"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ryaml.Parse([]byte(tt.input), "dummy")
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, v); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDuplicateKey(t *testing.T) {
	text := "    mykey:\n    - foo\n    mykey:\n    - bar\n    "

	_, err := ryaml.Parse([]byte(text), "mypath")
	require.ErrorIs(t, err, ryaml.ErrCorrupted)

	var cerr *ryaml.CorruptedError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "mypath", cerr.Path)
	require.Equal(t, "mykey", cerr.Key)
	require.Equal(t, 3, cerr.Line)
	require.Equal(t, 5, cerr.Column)
	require.Equal(t, 1, cerr.FirstLine)
	require.Equal(t, `ryaml: mypath:3:5: duplicate key "mykey" (first defined on line 1)`, err.Error())

	_, err = ryaml.ParseForUpdate([]byte(text), "mypath")
	require.ErrorIs(t, err, ryaml.ErrCorrupted)
}

func TestParseInvalidEncoding(t *testing.T) {
	_, err := ryaml.Parse([]byte("a: 1\n\x80some: stuff"), "invalid.yaml")
	require.ErrorIs(t, err, ryaml.ErrEncoding)

	var eerr *ryaml.EncodingError
	require.True(t, errors.As(err, &eerr))
	require.Equal(t, "invalid.yaml", eerr.Path)
	require.Equal(t, "utf-8", eerr.Encoding)
	require.Equal(t, 5, eerr.Offset)
	require.Equal(t, 2, eerr.Line)
	require.Equal(t, 1, eerr.Column)
	require.Equal(t, []byte{0x80}, eerr.Bytes)
	require.Equal(t, `ryaml: invalid.yaml:2:1: invalid utf-8 byte sequence "\x80"`, err.Error())

	_, err = ryaml.ParseForUpdate([]byte("\x80"), "invalid.yaml")
	require.ErrorIs(t, err, ryaml.ErrEncoding)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"key: value: another", "ryaml: f.yaml:1:11: mapping values are not allowed here"},
		{"a: 'x", "ryaml: f.yaml:1:4: unterminated single-quoted scalar"},
		{"a: [1, 2", "ryaml: f.yaml:1:9: unexpected end of input in flow sequence"},
		{"a: 1\n---\nb: 2\n", "ryaml: f.yaml:2:1: multiple documents are not supported"},
		{"a: !!int abc", `ryaml: f.yaml:1:4: invalid value "abc" for tag !!int`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ryaml.Parse([]byte(tt.input), "f.yaml")
			require.Nil(t, v)
			require.ErrorIs(t, err, ryaml.ErrSyntax)
			require.NotErrorIs(t, err, ryaml.ErrCorrupted)
			require.EqualError(t, err, tt.expected)
		})
	}
}

func TestParseLatin1(t *testing.T) {
	v, err := ryaml.Parse([]byte("name: caf\xe9\n"), "", ryaml.Encoding("ISO-8859-1"))
	require.NoError(t, err)
	require.Equal(t, ryaml.Map{{Key: "name", Value: "café"}}, v)

	b, err := ryaml.Marshal(v, ryaml.Encoding("ISO-8859-1"))
	require.NoError(t, err)
	require.Equal(t, []byte("name: caf\xe9\n"), b)

	_, err = ryaml.Marshal("€", ryaml.Encoding("ISO-8859-1"))
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	_, err := ryaml.Parse(nil, "", ryaml.Encoding("no-such-encoding"))
	require.ErrorContains(t, err, `unknown encoding "no-such-encoding"`)

	_, err = ryaml.Marshal(1, ryaml.Indent(0))
	require.EqualError(t, err, "ryaml: indent must be between 1 and 9, got 0")

	_, err = ryaml.Marshal(1, ryaml.MaxDepth(0))
	require.EqualError(t, err, "ryaml: max depth must be a positive integer")
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, "null\n"},
		{"empty map", map[string]int{}, "{}\n"},
		{"empty ordered map", ryaml.Map{}, "{}\n"},
		{"empty slice", []int{}, "[]\n"},
		{"nil slice", []int(nil), "null\n"},
		{"scalar", 5, "5\n"},
		{"sorted map keys", map[string]int{"b": 2, "a": 1}, "a: 1\nb: 2\n"},
		{
			name: "ordered map",
			value: ryaml.Map{
				{Key: "first", Value: 1},
				{Key: "second", Value: 2},
				{Key: "third", Value: 3},
			},
			expected: "first: 1\nsecond: 2\nthird: 3\n",
		},
		{
			name: "nested",
			value: ryaml.Map{
				{Key: "a", Value: []any{1, 2, 3}},
				{Key: "b", Value: map[string]any{"nested": "value"}},
			},
			expected: "a:\n- 1\n- 2\n- 3\nb:\n  nested: value\n",
		},
		{"float32", float32(0.1), "0.1\n"},
		{"pointer", func() *string { s := "x"; return &s }(), "x\n"},
		{"quoted", ryaml.Map{{Key: "key: x", Value: "#"}}, "'key: x': '#'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ryaml.MarshalString(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.expected, s)
		})
	}
}

func TestMarshalIndent(t *testing.T) {
	v := ryaml.Map{{Key: "a", Value: ryaml.Map{{Key: "b", Value: ryaml.Map{{Key: "c", Value: 1}}}}}}
	s, err := ryaml.MarshalString(v, ryaml.Indent(4))
	require.NoError(t, err)
	require.Equal(t, "a:\n    b:\n        c: 1\n", s)
}

func TestMarshalErrors(t *testing.T) {
	_, err := ryaml.Marshal(map[int]string{1: "a"})
	require.EqualError(t, err, "ryaml: map key type must be a string, got int")

	_, err = ryaml.Marshal(uint64(math.MaxUint64))
	require.ErrorContains(t, err, "overflows int64")

	_, err = ryaml.Marshal(make(chan int))
	require.EqualError(t, err, "ryaml: unsupported type for marshaling: chan int")
}

func TestMarshalCycle(t *testing.T) {
	type Node struct {
		Next *Node
	}
	var n Node
	n.Next = &n
	_, err := ryaml.Marshal(n)
	require.EqualError(t, err, "ryaml: reached max recursion depth")

	m := make(map[string]any)
	m["self"] = m
	_, err = ryaml.Marshal(m, ryaml.MaxDepth(50))
	require.EqualError(t, err, "ryaml: reached max recursion depth")
}

func TestMarshalLongStringIsNotWrapped(t *testing.T) {
	long := strings.Repeat("a", 500)
	s, err := ryaml.MarshalString(ryaml.Map{{Key: "text", Value: long}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	require.Len(t, lines, 1)
	require.Equal(t, "text: "+long, lines[0])

	long = strings.Repeat("word ", 100) + "end"
	s, err = ryaml.MarshalString(ryaml.Map{{Key: "text", Value: long}})
	require.NoError(t, err)
	require.Equal(t, "text: "+long+"\n", s)
}

func TestRoundTrip(t *testing.T) {
	values := []any{
		ryaml.Map{
			{Key: "bool_true", Value: true},
			{Key: "bool_false", Value: false},
			{Key: "none", Value: nil},
			{Key: "int", Value: int64(42)},
			{Key: "float", Value: 3.14},
		},
		ryaml.Map{
			{Key: "list", Value: []any{
				ryaml.Map{{Key: "key1", Value: "value1"}, {Key: "key2", Value: "value2"}},
				ryaml.Map{{Key: "a", Value: int64(1)}, {Key: "b", Value: int64(2)}},
			}},
			{Key: "number", Value: int64(42)},
			{Key: "string", Value: strings.Repeat("a", 300)},
		},
		ryaml.Map{
			{Key: "strings", Value: []any{"", "123", "true", "null", "~", "a: b", "a #b", "- x", "it's", "line\nbreak", "\ttab", " lead", "trail ", "[x]", "{y}", "@z", "`q`", "%p", "x:"}},
			{Key: "floats", Value: []any{0.0, -1.5, 1e21, 2.0, math.Inf(1), math.Inf(-1)}},
			{Key: "ints", Value: []any{int64(0), int64(-7), int64(math.MaxInt64), int64(math.MinInt64)}},
			{Key: "nested", Value: []any{[]any{}, ryaml.Map{}, []any{[]any{"deep"}}}},
			{Key: "", Value: "empty key"},
			{Key: "multi word key", Value: "v"},
		},
		[]any{ryaml.Map{{Key: "a", Value: nil}}, "x"},
		"plain root",
	}

	for i, v := range values {
		text, err := ryaml.Marshal(v)
		require.NoError(t, err)

		got, err := ryaml.Parse(text, "roundtrip")
		require.NoError(t, err, "value %d:\n%s", i, text)
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("value %d mismatch (-want +got):\n%s\ntext:\n%s", i, diff, text)
		}
	}
}

// TestMarshalIsReadableYAML checks the output against an independent YAML
// implementation.
func TestMarshalIsReadableYAML(t *testing.T) {
	type record struct {
		Name    string   `yaml:"name"`
		Count   int      `yaml:"count"`
		Ratio   float64  `yaml:"ratio"`
		Enabled bool     `yaml:"enabled"`
		Missing *string  `yaml:"missing"`
		Tags    []string `yaml:"tags"`
		Text    string   `yaml:"text"`
	}
	in := record{
		Name:    "it's: tricky #1",
		Count:   42,
		Ratio:   3.0,
		Enabled: true,
		Tags:    []string{"123", "true", "", "- dash", "line\nbreak", "plain"},
		Text:    strings.Repeat("a", 500),
	}

	text, err := ryaml.Marshal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, goyaml.Unmarshal(text, &out), string(text))
	require.Equal(t, in, out)
}

func TestUnmarshalAgreesWithYAML(t *testing.T) {
	src := "# settings\nname: demo\nlimits:\n  cpu: 2\n  mem: 1.5\nitems:\n- a\n- 'b'\n- \"c\\td\"\nnote: |\n  first\n  second\n"

	type config struct {
		Name   string             `yaml:"name"`
		Limits map[string]float64 `yaml:"limits"`
		Items  []string           `yaml:"items"`
		Note   string             `yaml:"note"`
	}

	var ours, theirs config
	require.NoError(t, ryaml.Unmarshal([]byte(src), &ours))
	require.NoError(t, goyaml.Unmarshal([]byte(src), &theirs))
	require.Equal(t, theirs, ours)
}
