/*
Package ryaml reads and writes a YAML-like text format: block and flow
mappings and sequences of string, integer, float, boolean and null scalars,
with comments.

The package offers two workflows depending on the use case:

1. Reading and Writing Plain Values

Parse and ReadFile return the plain value of a document. Mappings become a
Map, which keeps the keys in source order, sequences become []any, and
scalars become string, int64, float64, bool or nil. Marshal and WriteFile
go the other way, and Unmarshal decodes into Go structs, maps and slices.

	var cfg struct {
		Name    string  `yaml:"name"`
		Version float64 `yaml:"version"`
	}
	if err := ryaml.Unmarshal([]byte("name: demo\nversion: 1.5\n"), &cfg); err != nil {
		// handle error
	}

2. Editing in Place

ParseForUpdate returns a Document. Its mappings and sequences can be
changed through handles, and writing it back reproduces every byte of the
source that was not changed: comments, blank lines, quoting and key order.
Modify wraps this in a read, change, write session on a file:

	err := ryaml.Modify("params.yaml", func(doc *ryaml.Document) error {
		root, err := doc.Root()
		if err != nil {
			return err
		}
		return root.Set("lr", 0.01)
	})

If fn returns an error, the file is left as it was.

Documents are checked strictly. Bytes that are not valid in the declared
encoding yield an *EncodingError, a key defined twice in one mapping a
*CorruptedError, and anything else that cannot be parsed a *SyntaxError.
Anchors, aliases, custom tags and multi-document streams are rejected.
*/
package ryaml
