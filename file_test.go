package ryaml_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/KimNorgaard/go-ryaml/internal/testutil"
	"github.com/stretchr/testify/require"
)

func set(key string, v any) func(*ryaml.Document) error {
	return func(doc *ryaml.Document) error {
		m, err := doc.Root()
		if err != nil {
			return err
		}
		return m.Set(key, v)
	}
}

func readString(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ordered.yaml")
	data := ryaml.Map{
		{Key: "first", Value: int64(1)},
		{Key: "second", Value: int64(2)},
		{Key: "third", Value: int64(3)},
	}
	require.NoError(t, ryaml.WriteFile(path, data))
	require.Equal(t, "first: 1\nsecond: 2\nthird: 3\n", readString(t, path))

	v, err := ryaml.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, v)

	require.NoError(t, ryaml.WriteFile(path, ryaml.Map{}))
	v, err = ryaml.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, ryaml.Map{}, v)
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ryaml.ReadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "invalid_utf8.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\x80some: stuff"), 0o644))
	_, err = ryaml.ReadFile(path)

	var eerr *ryaml.EncodingError
	require.True(t, errors.As(err, &eerr))
	require.Contains(t, eerr.Path, "invalid_utf8.yaml")
	require.Equal(t, "utf-8", eerr.Encoding)
}

func TestModify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modify.yaml")
	require.NoError(t, ryaml.WriteFile(path, ryaml.Map{{Key: "initial", Value: "data"}}))

	require.NoError(t, ryaml.Modify(path, set("modified", "new_value")))

	require.Equal(t, "initial: data\nmodified: new_value\n", readString(t, path))
	v, err := ryaml.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, ryaml.Map{
		{Key: "initial", Value: "data"},
		{Key: "modified", Value: "new_value"},
	}, v)
}

func TestModifyPreservesFormatting(t *testing.T) {
	path := testutil.CopyToTemp(t, "params.yaml")

	err := ryaml.Modify(path, func(doc *ryaml.Document) error {
		m, err := doc.Root()
		if err != nil {
			return err
		}
		if err := m.Set("epochs", 20); err != nil {
			return err
		}
		model, err := m.Mapping("model")
		if err != nil {
			return err
		}
		return model.Set("dropout", 0.5)
	})
	require.NoError(t, err)

	expected := `# Training parameters
lr: 0.001
epochs: 20   # full pass count
model:
  name: 'resnet'
  layers: [64, 128, 256]
  dropout: 0.5

# Data locations
data:
- path: data/train.csv
  split: 0.8
- path: data/test.csv
  split: 0.2
notes: |
  Tuned on the
  small set.
`
	require.Equal(t, expected, readString(t, path))
}

func TestModifyNestedStages(t *testing.T) {
	path := testutil.CopyToTemp(t, "stages.yaml")

	err := ryaml.Modify(path, func(doc *ryaml.Document) error {
		m, err := doc.Root()
		if err != nil {
			return err
		}
		stages, err := m.Mapping("stages")
		if err != nil {
			return err
		}
		prepare, err := stages.Mapping("prepare")
		if err != nil {
			return err
		}
		deps, err := prepare.Sequence("deps")
		if err != nil {
			return err
		}
		if err := deps.Append("data/extra"); err != nil {
			return err
		}
		stages.Delete("train")
		return nil
	})
	require.NoError(t, err)

	expected := `stages:
  prepare:
    cmd: python prepare.py
    deps:
      - data/raw
      - data/extra
    outs:
      - data/prepared
`
	require.Equal(t, expected, readString(t, path))
}

func TestModifyEmptyAndMissingFiles(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	require.NoError(t, ryaml.Modify(empty, set("new_key", "new_value")))
	require.Equal(t, "new_key: new_value\n", readString(t, empty))

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, ryaml.Modify(missing, set("a", []int{1})))
	require.Equal(t, "a:\n- 1\n", readString(t, missing))
}

func TestModifyCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid_modify.yaml")
	content := "key: value\nkey: another_value"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	called := false
	err := ryaml.Modify(path, func(doc *ryaml.Document) error {
		called = true
		return set("new", "test")(doc)
	})
	require.ErrorIs(t, err, ryaml.ErrCorrupted)

	var cerr *ryaml.CorruptedError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "key", cerr.Key)
	require.Equal(t, 2, cerr.Line)
	require.Equal(t, path, cerr.Path)

	require.False(t, called)
	require.Equal(t, content, readString(t, path))
}

func TestModifyInvalidSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syntax.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: value: another"), 0o644))

	err := ryaml.Modify(path, set("a", 1))
	require.ErrorIs(t, err, ryaml.ErrSyntax)
	require.Equal(t, "key: value: another", readString(t, path))
}

func TestModifyCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

	errBoom := errors.New("boom")
	err := ryaml.Modify(path, func(doc *ryaml.Document) error {
		if err := set("b", 2)(doc); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, "a: 1\n", readString(t, path))

	require.Panics(t, func() {
		_ = ryaml.Modify(path, func(doc *ryaml.Document) error {
			_ = set("c", 3)(doc)
			panic("mutation failed")
		})
	})
	require.Equal(t, "a: 1\n", readString(t, path))

	err = ryaml.Modify(filepath.Join(t.TempDir(), "never.yaml"), set("a", 1), ryaml.Indent(0))
	require.Error(t, err)
}

func TestModifyKeepsModeAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: x\n"), 0o600))

	require.NoError(t, ryaml.Modify(path, set("token", "y")))
	require.Equal(t, "token: y\n", readString(t, path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	// Group-writable bits survive even where the umask would clear them.
	require.NoError(t, os.Chmod(path, 0o664))
	require.NoError(t, ryaml.Modify(path, set("token", "z")))
	fi, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o664), fi.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fresh := filepath.Join(dir, "fresh.yaml")
	require.NoError(t, ryaml.WriteFile(fresh, ryaml.Map{{Key: "a", Value: 1}}))
	fi, err = os.Stat(fresh)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
}

func TestModifyRootNotMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n"), 0o644))

	err := ryaml.Modify(path, set("a", 1))
	require.EqualError(t, err, "ryaml: document root is a sequence, not a mapping")
	require.Equal(t, "- a\n", readString(t, path))
}
