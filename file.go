package ryaml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ryaml")

// ReadFile reads the file at path and returns its plain value.
func ReadFile(path string, opts ...Option) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path, opts...)
}

// WriteFile replaces the content of the file at path with the text of v.
func WriteFile(path string, v any, opts ...Option) error {
	data, err := Marshal(v, opts...)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Modify reads the document at path, passes it to fn and writes it back.
//
// A missing or empty file is an empty document. If the file cannot be
// decoded or parsed, fn is not called and the error is returned. If fn
// returns an error or panics, nothing is written. Otherwise the document
// is written back in full, replacing the file atomically.
//
// Modify does not lock the file. Callers that may race with other writers
// of path must serialize access themselves.
func Modify(path string, fn func(*Document) error, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	doc, err := parseForUpdate(data, path, o)
	if err != nil {
		log.Debugf("not modifying %s: %s", path, err)
		return err
	}

	if err := fn(doc); err != nil {
		log.Debugf("discarding changes to %s: %s", path, err)
		return err
	}

	out, err := doc.Bytes()
	if err != nil {
		return err
	}
	return writeFile(path, out)
}

// writeFile replaces path with data through a temporary file and a
// rename, so readers see either the old or the new content. An existing
// file keeps its permissions.
func writeFile(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := renameio.WriteFile(path, data, mode, renameio.WithStaticPermissions(mode)); err != nil {
		return fmt.Errorf("ryaml: replacing %s: %w", path, err)
	}
	log.Debugf("wrote %d bytes to %s", len(data), path)
	return nil
}
