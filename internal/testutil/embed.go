// Package testutil gives tests access to the shared document fixtures.
package testutil

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// TestdataFS holds the embedded test data files.
//
//go:embed testdata
var TestdataFS embed.FS

// ReadTestData reads and returns the content of an embedded test file.
func ReadTestData(name string) ([]byte, error) {
	path := fmt.Sprintf("testdata/%s", name)
	data, err := fs.ReadFile(TestdataFS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test data file '%s': %w", name, err)
	}
	return data, nil
}

// Names returns the names of the embedded files matching pattern.
func Names(pattern string) ([]string, error) {
	sub, err := fs.Sub(TestdataFS, "testdata")
	if err != nil {
		return nil, err
	}
	return fs.Glob(sub, pattern)
}

// CopyToTemp copies the embedded file name into a fresh temporary
// directory and returns the path of the copy.
func CopyToTemp(t testing.TB, name string) string {
	t.Helper()
	data, err := ReadTestData(name)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
