package ryaml_test

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/KimNorgaard/go-ryaml/internal/testutil"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

// TestGolden parses every fixture and writes its plain value back out. For
// fixtures that are expected to fail, the golden file holds the error.
func TestGolden(t *testing.T) {
	names, err := testutil.Names("*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			src, err := testutil.ReadTestData(name)
			require.NoError(t, err)

			var actual []byte
			v, err := ryaml.Parse(src, name)
			if err != nil {
				actual = []byte(err.Error() + "\n")
			} else {
				actual, err = ryaml.Marshal(v)
				require.NoError(t, err)
			}

			goldenFile := filepath.Join("testdata", strings.TrimSuffix(name, ".yaml")+".golden")
			if *update {
				err := os.WriteFile(goldenFile, actual, 0o644)
				require.NoError(t, err)
			}

			expected, err := os.ReadFile(goldenFile)
			require.NoError(t, err, "Golden file not found. Run with -update to create it.")
			require.Equal(t, string(expected), string(actual))
		})
	}
}

// TestFixturesUnchanged checks that untouched documents are written back
// byte for byte.
func TestFixturesUnchanged(t *testing.T) {
	names, err := testutil.Names("*.yaml")
	require.NoError(t, err)

	for _, name := range names {
		src, err := testutil.ReadTestData(name)
		require.NoError(t, err)

		doc, err := ryaml.ParseForUpdate(src, name)
		if err != nil {
			continue
		}
		out, err := doc.Bytes()
		require.NoError(t, err)
		require.Equal(t, string(src), string(out), name)
	}
}
