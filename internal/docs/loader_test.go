package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestLoad_DefaultGlobSortedPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"zeta.md":        "zeta content",
		"alpha.md":       "alpha content",
		"sub/beta.txt":   "beta content",
		"sub/ignored.go": "package ignored",
	})

	docs, err := Load(root, "")
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "alpha.md", docs[0].Path)
	assert.Equal(t, "sub/beta.txt", docs[1].Path)
	assert.Equal(t, "zeta.md", docs[2].Path)
	assert.Equal(t, "alpha content", docs[0].Content)
}

func TestLoad_ExplicitPattern(t *testing.T) {
	root := writeTree(t, map[string]string{
		"notes.md":  "markdown",
		"notes.txt": "plain",
	})

	docs, err := Load(root, "*.txt")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.txt", docs[0].Path)
}

func TestLoad_NormalizesCRLF(t *testing.T) {
	root := writeTree(t, map[string]string{
		"win.md": "first\r\nsecond\r\nthird",
	})

	docs, err := Load(root, "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "first\nsecond\nthird", docs[0].Content)
}

func TestLoad_BadPattern(t *testing.T) {
	root := writeTree(t, nil)

	_, err := Load(root, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad pattern")
}

func TestLoad_EmptyRoot(t *testing.T) {
	docs, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
