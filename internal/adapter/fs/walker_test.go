package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("fever,diagnosis\n1,flu\n"), 0644))
	return path
}

func relPaths(files []SeedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalkerDefaults(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.csv")
	touch(t, root, "nested/a.csv")
	touch(t, root, "notes.txt")

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.csv", "nested/a.csv"}, relPaths(files))
}

func TestWalkerExcludes(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "seed/a.csv")
	touch(t, root, "output/library.csv")
	touch(t, root, "seed/draft.tmp.csv")

	files, err := NewWalker([]string{"**/*.csv"}, []string{"output/**", "**/*.tmp.csv"}).Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"seed/a.csv"}, relPaths(files))
}

func TestSkip(t *testing.T) {
	root := t.TempDir()
	trusted := touch(t, root, "input/database.csv")
	touch(t, root, "seed/a.csv")

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	files = Skip(files, trusted)
	assert.Equal(t, []string{"seed/a.csv"}, relPaths(files))
}
