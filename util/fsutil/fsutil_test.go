package fsutil

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestWalkFilesSkip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.cc"), "a", 0644)
	writeFile(t, filepath.Join(root, "src", "sub", "b.py"), "bb", 0644)
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref", 0644)

	files, err := WalkFiles(root, func(rel string, d fs.DirEntry) bool {
		return d.Name() == ".git"
	})
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	assert.Equal(t, []string{"src/a.cc", "src/sub/b.py"}, rels)
	assert.Equal(t, int64(2), files[1].Size)
}

func TestWalkFilesNotDir(t *testing.T) {
	_, err := WalkFiles(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestCopyFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "run.sh")
	dst := filepath.Join(dir, "work", "run.sh")
	writeFile(t, src, "#!/bin/bash\n", 0755)

	require.NoError(t, CopyFile(context.Background(), src, dst))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\n", string(b))

	st, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), st.Mode().Perm())
}

func TestCopyFileCanceled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	writeFile(t, src, "data", 0644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := CopyFile(ctx, src, filepath.Join(dir, "b"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a", "b")
	require.NoError(t, EnsureDir(p))
	require.NoError(t, EnsureDir(p))

	empty, err := IsEmptyDir(p)
	require.NoError(t, err)
	assert.True(t, empty)

	f := filepath.Join(dir, "file")
	writeFile(t, f, "x", 0644)
	assert.Error(t, EnsureDir(f))
}
