package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		path := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(n), 0o644))
	}
}

func TestFetchBatch_WalksDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.pdf", "a.txt", "photo.png", "nested/c.DOCX", ".git/d.txt")

	a := NewAdapter(dir)
	docs, next, err := a.FetchBatch(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, next)

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a.txt", "b.pdf", "c.DOCX"}, names)
	assert.Equal(t, "docx", docs[2].Format)
	assert.Equal(t, int64(len("a.txt")), docs[0].Size)
}

func TestFetchBatch_ExplicitFilesAlwaysIncluded(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "photo.png", "notes.txt")
	png := filepath.Join(dir, "photo.png")

	a := NewAdapter(png, dir, png)
	n, err := a.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFetchBatch_Paginates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "1.txt", "2.txt", "3.txt", "4.txt", "5.txt")
	a := NewAdapter(dir)
	ctx := context.Background()

	var batches [][]string
	cursor := ""
	for {
		docs, next, err := a.FetchBatch(ctx, cursor, 2)
		require.NoError(t, err)
		var names []string
		for _, d := range docs {
			names = append(names, d.Name)
		}
		batches = append(batches, names)
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Equal(t, [][]string{{"1.txt", "2.txt"}, {"3.txt", "4.txt"}, {"5.txt"}}, batches)

	_, _, err := a.FetchBatch(ctx, "x", 2)
	assert.Error(t, err)
}

func TestFetchBatch_MissingPath(t *testing.T) {
	_, _, err := NewAdapter(filepath.Join(t.TempDir(), "missing")).FetchBatch(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("x.PDF"))
	assert.True(t, Supported("dir/x.csv"))
	assert.False(t, Supported("x.png"))
	assert.False(t, Supported("README"))
}
