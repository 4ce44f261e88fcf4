package mingit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTreeFromIndex(t *testing.T) {
	t.Parallel()

	t.Run("an empty index produces the empty tree", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRepo(t)
		idx, err := r.Index()
		require.NoError(t, err)

		tree, err := r.WriteTreeFromIndex(idx)
		require.NoError(t, err)
		assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", tree.ID().String())
	})

	t.Run("a file and a directory sharing a prefix use the tree order", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "foo.c", []byte("A\n"))
		writeWtFile(t, fs, "foo/bar", []byte("A\n"))
		require.NoError(t, r.Add([]string{"."}))

		idx, err := r.Index()
		require.NoError(t, err)
		tree, err := r.WriteTreeFromIndex(idx)
		require.NoError(t, err)

		// id computed with git for {foo.c, foo/bar}, all files
		// containing "A\n"
		assert.Equal(t, "bf1837595c831db399afbfcae43c39d673ee4466", tree.ID().String())

		entries := tree.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "foo.c", entries[0].Path)
		assert.Equal(t, "foo", entries[1].Path)
	})

	t.Run("nested directories coalesce by content", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a/file", []byte("A\n"))
		writeWtFile(t, fs, "b/file", []byte("A\n"))
		require.NoError(t, r.Add([]string{"."}))

		idx, err := r.Index()
		require.NoError(t, err)
		tree, err := r.WriteTreeFromIndex(idx)
		require.NoError(t, err)

		entries := tree.Entries()
		require.Len(t, entries, 2)
		// identical content leads to identical subtree ids
		assert.Equal(t, entries[0].ID, entries[1].ID)
	})

	t.Run("the tree round trips through the odb", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "sub/deep/file", []byte("content\n"))
		require.NoError(t, r.Add([]string{"."}))

		idx, err := r.Index()
		require.NoError(t, err)
		tree, err := r.WriteTreeFromIndex(idx)
		require.NoError(t, err)

		entries, err := r.TreeEntries(tree.ID())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		_, ok := entries["sub/deep/file"]
		assert.True(t, ok)
	})
}
