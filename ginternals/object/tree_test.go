package object_test

import (
	"testing"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOid(t *testing.T, sha string) ginternals.Oid {
	t.Helper()
	oid, err := ginternals.NewOidFromStr(sha)
	require.NoError(t, err)
	return oid
}

func TestTreeEntryOrder(t *testing.T) {
	t.Parallel()

	blobID := mustOid(t, "f70f10e4db19068f79bc43844b49f3eece45c4e8")
	subID := mustOid(t, "23e1d3b238b30a179cd2fff9d53ac447bbccac54")

	t.Run("a directory sorts as if its name ended with a slash", func(t *testing.T) {
		t.Parallel()

		tree := object.NewTree([]object.TreeEntry{
			{Mode: object.ModeDirectory, Path: "foo", ID: subID},
			{Mode: object.ModeFile, Path: "foo.c", ID: blobID},
		})

		entries := tree.Entries()
		require.Len(t, entries, 2)
		// "foo/" > "foo.c" so the file comes first
		assert.Equal(t, "foo.c", entries[0].Path)
		assert.Equal(t, "foo", entries[1].Path)
	})

	t.Run("files sort bytewise", func(t *testing.T) {
		t.Parallel()

		tree := object.NewTree([]object.TreeEntry{
			{Mode: object.ModeFile, Path: "b", ID: blobID},
			{Mode: object.ModeFile, Path: "a", ID: blobID},
			{Mode: object.ModeFile, Path: "a.c", ID: blobID},
		})

		entries := tree.Entries()
		assert.Equal(t, "a", entries[0].Path)
		assert.Equal(t, "a.c", entries[1].Path)
		assert.Equal(t, "b", entries[2].Path)
	})
}

func TestTreeSerialization(t *testing.T) {
	t.Parallel()

	blobID := mustOid(t, "f70f10e4db19068f79bc43844b49f3eece45c4e8")
	subID := mustOid(t, "23e1d3b238b30a179cd2fff9d53ac447bbccac54")

	tree := object.NewTree([]object.TreeEntry{
		{Mode: object.ModeDirectory, Path: "foo", ID: subID},
		{Mode: object.ModeFile, Path: "foo.c", ID: blobID},
	})

	t.Run("exact byte layout", func(t *testing.T) {
		t.Parallel()

		expected := append([]byte("100644 foo.c\x00"), blobID.Bytes()...)
		expected = append(expected, []byte("40000 foo\x00")...)
		expected = append(expected, subID.Bytes()...)
		assert.Equal(t, expected, tree.ToObject().Bytes())
	})

	t.Run("id computed with git", func(t *testing.T) {
		t.Parallel()

		// root tree of {foo.c, foo/bar} where every file contains "A\n"
		assert.Equal(t, "bf1837595c831db399afbfcae43c39d673ee4466", tree.ID().String())
	})

	t.Run("parse(serialize(t)) == t", func(t *testing.T) {
		t.Parallel()

		back, err := tree.ToObject().AsTree()
		require.NoError(t, err)
		assert.Equal(t, tree.Entries(), back.Entries())
		assert.Equal(t, tree.ID(), back.ID())
	})
}

func TestTreeEntriesImmutable(t *testing.T) {
	t.Parallel()

	blobID := mustOid(t, "f70f10e4db19068f79bc43844b49f3eece45c4e8")
	tree := object.NewTree([]object.TreeEntry{
		{Mode: object.ModeFile, Path: "blob", ID: blobID},
	})

	tree.Entries()[0].Path = "nope"
	assert.Equal(t, "blob", tree.Entries()[0].Path, "should not update entry Path")
}

func TestTreeObjectMode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		mode     object.TreeObjectMode
		expected object.Type
	}{
		{desc: "unknown mode should be blob", mode: 0o644, expected: object.TypeBlob},
		{desc: "file should be blob", mode: object.ModeFile, expected: object.TypeBlob},
		{desc: "executable should be blob", mode: object.ModeExecutable, expected: object.TypeBlob},
		{desc: "symlink should be blob", mode: object.ModeSymLink, expected: object.TypeBlob},
		{desc: "directory should be tree", mode: object.ModeDirectory, expected: object.TypeTree},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, tc.mode.ObjectType())
		})
	}

	assert.False(t, object.TreeObjectMode(0o644).IsValid())
	assert.True(t, object.ModeFile.IsValid())
}
