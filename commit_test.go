package mingit_test

import (
	"testing"

	mingit "github.com/Nivl/mingit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommit(t *testing.T) {
	t.Parallel()

	t.Run("first commit has no parent", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		require.NoError(t, r.Add([]string{"a"}))

		c, err := r.CreateCommit(mingit.CommitOptions{Message: "m"})
		require.NoError(t, err)

		assert.Empty(t, c.ParentIDs())
		assert.Equal(t, "m\n", c.Message(), "a missing trailing newline is added")
		assert.Equal(t, "Test Author", c.AuthorSignature().Name)
		assert.Equal(t, "Test Committer", c.CommitterSignature().Name)

		t.Run("HEAD moves to the commit", func(t *testing.T) {
			head, err := r.Head()
			require.NoError(t, err)
			assert.Equal(t, c.ID(), head.Target())
		})

		t.Run("the commit is readable back", func(t *testing.T) {
			back, err := r.Commit(c.ID())
			require.NoError(t, err)
			assert.Equal(t, c.Message(), back.Message())
			assert.Equal(t, c.TreeID(), back.TreeID())
		})
	})

	t.Run("second commit links to the first", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		c1 := commitAll(t, r, "first")

		writeWtFile(t, fs, "b", []byte("B\n"))
		require.NoError(t, r.Add([]string{"b"}))
		c2, err := r.CreateCommit(mingit.CommitOptions{Message: "second"})
		require.NoError(t, err)

		require.Len(t, c2.ParentIDs(), 1)
		assert.Equal(t, c1, c2.ParentIDs()[0].String())
	})

	t.Run("amend replaces the tip", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		c1 := commitAll(t, r, "first")

		writeWtFile(t, fs, "b", []byte("B\n"))
		c2 := commitAll(t, r, "second")

		amended, err := r.CreateCommit(mingit.CommitOptions{Message: "x", Amend: true})
		require.NoError(t, err)

		// the amended commit keeps the parents of the old tip
		require.Len(t, amended.ParentIDs(), 1)
		assert.Equal(t, c1, amended.ParentIDs()[0].String())
		assert.Equal(t, "x\n", amended.Message())

		head, err := r.Head()
		require.NoError(t, err)
		assert.Equal(t, amended.ID(), head.Target())

		t.Run("the old tip is unreferenced but still stored", func(t *testing.T) {
			old, err := r.Commit(mustResolve(t, r, c2))
			require.NoError(t, err)
			assert.Equal(t, "second\n", old.Message())
		})

		t.Run("the tree is unchanged", func(t *testing.T) {
			old, err := r.Commit(mustResolve(t, r, c2))
			require.NoError(t, err)
			assert.Equal(t, old.TreeID(), amended.TreeID())
		})
	})

	t.Run("amend without a message reuses the old one", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "original")

		amended, err := r.CreateCommit(mingit.CommitOptions{Amend: true})
		require.NoError(t, err)
		assert.Equal(t, "original\n", amended.Message())
	})

	t.Run("amend on an unborn branch fails", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRepo(t)
		_, err := r.CreateCommit(mingit.CommitOptions{Message: "x", Amend: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrNoCommitToAmend)
	})
}
