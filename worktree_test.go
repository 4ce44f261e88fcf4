package mingit_test

import (
	"testing"

	mingit "github.com/Nivl/mingit"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	t.Parallel()

	t.Run("adding a file writes its blob", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		require.NoError(t, r.Add([]string{"a"}))

		idx, err := r.Index()
		require.NoError(t, err)
		e := idx.Entry("a")
		require.NotNil(t, e)
		assert.Equal(t, "f70f10e4db19068f79bc43844b49f3eece45c4e8", e.ID.String())
		assert.Equal(t, uint32(0o100644), e.Mode)

		// the blob must be in the odb
		o, err := r.Object(e.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("A\n"), o.Bytes())
	})

	t.Run("adding a directory is recursive", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "sub/a", []byte("A\n"))
		writeWtFile(t, fs, "sub/deep/b", []byte("B\n"))
		writeWtFile(t, fs, "other", []byte("O\n"))
		require.NoError(t, r.Add([]string{"sub"}))

		idx, err := r.Index()
		require.NoError(t, err)
		assert.True(t, idx.Has("sub/a"))
		assert.True(t, idx.Has("sub/deep/b"))
		assert.False(t, idx.Has("other"))
	})

	t.Run("an unknown path fails", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRepo(t)
		err := r.Add([]string{"nope"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrPathspecNoMatch)
	})

	t.Run("a path outside the repo fails", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRepo(t)
		err := r.Add([]string{"/elsewhere/file"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrPathOutsideRepo)
	})

	t.Run("explicitly adding an ignored untracked file fails", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, ".gitignore", []byte("*.log\n"))
		writeWtFile(t, fs, "a.log", []byte("log\n"))

		err := r.Add([]string{"a.log"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrPathIgnored)
	})

	t.Run("a tracked file can be re-added even if ignored", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a.log", []byte("log\n"))
		require.NoError(t, r.Add([]string{"a.log"}))

		// ignore it after the fact
		writeWtFile(t, fs, ".gitignore", []byte("*.log\n"))
		writeWtFile(t, fs, "a.log", []byte("more log\n"))
		require.NoError(t, r.Add([]string{"a.log"}))

		idx, err := r.Index()
		require.NoError(t, err)
		assert.Equal(t, "09d13be595df64ad035b5f283ba95c7bea409df7", idx.Entry("a.log").ID.String())
	})

	t.Run("directory expansion skips ignored files", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, ".gitignore", []byte("*.log\n"))
		writeWtFile(t, fs, "sub/a.log", []byte("log\n"))
		writeWtFile(t, fs, "sub/b.txt", []byte("B\n"))
		require.NoError(t, r.Add([]string{"sub"}))

		idx, err := r.Index()
		require.NoError(t, err)
		assert.False(t, idx.Has("sub/a.log"))
		assert.True(t, idx.Has("sub/b.txt"))
	})
}

func TestRm(t *testing.T) {
	t.Parallel()

	t.Run("removes from index and worktree", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		require.NoError(t, r.Rm([]string{"a"}))

		idx, err := r.Index()
		require.NoError(t, err)
		assert.False(t, idx.Has("a"))

		exists, err := afero.Exists(fs, "/repo/a")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("refuses on staged changes", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		require.NoError(t, r.Add([]string{"a"}))

		err := r.Rm([]string{"a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrLocalChanges)
	})

	t.Run("refuses on unstaged changes", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		writeWtFile(t, fs, "a", []byte("changed\n"))
		err := r.Rm([]string{"a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrLocalChanges)
	})

	t.Run("fails on untracked paths", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))

		err := r.Rm([]string{"a"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrPathspecNoMatch)
	})
}

func TestRestoreStaged(t *testing.T) {
	t.Parallel()

	t.Run("resets the entry to HEAD", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		writeWtFile(t, fs, "a", []byte("changed\n"))
		require.NoError(t, r.Add([]string{"a"}))

		require.NoError(t, r.RestoreStaged([]string{"a"}))

		// the index matches HEAD again
		st, err := r.Status()
		require.NoError(t, err)
		assert.Empty(t, st.Staged)

		// the worktree still has the modification
		require.Len(t, st.Unstaged, 1)
		assert.Equal(t, mingit.ChangeModified, st.Unstaged[0].Kind)
		data, err := afero.ReadFile(fs, "/repo/a")
		require.NoError(t, err)
		assert.Equal(t, []byte("changed\n"), data)
	})

	t.Run("removes entries absent from HEAD", func(t *testing.T) {
		t.Parallel()

		r, fs := newTestRepo(t)
		writeWtFile(t, fs, "a", []byte("A\n"))
		commitAll(t, r, "first")

		writeWtFile(t, fs, "new", []byte("N\n"))
		require.NoError(t, r.Add([]string{"new"}))
		require.NoError(t, r.RestoreStaged([]string{"new"}))

		idx, err := r.Index()
		require.NoError(t, err)
		assert.False(t, idx.Has("new"))
	})

	t.Run("fails on unknown paths", func(t *testing.T) {
		t.Parallel()

		r, _ := newTestRepo(t)
		err := r.RestoreStaged([]string{"nope"})
		require.Error(t, err)
		assert.ErrorIs(t, err, mingit.ErrPathspecNoMatch)
	})
}
