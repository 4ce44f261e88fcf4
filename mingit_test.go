package mingit_test

import (
	"path/filepath"
	"testing"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/env"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// testEnv provides a stable identity so the tests don't depend on
// the host environment
var testEnv = []string{
	"GIT_AUTHOR_NAME=Test Author",
	"GIT_AUTHOR_EMAIL=author@example.com",
	"GIT_COMMITTER_NAME=Test Committer",
	"GIT_COMMITTER_EMAIL=committer@example.com",
}

// newTestRepo creates a repository on an in-memory filesystem,
// shared between the .git directory and the working tree
func newTestRepo(t *testing.T) (*mingit.Repository, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	e := env.NewFromKVList(testEnv)
	cfg, err := config.LoadConfig(e, config.LoadConfigOptions{
		FS:               fs,
		WorkingDirectory: "/repo",
		GitDirPath:       "/repo/.git",
		WorkTreePath:     "/repo",
		SkipGitDirLookUp: true,
	})
	require.NoError(t, err)

	r, err := mingit.InitRepositoryWithParams(cfg, mingit.InitOptions{
		WorkingTreeBackend: fs,
		Env:                e,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, r.Close())
	})
	return r, fs
}

// writeWtFile writes a file in the working tree
func writeWtFile(t *testing.T, fs afero.Fs, path string, content []byte) {
	t.Helper()
	abs := filepath.Join("/repo", filepath.FromSlash(path))
	require.NoError(t, fs.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, afero.WriteFile(fs, abs, content, 0o644))
}

// mustResolve resolves a revision and fails the test on error
func mustResolve(t *testing.T, r *mingit.Repository, rev string) ginternals.Oid {
	t.Helper()
	oid, err := r.ResolveRevision(rev)
	require.NoError(t, err)
	return oid
}

// commitAll stages everything and creates a commit
func commitAll(t *testing.T, r *mingit.Repository, msg string) string {
	t.Helper()
	require.NoError(t, r.Add([]string{"."}))
	c, err := r.CreateCommit(mingit.CommitOptions{Message: msg})
	require.NoError(t, err)
	return c.ID().String()
}
