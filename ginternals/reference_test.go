package ginternals_test

import (
	"testing"

	"github.com/Nivl/mingit/ginternals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestResolveReference(t *testing.T) {
	t.Parallel()

	oid, err := ginternals.NewOidFromStr("bbb720a96e4c29b9950a4c577c98470a4d5dd089")
	require.NoError(t, err)

	t.Run("should resolve an oid ref", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			return []byte(oid.String() + "\n"), nil
		}
		ref, err := ginternals.ResolveReference("refs/heads/master", finder)
		require.NoError(t, err)
		assert.Equal(t, ginternals.OidReference, ref.Type())
		assert.Equal(t, oid, ref.Target())
	})

	t.Run("should follow a symbolic ref", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			if name == ginternals.Head {
				return []byte("ref: refs/heads/master\n"), nil
			}
			return []byte(oid.String() + "\n"), nil
		}
		ref, err := ginternals.ResolveReference(ginternals.Head, finder)
		require.NoError(t, err)
		assert.Equal(t, ginternals.SymbolicReference, ref.Type())
		assert.Equal(t, "refs/heads/master", ref.SymbolicTarget())
		assert.Equal(t, oid, ref.Target())
	})

	t.Run("an unborn branch should resolve with a zero target", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			if name == ginternals.Head {
				return []byte("ref: refs/heads/master\n"), nil
			}
			return nil, xerrors.Errorf("nope: %w", ginternals.ErrRefNotFound)
		}
		ref, err := ginternals.ResolveReference(ginternals.Head, finder)
		require.NoError(t, err)
		assert.Equal(t, "refs/heads/master", ref.SymbolicTarget())
		assert.True(t, ref.Target().IsZero())
	})

	t.Run("should fail on a circular ref", func(t *testing.T) {
		t.Parallel()

		finder := func(name string) ([]byte, error) {
			switch name {
			case "refs/heads/a":
				return []byte("ref: refs/heads/b"), nil
			default:
				return []byte("ref: refs/heads/a"), nil
			}
		}
		_, err := ginternals.ResolveReference("refs/heads/a", finder)
		require.Error(t, err)
		assert.ErrorIs(t, err, ginternals.ErrRefInvalid)
	})
}

func TestIsRefNameValid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		refName string
		valid   bool
	}{
		{"simple branch", "refs/heads/master", true},
		{"nested branch", "refs/heads/ml/feat/stuff", true},
		{"HEAD", "HEAD", true},
		{"empty", "", false},
		{"leading dash", "-master", false},
		{"leading slash", "/refs/heads/master", false},
		{"trailing slash", "refs/heads/master/", false},
		{"trailing dot", "refs/heads/master.", false},
		{"double dots", "refs/heads/mas..ter", false},
		{"space", "refs/heads/mas ter", false},
		{"tilde", "refs/heads/mas~ter", false},
		{"caret", "refs/heads/mas^ter", false},
		{"colon", "refs/heads/mas:ter", false},
		{"question mark", "refs/heads/mas?ter", false},
		{"star", "refs/heads/mas*ter", false},
		{"open bracket", "refs/heads/mas[ter", false},
		{"at-brace", "refs/heads/mas@{ter", false},
		{"segment starting with dot", "refs/heads/.master", false},
		{"segment ending with .lock", "refs/heads/master.lock", false},
		{"empty segment", "refs//heads", false},
		{"control char", "refs/heads/mas\x07ter", false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.valid, ginternals.IsRefNameValid(tc.refName))
		})
	}
}
