package ginternals_test

import (
	"testing"

	"github.com/Nivl/mingit/ginternals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOidFromStr(t *testing.T) {
	t.Parallel()

	t.Run("valid sha should work", func(t *testing.T) {
		t.Parallel()

		sha := "9b91da06e69613397b38e0808e0ba5ee6983251b"
		oid, err := ginternals.NewOidFromStr(sha)
		require.NoError(t, err)
		assert.Equal(t, sha, oid.String())
		assert.False(t, oid.IsZero())
	})

	t.Run("too short sha should fail", func(t *testing.T) {
		t.Parallel()

		_, err := ginternals.NewOidFromStr("9b91da06")
		require.Error(t, err)
		assert.ErrorIs(t, err, ginternals.ErrInvalidOid)
	})

	t.Run("invalid char should fail", func(t *testing.T) {
		t.Parallel()

		_, err := ginternals.NewOidFromStr("zb91da06e69613397b38e0808e0ba5ee6983251b")
		require.Error(t, err)
		assert.ErrorIs(t, err, ginternals.ErrInvalidOid)
	})
}

func TestNewOidFromContent(t *testing.T) {
	t.Parallel()

	// sha1 of the framed empty tree
	oid := ginternals.NewOidFromContent([]byte("tree 0\x00"))
	assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", oid.String())
}

func TestOidBytes(t *testing.T) {
	t.Parallel()

	sha := "642480605b8b0fd464ab5762e044269cf29a60a3"
	oid, err := ginternals.NewOidFromStr(sha)
	require.NoError(t, err)

	assert.Equal(t, byte(0x64), oid.Bytes()[0])
	assert.Equal(t, byte(0xa3), oid.Bytes()[19])

	back, err := ginternals.NewOidFromHex(oid.Bytes())
	require.NoError(t, err)
	assert.Equal(t, oid, back)
}

func TestNullOid(t *testing.T) {
	t.Parallel()

	assert.True(t, ginternals.NullOid.IsZero())
	assert.Equal(t, "0000000000000000000000000000000000000000", ginternals.NullOid.String())
}
