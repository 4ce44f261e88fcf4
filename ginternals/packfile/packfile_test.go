package packfile_test

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"io/ioutil"
	"testing"

	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/ginternals/packfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePack(t *testing.T) {
	t.Parallel()

	blob := object.New(object.TypeBlob, []byte("hello mingit\n"))

	buf := new(bytes.Buffer)
	id, err := packfile.WritePack(buf, []*object.Object{blob})
	require.NoError(t, err)

	data := buf.Bytes()
	require.Greater(t, len(data), 12+20)

	t.Run("header", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []byte("PACK"), data[:4])
		assert.Equal(t, uint32(2), binary.BigEndian.Uint32(data[4:8]))
		assert.Equal(t, uint32(1), binary.BigEndian.Uint32(data[8:12]))
	})

	t.Run("object header encodes type and size", func(t *testing.T) {
		t.Parallel()

		// 13 bytes of content fit in the 4 size bits of the first
		// byte, no continuation needed: type 3 (blob) on bits 4-6
		assert.Equal(t, byte(3<<4|13&0x0F), data[12]&0x7F)
		if data[12]&0x80 != 0 {
			assert.Equal(t, byte(13>>4), data[13])
		}
	})

	t.Run("content is zlib compressed", func(t *testing.T) {
		t.Parallel()

		start := 13
		if data[12]&0x80 != 0 {
			start = 14
		}
		zr, err := zlib.NewReader(bytes.NewReader(data[start : len(data)-20]))
		require.NoError(t, err)
		content, err := ioutil.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello mingit\n"), content)
	})

	t.Run("trailer is the sha1 of the pack", func(t *testing.T) {
		t.Parallel()

		sum := sha1.Sum(data[:len(data)-20])
		assert.Equal(t, sum[:], data[len(data)-20:])
		assert.Equal(t, sum[:], id.Bytes())
	})
}

func TestWritePackEmpty(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	_, err := packfile.WritePack(buf, nil)
	require.NoError(t, err)

	data := buf.Bytes()
	assert.Equal(t, 12+20, len(data))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(data[8:12]))
}
