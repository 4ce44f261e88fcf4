package pktline_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/Nivl/mingit/ginternals/pktline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePacket(t *testing.T) {
	t.Parallel()

	t.Run("payload is length-prefixed", func(t *testing.T) {
		t.Parallel()

		buf := new(bytes.Buffer)
		require.NoError(t, pktline.WritePacket(buf, []byte("hello\n")))
		assert.Equal(t, "000ahello\n", buf.String())
	})

	t.Run("flush-pkt", func(t *testing.T) {
		t.Parallel()

		buf := new(bytes.Buffer)
		require.NoError(t, pktline.WriteFlush(buf))
		assert.Equal(t, "0000", buf.String())
	})

	t.Run("oversized payload should fail", func(t *testing.T) {
		t.Parallel()

		err := pktline.WritePacket(io.Discard, bytes.Repeat([]byte("a"), pktline.MaxPayloadSize+1))
		require.Error(t, err)
		assert.ErrorIs(t, err, pktline.ErrPayloadTooLong)
	})
}

func TestReadPacket(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		buf := new(bytes.Buffer)
		require.NoError(t, pktline.WritePacketf(buf, "%s %s", "0000000000000000000000000000000000000000", "refs/heads/master"))
		require.NoError(t, pktline.WriteFlush(buf))

		payload, err := pktline.ReadPacket(buf)
		require.NoError(t, err)
		assert.Equal(t, "0000000000000000000000000000000000000000 refs/heads/master", string(payload))

		_, err = pktline.ReadPacket(buf)
		assert.ErrorIs(t, err, pktline.ErrFlush)

		_, err = pktline.ReadPacket(buf)
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("reserved length should fail", func(t *testing.T) {
		t.Parallel()

		_, err := pktline.ReadPacket(strings.NewReader("0001"))
		require.Error(t, err)
		assert.ErrorIs(t, err, pktline.ErrInvalidPktLen)
	})

	t.Run("non-hex length should fail", func(t *testing.T) {
		t.Parallel()

		_, err := pktline.ReadPacket(strings.NewReader("zzzzpayload"))
		require.Error(t, err)
		assert.ErrorIs(t, err, pktline.ErrInvalidPktLen)
	})
}
