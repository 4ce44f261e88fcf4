// Package packfile contains methods to write git packfiles, the
// format used to send objects over the wire during a push
// https://git-scm.com/docs/pack-format
package packfile

import (
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"io"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"golang.org/x/xerrors"
)

// packMagic is the magic of the packfile format ('P', 'A', 'C', 'K')
var packMagic = []byte{'P', 'A', 'C', 'K'}

// packVersion is the only version this library emits
const packVersion = 2

// WritePack writes the given objects to w as a version 2 packfile
// and returns the id of the pack (the SHA1 sum of its content,
// which is also its trailer).
//
// A packfile has the following format:
//
// 12-byte header:
//     4 bytes: the magic ('P', 'A', 'C', 'K')
//     4 bytes: the version (0, 0, 0, 2)
//     4 bytes: the number of objects in the pack
// Then for each object:
//     A variable-size header encoding the object type and the size
//     of its uncompressed content: the first byte holds a
//     continuation bit (MSB), the type on 3 bits, and the 4 low
//     bits of the size. Each following byte holds a continuation
//     bit and the next 7 bits of the size, least significant first.
//     The zlib-compressed object content follows.
// 20-byte trailer:
//     The SHA1 sum of everything above.
//
// Only non-delta entries are written: every object carries its full
// content
func WritePack(w io.Writer, objects []*object.Object) (ginternals.Oid, error) {
	hasher := sha1.New()
	// everything written to out is hashed on the fly, so the
	// trailer is cheap to compute
	out := io.MultiWriter(w, hasher)

	header := make([]byte, 12)
	copy(header, packMagic)
	binary.BigEndian.PutUint32(header[4:], packVersion)
	binary.BigEndian.PutUint32(header[8:], uint32(len(objects)))
	if _, err := out.Write(header); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not write the header: %w", err)
	}

	for _, o := range objects {
		if _, err := out.Write(objectHeader(o.Type(), len(o.Bytes()))); err != nil {
			return ginternals.NullOid, xerrors.Errorf("could not write the header of object %s: %w", o.ID().String(), err)
		}

		zw := zlib.NewWriter(out)
		if _, err := zw.Write(o.Bytes()); err != nil {
			zw.Close() //nolint:errcheck // we already have an error to report
			return ginternals.NullOid, xerrors.Errorf("could not compress object %s: %w", o.ID().String(), err)
		}
		if err := zw.Close(); err != nil {
			return ginternals.NullOid, xerrors.Errorf("could not flush object %s: %w", o.ID().String(), err)
		}
	}

	var id ginternals.Oid
	copy(id[:], hasher.Sum(nil))
	if _, err := w.Write(id.Bytes()); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not write the trailer: %w", err)
	}
	return id, nil
}

// objectHeader encodes the type and size of an object the way the
// packfile format expects them
func objectHeader(typ object.Type, size int) []byte {
	b := byte(typ) << 4
	b |= byte(size & 0x0F)
	size >>= 4

	header := []byte{b}
	for size > 0 {
		// set the continuation bit of the previous byte
		header[len(header)-1] |= 0x80
		header = append(header, byte(size&0x7F))
		size >>= 7
	}
	return header
}
