package ginternals

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"sort"

	"golang.org/x/xerrors"
)

// An index file contains 4 sections: a header, a list of entries,
// a list of extensions, and a footer.
// Header: 12 bytes
//         The first 4 bytes contain the magic ('D', 'I', 'R', 'C')
//         The next 4 bytes contain the version (0, 0, 0, 2)
//         The last 4 bytes contain the number of entries in the file
// Entries: Variable size
//          Index entries are sorted in ascending order by path,
//          compared bytewise. Paths are unique.
//          Data (see stat(2) for more info on some fields):
//              - 4 bytes: the ctime seconds
//              - 4 bytes: the ctime nanosecond fractions
//              - 4 bytes: the mtime seconds
//              - 4 bytes: the mtime nanosecond fractions
//              - 4 bytes: dev (device ID)
//              - 4 bytes: ino (inode number)
//              - 4 bytes: mode of the entry (high to low)
//                  - Object type (4 bits)
//                    1000 (regular file), 1010 (symbolic link)
//                  - unused bits (3 bits)
//                  - UNIX perms (9 bits). Only 0755 and 0644 are valid
//                    for regular files. Symbolic links have 0.
//              - 4 bytes: uid (user ID)
//              - 4 bytes: gid (group ID)
//              - 4 bytes: file size, truncated to 32 bits
//              - 20 bytes: the oid of the corresponding blob
//              - 2 bytes: flags (high to low)
//                  - assume-valid flag (1 bit)
//                  - extended flag (1 bit). Must be 0 in V2
//                  - stage (2 bits). Used during merge
//                  - path length (12 bits). 0xFFF if it doesn't fit
//              - Entry path (variable size), NUL-terminated, padded
//                with NULs so the whole entry size is a multiple
//                of 8 (with at least 1 NUL)
// Extensions: Variable size
//         The first 4 bytes contain the signature, the next 4 bytes
//         contain the size of the extension, followed by the data.
//         Extensions are skipped on read and never written.
// Footer: 20 bytes
//         Contains the SHA1 sum of everything before it
// https://git-scm.com/docs/index-format

// indexMagic is the magic of the index file format ('D', 'I', 'R', 'C')
var indexMagic = []byte{'D', 'I', 'R', 'C'}

const (
	// indexVersion is the only version this library emits
	indexVersion = 2

	// indexHeaderSize is the size of the header: magic + version + count
	indexHeaderSize = 12

	// indexEntryHeaderSize is the fixed size of an entry before its path
	indexEntryHeaderSize = 62

	// IndexFlagAssumeValid is the assume-valid bit of an entry's flags
	IndexFlagAssumeValid = 0x8000
	// indexFlagExtended is the extended bit of an entry's flags.
	// It must be 0 in version 2
	indexFlagExtended = 0x4000
	// indexFlagsStageMask covers the 2 stage bits of an entry's flags
	indexFlagsStageMask = 0x3000
	// indexMaxPathSize is the maximum path length that fits in the
	// flags. Longer paths rely on the NUL termination
	indexMaxPathSize = 0xFFF
)

var (
	// ErrIndexInvalid is an error thrown when the index file
	// cannot be parsed
	ErrIndexInvalid = errors.New("index file is invalid")

	// ErrIndexVersionUnsupported is an error thrown when the index
	// file uses a version or a feature this library doesn't support
	ErrIndexVersionUnsupported = errors.New("index version not supported")
)

// IndexEntry represents a file tracked in the staging index
type IndexEntry struct {
	Path string

	ID Oid

	CtimeSec  uint32
	CtimeNano uint32
	MtimeSec  uint32
	MtimeNano uint32
	Dev       uint32
	Ino       uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	FileSize  uint32

	Flags uint16
}

// Stage returns the merge stage of the entry, always 0 outside of
// a merge
func (e *IndexEntry) Stage() int {
	return int(e.Flags&indexFlagsStageMask) >> 12
}

// Index represents the staging index of a repository.
// Entries are kept sorted by path (bytewise) and unique
// https://git-scm.com/docs/index-format
type Index struct {
	entries []*IndexEntry
}

// NewIndex returns a new empty index
func NewIndex() *Index {
	return &Index{}
}

// NewIndexFromBytes returns an index parsed from the on-disk format.
// The trailing SHA1 is verified
func NewIndexFromBytes(data []byte) (*Index, error) {
	if len(data) < indexHeaderSize+OidSize {
		return nil, xerrors.Errorf("file too small: %w", ErrIndexInvalid)
	}

	if !bytes.Equal(data[0:4], indexMagic) {
		return nil, xerrors.Errorf("invalid magic: %w", ErrIndexInvalid)
	}

	version := binary.BigEndian.Uint32(data[4:8])
	switch version {
	case 2:
	case 3, 4:
		return nil, xerrors.Errorf("version %d: %w", version, ErrIndexVersionUnsupported)
	default:
		return nil, xerrors.Errorf("version %d: %w", version, ErrIndexInvalid)
	}

	// Before parsing anything we make sure the file content matches
	// its checksum
	checksumOffset := len(data) - OidSize
	sum := sha1.Sum(data[:checksumOffset])
	if !bytes.Equal(sum[:], data[checksumOffset:]) {
		return nil, xerrors.Errorf("checksum mismatch: %w", ErrIndexInvalid)
	}

	count := binary.BigEndian.Uint32(data[8:12])
	idx := &Index{
		entries: make([]*IndexEntry, 0, count),
	}

	offset := indexHeaderSize
	for i := uint32(0); i < count; i++ {
		if offset+indexEntryHeaderSize > checksumOffset {
			return nil, xerrors.Errorf("truncated entry %d: %w", i, ErrIndexInvalid)
		}

		e := &IndexEntry{
			CtimeSec:  binary.BigEndian.Uint32(data[offset:]),
			CtimeNano: binary.BigEndian.Uint32(data[offset+4:]),
			MtimeSec:  binary.BigEndian.Uint32(data[offset+8:]),
			MtimeNano: binary.BigEndian.Uint32(data[offset+12:]),
			Dev:       binary.BigEndian.Uint32(data[offset+16:]),
			Ino:       binary.BigEndian.Uint32(data[offset+20:]),
			Mode:      binary.BigEndian.Uint32(data[offset+24:]),
			UID:       binary.BigEndian.Uint32(data[offset+28:]),
			GID:       binary.BigEndian.Uint32(data[offset+32:]),
			FileSize:  binary.BigEndian.Uint32(data[offset+36:]),
			Flags:     binary.BigEndian.Uint16(data[offset+60:]),
		}
		copy(e.ID[:], data[offset+40:offset+60])

		if e.Flags&indexFlagExtended != 0 {
			return nil, xerrors.Errorf("entry %d uses extended flags: %w", i, ErrIndexVersionUnsupported)
		}

		// The path starts right after the flags and ends at the
		// first NUL. The length stored in the flags cannot be
		// trusted for paths longer than 0xFFF bytes
		pathStart := offset + indexEntryHeaderSize
		nameLen := int(e.Flags & indexMaxPathSize)
		// the name length is derivable from the path, we only keep
		// the meaningful bits in memory
		e.Flags &^= indexMaxPathSize
		var pathEnd int
		if nameLen < indexMaxPathSize {
			pathEnd = pathStart + nameLen
			if pathEnd > checksumOffset || data[pathEnd] != 0 {
				return nil, xerrors.Errorf("entry %d has an invalid path length: %w", i, ErrIndexInvalid)
			}
		} else {
			rel := bytes.IndexByte(data[pathStart:checksumOffset], 0)
			if rel < 0 {
				return nil, xerrors.Errorf("entry %d has an unterminated path: %w", i, ErrIndexInvalid)
			}
			pathEnd = pathStart + rel
		}
		e.Path = string(data[pathStart:pathEnd])

		offset += paddedEntrySize(pathEnd - pathStart)
		if offset > checksumOffset {
			return nil, xerrors.Errorf("entry %d overflows the file: %w", i, ErrIndexInvalid)
		}

		idx.entries = append(idx.entries, e)
	}

	// Entries must be sorted and unique, we reject any file
	// violating the invariant instead of silently fixing it
	for i := 1; i < len(idx.entries); i++ {
		if idx.entries[i-1].Path >= idx.entries[i].Path {
			return nil, xerrors.Errorf("entries are not sorted: %w", ErrIndexInvalid)
		}
	}

	// Whatever is left between the entries and the checksum is
	// extension data, which we ignore

	return idx, nil
}

// paddedEntrySize returns the on-disk size of an entry, including
// the NUL padding that aligns it on 8 bytes
func paddedEntrySize(pathLen int) int {
	size := indexEntryHeaderSize + pathLen
	pad := 8 - size%8
	return size + pad
}

// Bytes serializes the index to its on-disk format.
// The output is byte-stable: serializing the same index twice yields
// the same bytes
func (idx *Index) Bytes() []byte {
	buf := new(bytes.Buffer)
	buf.Write(indexMagic)

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:], indexVersion)
	binary.BigEndian.PutUint32(header[4:], uint32(len(idx.entries)))
	buf.Write(header)

	scratch := make([]byte, indexEntryHeaderSize)
	for _, e := range idx.entries {
		binary.BigEndian.PutUint32(scratch[0:], e.CtimeSec)
		binary.BigEndian.PutUint32(scratch[4:], e.CtimeNano)
		binary.BigEndian.PutUint32(scratch[8:], e.MtimeSec)
		binary.BigEndian.PutUint32(scratch[12:], e.MtimeNano)
		binary.BigEndian.PutUint32(scratch[16:], e.Dev)
		binary.BigEndian.PutUint32(scratch[20:], e.Ino)
		binary.BigEndian.PutUint32(scratch[24:], e.Mode)
		binary.BigEndian.PutUint32(scratch[28:], e.UID)
		binary.BigEndian.PutUint32(scratch[32:], e.GID)
		binary.BigEndian.PutUint32(scratch[36:], e.FileSize)
		copy(scratch[40:60], e.ID[:])

		nameLen := len(e.Path)
		if nameLen > indexMaxPathSize {
			nameLen = indexMaxPathSize
		}
		flags := e.Flags&IndexFlagAssumeValid | uint16(nameLen)
		binary.BigEndian.PutUint16(scratch[60:], flags)

		buf.Write(scratch)
		buf.WriteString(e.Path)
		for i := paddedEntrySize(len(e.Path)) - indexEntryHeaderSize - len(e.Path); i > 0; i-- {
			buf.WriteByte(0)
		}
	}

	sum := sha1.Sum(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes()
}

// Len returns the number of entries in the index
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entries returns the entries of the index, sorted by path.
// The returned slice must not be mutated
func (idx *Index) Entries() []*IndexEntry {
	return idx.entries
}

// Entry returns the entry matching the given path, or nil
func (idx *Index) Entry(path string) *IndexEntry {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Path >= path
	})
	if i < len(idx.entries) && idx.entries[i].Path == path {
		return idx.entries[i]
	}
	return nil
}

// Has returns whether the given path is tracked in the index
func (idx *Index) Has(path string) bool {
	return idx.Entry(path) != nil
}

// Upsert inserts the given entry, replacing any existing entry with
// the same path. The sorted + unique invariant is preserved
func (idx *Index) Upsert(e *IndexEntry) {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Path >= e.Path
	})
	if i < len(idx.entries) && idx.entries[i].Path == e.Path {
		idx.entries[i] = e
		return
	}
	idx.entries = append(idx.entries, nil)
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = e
}

// Remove deletes the entry matching the given path and reports
// whether an entry was deleted
func (idx *Index) Remove(path string) bool {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Path >= path
	})
	if i >= len(idx.entries) || idx.entries[i].Path != path {
		return false
	}
	idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	return true
}
