package fsbackend

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// looseObjectPath returns the absolute path of an object
// .git/objects/first_2_chars_of_sha/remaining_chars_of_sha
// Ex. path of fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3 is:
// .git/objects/fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func (b *Backend) looseObjectPath(sha string) string {
	return filepath.Join(b.config.ObjectDirPath, sha[:2], sha[2:])
}

// Object returns the object that has given oid
// This method can be called concurrently
func (b *Backend) Object(oid ginternals.Oid) (*object.Object, error) {
	key := oid[:]
	b.objectMu.RLock(key)
	defer b.objectMu.RUnlock(key)

	return b.objectUnsafe(oid)
}

func (b *Backend) objectUnsafe(oid ginternals.Oid) (*object.Object, error) {
	if cachedO, found := b.cache.Get(oid); found {
		if o, valid := cachedO.(*object.Object); valid {
			return o, nil
		}
	}

	o, err := b.looseObject(oid)
	if err != nil {
		return nil, err
	}
	b.cache.Add(oid, o)
	return o, nil
}

// looseObject returns the object matching the given OID.
// The on-disk content is zlib compressed and contains an ascii
// encoded type, an ascii encoded space, an ascii encoded length of
// the object, a NUL character, then the body of the object
func (b *Backend) looseObject(oid ginternals.Oid) (*object.Object, error) {
	strOid := oid.String()
	p := b.looseObjectPath(strOid)

	data, err := afero.ReadFile(b.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("object %s: %w", strOid, ginternals.ErrObjectNotFound)
		}
		return nil, xerrors.Errorf("could not read object %s at path %s: %w", strOid, p, err)
	}

	o, err := object.NewFromCompressed(data)
	if err != nil {
		return nil, xerrors.Errorf("object %s at path %s: %w", strOid, p, err)
	}

	// the id is derivable from the content, a mismatch means the
	// file was stored under the wrong path
	if o.ID() != oid {
		return nil, xerrors.Errorf("object %s has id %s: %w", strOid, o.ID().String(), object.ErrObjectCorrupted)
	}
	return o, nil
}

// HasObject returns whether an object exists in the odb
// This method can be called concurrently
func (b *Backend) HasObject(oid ginternals.Oid) (bool, error) {
	key := oid[:]
	b.objectMu.RLock(key)
	defer b.objectMu.RUnlock(key)

	return b.hasObjectUnsafe(oid)
}

func (b *Backend) hasObjectUnsafe(oid ginternals.Oid) (bool, error) {
	if _, found := b.cache.Get(oid); found {
		return true, nil
	}
	_, err := b.fs.Stat(b.looseObjectPath(oid.String()))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, xerrors.Errorf("could not check object %s: %w", oid.String(), err)
}

// WriteObject adds an object to the odb.
// The write is idempotent: writing an object that already exists
// does nothing.
// This method can be called concurrently
func (b *Backend) WriteObject(o *object.Object) (ginternals.Oid, error) {
	oid := o.ID()
	b.objectMu.Lock(oid[:])
	defer b.objectMu.Unlock(oid[:])

	// Make sure the object doesn't already exist. Objects are
	// immutable, so once on disk there's nothing left to do
	found, err := b.hasObjectUnsafe(oid)
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not check if object (%s) already exists: %w", oid.String(), err)
	}
	if found {
		return oid, nil
	}

	data, err := o.Compress()
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not compress object: %w", err)
	}

	// Persist the data on disk
	sha := oid.String()
	p := b.looseObjectPath(sha)

	// We need to make sure the dest dir exists
	dest := filepath.Dir(p)
	if err = b.fs.MkdirAll(dest, 0o755); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not create the destination directory %s: %w", dest, err)
	}

	// We use 444 because git objects are read-only
	if err = b.writeFileAtomic(p, data, 0o444); err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not persist object %s at path %s: %w", sha, p, err)
	}

	b.cache.Add(oid, o)
	return oid, nil
}

// ResolveShortOid resolves an oid prefix to a full oid by scanning
// the fanout directory matching the 2 first chars of the prefix.
// ErrObjectNotFound is returned if no object matches,
// ErrObjectAmbiguous if more than one does
func (b *Backend) ResolveShortOid(prefix string) (ginternals.Oid, error) {
	if len(prefix) < 4 || len(prefix) > ginternals.OidSize*2 {
		return ginternals.NullOid, xerrors.Errorf("prefix %s: %w", prefix, ginternals.ErrObjectNotFound)
	}

	if len(prefix) == ginternals.OidSize*2 {
		oid, err := ginternals.NewOidFromStr(prefix)
		if err != nil {
			return ginternals.NullOid, xerrors.Errorf("prefix %s: %w", prefix, ginternals.ErrObjectNotFound)
		}
		ok, err := b.HasObject(oid)
		if err != nil {
			return ginternals.NullOid, err
		}
		if !ok {
			return ginternals.NullOid, xerrors.Errorf("object %s: %w", prefix, ginternals.ErrObjectNotFound)
		}
		return oid, nil
	}

	fanout := filepath.Join(b.config.ObjectDirPath, prefix[:2])
	infos, err := afero.ReadDir(b.fs, fanout)
	if err != nil {
		if os.IsNotExist(err) {
			return ginternals.NullOid, xerrors.Errorf("prefix %s: %w", prefix, ginternals.ErrObjectNotFound)
		}
		return ginternals.NullOid, xerrors.Errorf("could not scan %s: %w", fanout, err)
	}

	var matches []string
	rest := prefix[2:]
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), rest) {
			matches = append(matches, prefix[:2]+info.Name())
		}
	}

	switch len(matches) {
	case 0:
		return ginternals.NullOid, xerrors.Errorf("prefix %s: %w", prefix, ginternals.ErrObjectNotFound)
	case 1:
		return ginternals.NewOidFromStr(matches[0])
	default:
		sort.Strings(matches)
		return ginternals.NullOid, xerrors.Errorf("prefix %s matches %d objects: %w", prefix, len(matches), ginternals.ErrObjectAmbiguous)
	}
}
