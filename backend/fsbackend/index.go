package fsbackend

import (
	"os"
	"path/filepath"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// indexPath returns the absolute path to the index file
func (b *Backend) indexPath() string {
	return filepath.Join(b.root, gitpath.IndexPath)
}

// Index returns the staging index of the repository.
// A missing index file yields an empty index, which is the state of
// a freshly initialized repository
func (b *Backend) Index() (*ginternals.Index, error) {
	data, err := afero.ReadFile(b.fs, b.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return ginternals.NewIndex(), nil
		}
		return nil, xerrors.Errorf("could not read the index: %w", err)
	}

	idx, err := ginternals.NewIndexFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("could not parse the index: %w", err)
	}
	return idx, nil
}

// WriteIndex atomically persists the staging index.
// Concurrent readers observe either the previous or the new index,
// never a torn file
func (b *Backend) WriteIndex(idx *ginternals.Index) error {
	if err := b.writeFileAtomic(b.indexPath(), idx.Bytes(), 0o644); err != nil {
		return xerrors.Errorf("could not persist the index: %w", err)
	}
	return nil
}
