// Package fsbackend contains an implementation of the backend.Backend
// interface for the filesystem
package fsbackend

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/Nivl/mingit/backend"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/config"
	"github.com/Nivl/mingit/internal/cache"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/Nivl/mingit/internal/syncutil"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// we make sure the struct implements the interface
var _ backend.Backend = (*Backend)(nil)

// objectsCacheSize is the number of objects kept in memory to
// avoid hitting the disk
const objectsCacheSize = 1_000

// Backend is a Backend implementation that uses the filesystem to
// store data
type Backend struct {
	fs       afero.Fs
	config   *config.Config
	root     string
	cache    *cache.LRU
	objectMu *syncutil.NamedMutex
}

// New returns a new Backend object using the given configuration
func New(cfg *config.Config) *Backend {
	// objectsCacheSize is a valid constant, the error cannot trigger
	lruCache, _ := cache.NewLRU(objectsCacheSize)
	return &Backend{
		fs:       cfg.FS,
		config:   cfg,
		root:     cfg.GitDirPath,
		cache:    lruCache,
		objectMu: syncutil.NewNamedMutex(101),
	}
}

// Close frees the resources
func (b *Backend) Close() error {
	b.cache.Clear()
	return nil
}

// Path returns the path to the root of the backend (.git)
func (b *Backend) Path() string {
	return b.root
}

// Init initializes a repository
// Calling this method on an existing repository is safe. It will not
// overwrite things that are already there, but will add what's missing
func (b *Backend) Init(branchName string) error {
	// Create the directories
	dirs := []string{
		gitpath.ObjectsPath,
		gitpath.RefsTagsPath,
		gitpath.RefsHeadsPath,
		gitpath.ObjectsInfoPath,
		gitpath.ObjectsPackPath,
	}
	for _, d := range dirs {
		fullPath := filepath.Join(b.root, filepath.FromSlash(d))
		if err := b.fs.MkdirAll(fullPath, 0o750); err != nil {
			return xerrors.Errorf("could not create directory %s: %w", d, err)
		}
	}

	// Create the files with the default content
	// (taken from a repo created on github)
	files := []struct {
		path    string
		content []byte
	}{
		{
			path:    gitpath.DescriptionPath,
			content: []byte("Unnamed repository; edit this file 'description' to name the repository.\n"),
		},
	}
	for _, f := range files {
		fullPath := filepath.Join(b.root, f.path)
		if _, err := b.fs.Stat(fullPath); err == nil {
			continue
		}
		if err := afero.WriteFile(b.fs, fullPath, f.content, 0o644); err != nil {
			return xerrors.Errorf("could not create file %s: %w", f.path, err)
		}
	}

	if err := b.setDefaultCfg(); err != nil {
		return xerrors.Errorf("could not set the default config: %w", err)
	}

	// Create HEAD if it doesn't exist yet
	ref := ginternals.NewSymbolicReference(ginternals.Head, gitpath.LocalBranch(branchName))
	if err := b.WriteReferenceSafe(ref); err != nil && !errors.Is(err, ginternals.ErrRefExists) {
		return xerrors.Errorf("could not write HEAD: %w", err)
	}

	return nil
}

// writeFileAtomic persists data at the given path using a
// write-to-temp-then-rename so concurrent readers never observe
// a torn file
func (b *Backend) writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	// the temp file must live in the same directory as its final
	// destination so the rename stays on the same filesystem
	tmp, err := afero.TempFile(b.fs, filepath.Dir(path), "tmp-")
	if err != nil {
		return xerrors.Errorf("could not create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck // we already have an error to report
		b.fs.Remove(tmpName)  //nolint:errcheck // best effort cleanup
		return xerrors.Errorf("could not write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()          //nolint:errcheck // we already have an error to report
		b.fs.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return xerrors.Errorf("could not sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		b.fs.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return xerrors.Errorf("could not close %s: %w", tmpName, err)
	}

	if err = b.fs.Chmod(tmpName, perm); err != nil {
		b.fs.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return xerrors.Errorf("could not chmod %s: %w", tmpName, err)
	}
	if err = b.fs.Rename(tmpName, path); err != nil {
		// some filesystems refuse to replace an existing file
		if rmErr := b.fs.Remove(path); rmErr == nil {
			err = b.fs.Rename(tmpName, path)
		}
	}
	if err != nil {
		b.fs.Remove(tmpName) //nolint:errcheck // best effort cleanup
		return xerrors.Errorf("could not rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}
