package mingit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/gitignore"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

var (
	// ErrPathspecNoMatch is returned when a provided path doesn't
	// match any file
	ErrPathspecNoMatch = errors.New("pathspec did not match any files")

	// ErrPathIgnored is returned when explicitly adding an untracked
	// file that is ignored
	ErrPathIgnored = errors.New("path is ignored by one of your .gitignore files")

	// ErrLocalChanges is returned when removing a file that has
	// local changes
	ErrLocalChanges = errors.New("file has local modifications")

	// ErrDirtyWorktree is returned when an operation would overwrite
	// local changes
	ErrDirtyWorktree = errors.New("local changes would be overwritten")
)

// ignoreMatcher compiles the .gitignore file at the root of the
// working tree. A missing file yields a matcher that ignores nothing
func (r *Repository) ignoreMatcher() (*gitignore.Matcher, error) {
	data, err := afero.ReadFile(r.wt, r.workTreeAbs(gitpath.GitignorePath))
	if err != nil {
		if os.IsNotExist(err) {
			return gitignore.NewMatcher(nil), nil
		}
		return nil, xerrors.Errorf("could not read %s: %w", gitpath.GitignorePath, err)
	}
	return gitignore.NewMatcher(data), nil
}

// lstat stats a file of the working tree without following
// symbolic links, when the filesystem supports it
func (r *Repository) lstat(abs string) (os.FileInfo, error) {
	if lst, ok := r.wt.(afero.Lstater); ok {
		fi, _, err := lst.LstatIfPossible(abs)
		return fi, err
	}
	return r.wt.Stat(abs)
}

// readBlobContent returns the content and tree mode of a worktree
// file the way it would be committed: symbolic links are stored as
// blobs holding their target
func (r *Repository) readBlobContent(abs string, fi os.FileInfo) ([]byte, object.TreeObjectMode, error) {
	if fi.Mode()&os.FileMode(os.ModeSymlink) != 0 {
		lr, ok := r.wt.(afero.LinkReader)
		if !ok {
			// the fs cannot read links, fall back to the file content
			data, err := afero.ReadFile(r.wt, abs)
			return data, object.ModeFile, err
		}
		target, err := lr.ReadlinkIfPossible(abs)
		if err != nil {
			return nil, 0, xerrors.Errorf("could not read link %s: %w", abs, err)
		}
		return []byte(target), object.ModeSymLink, nil
	}

	data, err := afero.ReadFile(r.wt, abs)
	if err != nil {
		return nil, 0, xerrors.Errorf("could not read %s: %w", abs, err)
	}

	mode := object.ModeFile
	if fi.Mode()&0o100 != 0 {
		mode = object.ModeExecutable
	}
	return data, mode, nil
}

// indexEntryFromFile builds an index entry for a worktree file,
// caching its current stat data so later status checks can skip
// rehashing it
func (r *Repository) indexEntryFromFile(relPath string, id ginternals.Oid, mode object.TreeObjectMode, fi os.FileInfo) *ginternals.IndexEntry {
	e := &ginternals.IndexEntry{
		Path:      relPath,
		ID:        id,
		Mode:      uint32(mode),
		MtimeSec:  uint32(fi.ModTime().Unix()),
		MtimeNano: uint32(fi.ModTime().Nanosecond()),
		FileSize:  uint32(fi.Size()),
	}
	// ctime is not portably available, the mtime is a good enough
	// approximation for the stat shortcut
	e.CtimeSec = e.MtimeSec
	e.CtimeNano = e.MtimeNano
	sysStat(fi, e)
	return e
}

// entryMatchesWorktree returns whether the worktree content of the
// entry's path matches what's staged.
//
// If the cached stat data (mtime, size, ino) of the entry matches
// the file, the content is assumed unchanged. Otherwise the file is
// rehashed and compared by id
func (r *Repository) entryMatchesWorktree(e *ginternals.IndexEntry) (bool, error) {
	abs := r.workTreeAbs(e.Path)
	fi, err := r.lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, xerrors.Errorf("could not stat %s: %w", e.Path, err)
	}
	if fi.IsDir() {
		return false, nil
	}

	// stat shortcut
	if uint32(fi.ModTime().Unix()) == e.MtimeSec &&
		uint32(fi.ModTime().Nanosecond()) == e.MtimeNano &&
		uint32(fi.Size()) == e.FileSize &&
		statInoMatches(fi, e) {
		return true, nil
	}

	data, mode, err := r.readBlobContent(abs, fi)
	if err != nil {
		return false, err
	}
	if uint32(mode) != e.Mode {
		return false, nil
	}
	return object.New(object.TypeBlob, data).ID() == e.ID, nil
}

// worktreeFile represents a file found while walking the working
// tree
type worktreeFile struct {
	path string
	info os.FileInfo
}

// walkWorktree yields every file of the working tree that is not
// ignored, plus the ignored ones that are already tracked.
// Files are yielded in afero.Walk order: the entries of each
// directory are visited sorted by name
func (r *Repository) walkWorktree(matcher *gitignore.Matcher, idx *ginternals.Index, fn func(f worktreeFile) error) error {
	root := r.Config.WorkTreePath
	return afero.Walk(r.wt, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if info.Name() == gitpath.DotGitPath {
				return filepath.SkipDir
			}
			if matcher.IsIgnored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.IsIgnored(rel, false) && !idx.Has(rel) {
			return nil
		}
		return fn(worktreeFile{path: rel, info: info})
	})
}

// Add stages the given paths: every file is hashed, stored in the
// odb, and recorded in the index with its current stat data.
//
// Directories are expanded recursively, silently skipping ignored
// files. Explicitly naming an untracked ignored file is an error
// (ErrPathIgnored); tracked files can always be re-added.
// A tracked file that no longer exists in the working tree is
// removed from the index
func (r *Repository) Add(paths []string) error {
	idx, err := r.Index()
	if err != nil {
		return err
	}
	matcher, err := r.ignoreMatcher()
	if err != nil {
		return err
	}

	var toStage []string
	var toRemove []string

	for _, p := range paths {
		rel, err := r.workTreePath(p)
		if err != nil {
			return err
		}

		abs := r.workTreeAbs(rel)
		fi, err := r.lstat(abs)
		if err != nil {
			if !os.IsNotExist(err) {
				return xerrors.Errorf("could not stat %s: %w", rel, err)
			}
			// the file is gone: adding a deleted tracked file stages
			// the deletion
			if idx.Has(rel) {
				toRemove = append(toRemove, rel)
				continue
			}
			return xerrors.Errorf("%s: %w", p, ErrPathspecNoMatch)
		}

		if !fi.IsDir() {
			if matcher.IsIgnored(rel, false) && !idx.Has(rel) {
				return xerrors.Errorf("%s: %w", p, ErrPathIgnored)
			}
			toStage = append(toStage, rel)
			continue
		}

		// directory: stage everything under it
		prefix := rel + "/"
		if rel == "." {
			prefix = ""
		}
		err = r.walkWorktree(matcher, idx, func(f worktreeFile) error {
			if prefix == "" || strings.HasPrefix(f.path, prefix) {
				toStage = append(toStage, f.path)
			}
			return nil
		})
		if err != nil {
			return err
		}

		// files tracked under this directory but deleted from the
		// worktree get their deletion staged
		for _, e := range idx.Entries() {
			if prefix != "" && !strings.HasPrefix(e.Path, prefix) {
				continue
			}
			if _, err := r.lstat(r.workTreeAbs(e.Path)); os.IsNotExist(err) {
				toRemove = append(toRemove, e.Path)
			}
		}
	}

	for _, rel := range toStage {
		abs := r.workTreeAbs(rel)
		fi, err := r.lstat(abs)
		if err != nil {
			return xerrors.Errorf("could not stat %s: %w", rel, err)
		}
		data, mode, err := r.readBlobContent(abs, fi)
		if err != nil {
			return err
		}

		o := object.New(object.TypeBlob, data)
		if _, err := r.dotGit.WriteObject(o); err != nil {
			return xerrors.Errorf("could not write blob for %s: %w", rel, err)
		}
		idx.Upsert(r.indexEntryFromFile(rel, o.ID(), mode, fi))
	}

	for _, rel := range toRemove {
		idx.Remove(rel)
	}

	return r.dotGit.WriteIndex(idx)
}

// Rm removes the given paths from the index and the working tree.
// To avoid losing data, a file with staged or unstaged changes is
// not removed (ErrLocalChanges)
func (r *Repository) Rm(paths []string) error {
	idx, err := r.Index()
	if err != nil {
		return err
	}
	headEntries, err := r.headTreeEntries()
	if err != nil {
		return err
	}

	var toRemove []string
	for _, p := range paths {
		rel, err := r.workTreePath(p)
		if err != nil {
			return err
		}
		e := idx.Entry(rel)
		if e == nil {
			return xerrors.Errorf("%s: %w", p, ErrPathspecNoMatch)
		}

		// staged changes?
		he, tracked := headEntries[rel]
		if !tracked || he.ID != e.ID || uint32(he.Mode) != e.Mode {
			return xerrors.Errorf("%s has staged changes: %w", p, ErrLocalChanges)
		}

		// unstaged changes? A deleted file is fine, there's nothing
		// left to lose
		if _, err := r.lstat(r.workTreeAbs(rel)); err == nil {
			same, err := r.entryMatchesWorktree(e)
			if err != nil {
				return err
			}
			if !same {
				return xerrors.Errorf("%s has local modifications: %w", p, ErrLocalChanges)
			}
		}

		toRemove = append(toRemove, rel)
	}

	for _, rel := range toRemove {
		idx.Remove(rel)
		if err := r.wt.Remove(r.workTreeAbs(rel)); err != nil && !os.IsNotExist(err) {
			return xerrors.Errorf("could not remove %s: %w", rel, err)
		}
	}

	return r.dotGit.WriteIndex(idx)
}

// RestoreStaged resets the index entries of the given paths to
// their HEAD version, leaving the working tree untouched.
// Paths absent from HEAD are removed from the index
func (r *Repository) RestoreStaged(paths []string) error {
	idx, err := r.Index()
	if err != nil {
		return err
	}
	headEntries, err := r.headTreeEntries()
	if err != nil {
		return err
	}

	for _, p := range paths {
		rel, err := r.workTreePath(p)
		if err != nil {
			return err
		}

		he, inHead := headEntries[rel]
		if !inHead {
			if !idx.Remove(rel) {
				return xerrors.Errorf("%s: %w", p, ErrPathspecNoMatch)
			}
			continue
		}

		// the stat data is zeroed on purpose: the next status will
		// rehash the file instead of trusting a stale cache
		idx.Upsert(&ginternals.IndexEntry{
			Path: rel,
			ID:   he.ID,
			Mode: uint32(he.Mode),
		})
	}

	return r.dotGit.WriteIndex(idx)
}

// headTreeEntries returns the file entries of the tree HEAD points
// to, keyed by path. An unborn branch yields an empty map
func (r *Repository) headTreeEntries() (map[string]object.TreeEntry, error) {
	head, err := r.Head()
	if err != nil {
		return nil, err
	}
	if head.Target().IsZero() {
		return map[string]object.TreeEntry{}, nil
	}
	c, err := r.Commit(head.Target())
	if err != nil {
		return nil, xerrors.Errorf("could not load the HEAD commit: %w", err)
	}
	return r.TreeEntries(c.TreeID())
}
