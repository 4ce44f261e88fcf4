package mingit

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"github.com/Nivl/mingit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Checkout switches the working tree, the index, and HEAD to the
// given target.
//
// If the target is a branch name HEAD is attached to it, otherwise
// the target is resolved as a revision and HEAD is detached.
//
// The operation is refused (ErrDirtyWorktree) if it would overwrite
// uncommitted changes: a path whose index or worktree content
// differs from HEAD is only safe to switch if HEAD and the target
// agree on it
func (r *Repository) Checkout(target string) error {
	// A branch name attaches HEAD, anything else detaches it
	var commitID ginternals.Oid
	branchName := ""

	ref, err := r.dotGit.Reference(gitpath.LocalBranch(target))
	switch {
	case err == nil:
		if ref.Target().IsZero() {
			return xerrors.Errorf("branch %s: %w", target, ErrUnbornBranch)
		}
		branchName = target
		commitID = ref.Target()
	case errors.Is(err, ginternals.ErrRefNotFound):
		commitID, err = r.ResolveRevision(target)
		if err != nil {
			return err
		}
	default:
		return err
	}

	c, err := r.Commit(commitID)
	if err != nil {
		return xerrors.Errorf("%s does not point to a commit: %w", target, err)
	}
	targetEntries, err := r.TreeEntries(c.TreeID())
	if err != nil {
		return err
	}

	headEntries, err := r.headTreeEntries()
	if err != nil {
		return err
	}
	idx, err := r.Index()
	if err != nil {
		return err
	}

	if err := r.checkCheckoutSafety(idx, headEntries, targetEntries); err != nil {
		return err
	}

	// Materialize the target tree. The index is rebuilt from
	// scratch with the stat data of the freshly written files
	newIdx := ginternals.NewIndex()
	for path, e := range targetEntries {
		fi, err := r.writeWorktreeFile(path, e)
		if err != nil {
			return err
		}
		newIdx.Upsert(r.indexEntryFromFile(path, e.ID, e.Mode, fi))
	}

	// Files tracked by HEAD but absent from the target get deleted
	for path := range headEntries {
		if _, ok := targetEntries[path]; ok {
			continue
		}
		if err := r.wt.Remove(r.workTreeAbs(path)); err != nil && !os.IsNotExist(err) {
			return xerrors.Errorf("could not remove %s: %w", path, err)
		}
		r.pruneEmptyDirs(path)
	}

	if err := r.dotGit.WriteIndex(newIdx); err != nil {
		return err
	}

	// Finally move HEAD
	var newHead *ginternals.Reference
	switch branchName {
	case "":
		newHead = ginternals.NewReference(ginternals.Head, commitID)
	default:
		newHead = ginternals.NewSymbolicReference(ginternals.Head, gitpath.LocalBranch(branchName))
	}
	if err := r.dotGit.WriteReference(newHead); err != nil {
		return xerrors.Errorf("could not update HEAD: %w", err)
	}
	return nil
}

// checkCheckoutSafety refuses a checkout that would lose local
// changes
func (r *Repository) checkCheckoutSafety(idx *ginternals.Index, headEntries, targetEntries map[string]object.TreeEntry) error {
	// collect every path involved
	paths := map[string]struct{}{}
	for p := range headEntries {
		paths[p] = struct{}{}
	}
	for p := range targetEntries {
		paths[p] = struct{}{}
	}
	for _, e := range idx.Entries() {
		paths[e.Path] = struct{}{}
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, path := range sorted {
		he, inHead := headEntries[path]
		te, inTarget := targetEntries[path]

		// HEAD and target agree: whatever the local state is, the
		// checkout won't touch it
		if inHead == inTarget && (!inHead || (he.ID == te.ID && he.Mode == te.Mode)) {
			continue
		}

		e := idx.Entry(path)

		// dirty index?
		dirty := false
		switch {
		case e == nil:
			dirty = inHead // staged deletion
		case !inHead:
			dirty = true // staged addition
		case e.ID != he.ID || e.Mode != uint32(he.Mode):
			dirty = true // staged modification
		}

		// dirty worktree?
		if !dirty && e != nil {
			same, err := r.entryMatchesWorktree(e)
			if err != nil {
				return err
			}
			dirty = !same
		}

		// untracked file in the way of the target?
		if !dirty && e == nil && !inHead && inTarget {
			abs := r.workTreeAbs(path)
			if fi, err := r.lstat(abs); err == nil {
				data, mode, err := r.readBlobContent(abs, fi)
				if err != nil {
					return err
				}
				// overwriting with identical content loses nothing
				dirty = mode != te.Mode || object.New(object.TypeBlob, data).ID() != te.ID
			}
		}

		if dirty {
			// local changes that already match the target aren't
			// overwritten by the checkout, nothing can be lost
			if e != nil && inTarget && e.ID == te.ID && e.Mode == uint32(te.Mode) {
				same, err := r.entryMatchesWorktree(e)
				if err != nil {
					return err
				}
				if same {
					continue
				}
			}
			return xerrors.Errorf("%s: %w", path, ErrDirtyWorktree)
		}
	}
	return nil
}

// writeWorktreeFile writes a single tree entry to the working tree,
// creating the intermediate directories
func (r *Repository) writeWorktreeFile(path string, e object.TreeEntry) (os.FileInfo, error) {
	o, err := r.dotGit.Object(e.ID)
	if err != nil {
		return nil, xerrors.Errorf("could not load blob %s for %s: %w", e.ID.String(), path, err)
	}

	abs := r.workTreeAbs(path)
	if err := r.wt.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, xerrors.Errorf("could not create the parent directory of %s: %w", path, err)
	}

	if e.Mode == object.ModeSymLink {
		if ln, ok := r.wt.(afero.Linker); ok {
			// a leftover file would make the symlink creation fail
			if err := r.wt.Remove(abs); err != nil && !os.IsNotExist(err) {
				return nil, xerrors.Errorf("could not replace %s: %w", path, err)
			}
			if err := ln.SymlinkIfPossible(string(o.Bytes()), abs); err != nil {
				return nil, xerrors.Errorf("could not create link %s: %w", path, err)
			}
			return r.lstat(abs)
		}
		// fs without symlink support: store the target as a file
	}

	perm := os.FileMode(0o644)
	if e.Mode == object.ModeExecutable {
		perm = 0o755
	}
	if err := afero.WriteFile(r.wt, abs, o.Bytes(), perm); err != nil {
		return nil, xerrors.Errorf("could not write %s: %w", path, err)
	}
	// the file may pre-exist with different perms, WriteFile only
	// applies them on creation
	if err := r.wt.Chmod(abs, perm); err != nil {
		return nil, xerrors.Errorf("could not chmod %s: %w", path, err)
	}
	return r.lstat(abs)
}

// pruneEmptyDirs removes the now-empty parent directories of a
// deleted file, stopping at the first non-empty one
func (r *Repository) pruneEmptyDirs(path string) {
	for {
		path = filepath.Dir(path)
		if path == "." || path == "/" {
			return
		}
		abs := r.workTreeAbs(path)
		infos, err := afero.ReadDir(r.wt, abs)
		if err != nil || len(infos) > 0 {
			return
		}
		if err := r.wt.Remove(abs); err != nil {
			return
		}
	}
}

// ResetMode alters what a reset touches
type ResetMode int

const (
	// ResetSoft moves HEAD and nothing else
	ResetSoft ResetMode = iota
	// ResetMixed moves HEAD and rebuilds the index from the target
	// commit, leaving the working tree untouched
	ResetMixed
)

// Reset moves the current branch (or HEAD when detached) to the
// given revision
func (r *Repository) Reset(rev string, mode ResetMode) error {
	oid, err := r.ResolveRevision(rev)
	if err != nil {
		return err
	}
	c, err := r.Commit(oid)
	if err != nil {
		return xerrors.Errorf("%s does not point to a commit: %w", rev, err)
	}

	head, err := r.Head()
	if err != nil {
		return err
	}
	if err := r.updateHead(head, oid); err != nil {
		return err
	}

	if mode == ResetMixed {
		entries, err := r.TreeEntries(c.TreeID())
		if err != nil {
			return err
		}
		idx := ginternals.NewIndex()
		for path, e := range entries {
			// no stat data: the next status will rehash the files
			idx.Upsert(&ginternals.IndexEntry{
				Path: path,
				ID:   e.ID,
				Mode: uint32(e.Mode),
			})
		}
		if err := r.dotGit.WriteIndex(idx); err != nil {
			return err
		}
	}
	return nil
}
