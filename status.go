package mingit

import (
	"sort"
)

// ChangeKind represents the nature of a change between two states
// of a file
type ChangeKind int

const (
	// ChangeAdded represents a file that only exists in the newer
	// state
	ChangeAdded ChangeKind = iota
	// ChangeModified represents a file whose content or mode differs
	// between the two states
	ChangeModified
	// ChangeDeleted represents a file that only exists in the older
	// state
	ChangeDeleted
)

// String returns the label git uses for the change in status output
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "new file"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change represents a single file change
type Change struct {
	Path string
	Kind ChangeKind
}

// Status represents the state of the working tree and the index
// relative to HEAD
type Status struct {
	// Staged contains the differences between HEAD and the index
	Staged []Change
	// Unstaged contains the differences between the index and the
	// working tree
	Unstaged []Change
	// Untracked contains the files of the working tree that are
	// neither in the index nor ignored
	Untracked []string
}

// IsClean returns whether there's nothing to report
func (s *Status) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// Status compares the working tree, the index, and the tree of the
// HEAD commit, and buckets every difference into staged, unstaged,
// and untracked. Each bucket is sorted by path
func (r *Repository) Status() (*Status, error) {
	idx, err := r.Index()
	if err != nil {
		return nil, err
	}
	headEntries, err := r.headTreeEntries()
	if err != nil {
		return nil, err
	}
	matcher, err := r.ignoreMatcher()
	if err != nil {
		return nil, err
	}

	st := &Status{}

	// index vs HEAD: staged changes
	for _, e := range idx.Entries() {
		he, inHead := headEntries[e.Path]
		switch {
		case !inHead:
			st.Staged = append(st.Staged, Change{Path: e.Path, Kind: ChangeAdded})
		case he.ID != e.ID || uint32(he.Mode) != e.Mode:
			st.Staged = append(st.Staged, Change{Path: e.Path, Kind: ChangeModified})
		}
	}
	for path := range headEntries {
		if !idx.Has(path) {
			st.Staged = append(st.Staged, Change{Path: path, Kind: ChangeDeleted})
		}
	}

	// worktree vs index: unstaged changes
	for _, e := range idx.Entries() {
		abs := r.workTreeAbs(e.Path)
		if _, err := r.lstat(abs); err != nil {
			st.Unstaged = append(st.Unstaged, Change{Path: e.Path, Kind: ChangeDeleted})
			continue
		}
		same, err := r.entryMatchesWorktree(e)
		if err != nil {
			return nil, err
		}
		if !same {
			st.Unstaged = append(st.Unstaged, Change{Path: e.Path, Kind: ChangeModified})
		}
	}

	// worktree vs index: untracked files
	err = r.walkWorktree(matcher, idx, func(f worktreeFile) error {
		if !idx.Has(f.path) {
			st.Untracked = append(st.Untracked, f.path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortChanges(st.Staged)
	sortChanges(st.Unstaged)
	sort.Strings(st.Untracked)
	return st, nil
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
}
