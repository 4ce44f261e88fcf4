package mingit

import (
	"sort"
	"strings"

	"github.com/Nivl/mingit/backend"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/internal/gitpath"
	"golang.org/x/xerrors"
)

// Branch represents a local branch
type Branch struct {
	Name   string
	Target ginternals.Oid
}

// Branches returns all the local branches, sorted by name
func (r *Repository) Branches() ([]Branch, error) {
	var out []Branch
	err := r.dotGit.WalkReferences(func(ref *ginternals.Reference) error {
		if !strings.HasPrefix(ref.Name(), gitpath.RefsHeadsPath+"/") {
			return nil
		}
		out = append(out, Branch{
			Name:   gitpath.LocalBranchShortName(ref.Name()),
			Target: ref.Target(),
		})
		return nil
	})
	if err != nil && !xerrors.Is(err, backend.WalkStop) {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateBranch creates a new branch pointing to the given commit.
// ginternals.ErrRefExists is returned if the branch already exists,
// ginternals.ErrRefNameInvalid if the name is not a valid branch
// name
func (r *Repository) CreateBranch(name string, target ginternals.Oid) error {
	// the short name is validated on its own so a leading dash
	// can't hide behind the refs/heads/ prefix
	if !ginternals.IsRefNameValid(name) {
		return xerrors.Errorf("branch %q: %w", name, ginternals.ErrRefNameInvalid)
	}
	refName := gitpath.LocalBranch(name)
	if !ginternals.IsRefNameValid(refName) {
		return xerrors.Errorf("branch %q: %w", name, ginternals.ErrRefNameInvalid)
	}
	return r.dotGit.WriteReferenceSafe(ginternals.NewReference(refName, target))
}
