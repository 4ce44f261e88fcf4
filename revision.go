package mingit

import (
	"errors"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/internal/gitpath"
	"golang.org/x/xerrors"
)

// ErrUnbornBranch is returned when resolving a reference that exists
// but doesn't contain any commit yet, like HEAD in a freshly
// initialized repository
var ErrUnbornBranch = errors.New("branch does not contain any commit")

// isHex returns whether the given string only contains hexadecimal
// characters
func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ResolveRevision maps a user-provided revision to an object id.
//
// Accepted revisions:
// - HEAD
// - a branch name (master) or a full ref name (refs/heads/master)
// - a full 40-char object id
// - a unique object id prefix of at least 4 chars
//
// ErrUnbornBranch is returned for a reference with no commit,
// ginternals.ErrObjectNotFound when nothing matches, and
// ginternals.ErrObjectAmbiguous when a prefix matches several
// objects
func (r *Repository) ResolveRevision(rev string) (ginternals.Oid, error) {
	if rev == "" {
		return ginternals.NullOid, xerrors.Errorf("empty revision: %w", ginternals.ErrObjectNotFound)
	}

	// References first: HEAD, branch names, full ref names.
	// A valid ref takes precedence over an oid prefix, matching
	// git's behavior with ambiguous names
	toTry := []string{
		rev,
		gitpath.LocalBranch(rev),
		gitpath.LocalTag(rev),
		gitpath.Ref(rev),
	}
	for _, refName := range toTry {
		if !ginternals.IsRefNameValid(refName) {
			continue
		}
		ref, err := r.dotGit.Reference(refName)
		if err == nil {
			if ref.Target().IsZero() {
				return ginternals.NullOid, xerrors.Errorf(`ref "%s": %w`, refName, ErrUnbornBranch)
			}
			return ref.Target(), nil
		}
		if !errors.Is(err, ginternals.ErrRefNotFound) {
			return ginternals.NullOid, xerrors.Errorf("could not check if ref %s exists: %w", refName, err)
		}
	}

	// Not a ref, the revision must then be an oid or an oid prefix
	if len(rev) >= 4 && len(rev) <= ginternals.OidSize*2 && isHex(rev) {
		return r.dotGit.ResolveShortOid(rev)
	}

	return ginternals.NullOid, xerrors.Errorf("revision %s: %w", rev, ginternals.ErrObjectNotFound)
}
