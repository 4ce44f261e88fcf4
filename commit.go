package mingit

import (
	"errors"
	"strings"

	"github.com/Nivl/mingit/env"
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"golang.org/x/xerrors"
)

// ErrNoCommitToAmend is returned when amending on an unborn branch
var ErrNoCommitToAmend = errors.New("no commit to amend")

// CommitOptions represents all the data used to create a commit
type CommitOptions struct {
	// Message is the commit message. For an amend an empty message
	// means reusing the message of the amended commit
	Message string
	// Amend replaces the commit HEAD points to instead of adding a
	// new commit on top of it: the new commit keeps the author and
	// parents of the old one, and the committer is refreshed
	Amend bool
}

// CreateCommit writes the staging index as a tree, wraps it in a
// commit object, and moves the current branch (or HEAD when
// detached) to the new commit
func (r *Repository) CreateCommit(opts CommitOptions) (*object.Commit, error) {
	idx, err := r.Index()
	if err != nil {
		return nil, err
	}

	tree, err := r.WriteTreeFromIndex(idx)
	if err != nil {
		return nil, xerrors.Errorf("could not write the tree: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return nil, xerrors.Errorf("could not resolve HEAD: %w", err)
	}
	headID := head.Target()

	author := signature(env.AuthorIdentity(r.env))
	committer := signature(env.CommitterIdentity(r.env))
	message := opts.Message
	var parents []ginternals.Oid

	switch opts.Amend {
	case false:
		if !headID.IsZero() {
			parents = []ginternals.Oid{headID}
		}
	case true:
		if headID.IsZero() {
			return nil, ErrNoCommitToAmend
		}
		amended, err := r.Commit(headID)
		if err != nil {
			return nil, xerrors.Errorf("could not load the commit to amend: %w", err)
		}
		// the amended commit is replaced: we keep its parents and
		// its author, only the committer and the tree are refreshed
		parents = amended.ParentIDs()
		author = amended.AuthorSignature()
		if message == "" {
			message = amended.Message()
		}
	}

	// the message is stored verbatim, except for a missing trailing
	// newline
	if message != "" && !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	c := object.NewCommit(tree.ID(), author, &object.CommitOptions{
		Message:   message,
		Committer: committer,
		ParentsID: parents,
	})
	if _, err := r.dotGit.WriteObject(c.ToObject()); err != nil {
		return nil, xerrors.Errorf("could not write the commit to the odb: %w", err)
	}

	if err := r.updateHead(head, c.ID()); err != nil {
		return nil, err
	}
	return c, nil
}

// updateHead moves the current branch to the given commit, or HEAD
// itself when detached
func (r *Repository) updateHead(head *ginternals.Reference, id ginternals.Oid) error {
	name := ginternals.Head
	if head.Type() == ginternals.SymbolicReference {
		name = head.SymbolicTarget()
	}
	if err := r.dotGit.WriteReference(ginternals.NewReference(name, id)); err != nil {
		return xerrors.Errorf("could not update %s: %w", name, err)
	}
	return nil
}

// signature converts an env identity into a commit signature
// stamped with the current time
func signature(id env.Identity) object.Signature {
	return object.NewSignature(id.Name, id.Email)
}
