package mingit

import (
	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
	"golang.org/x/xerrors"
)

// LogOptions represents all the optional data used to walk the
// history
type LogOptions struct {
	// MaxCount limits the number of commits returned.
	// 0 means no limit
	MaxCount int
}

// Log walks the history from the given commit, following the first
// parent of each commit. The walk is iterative: histories of any
// depth won't blow the stack
func (r *Repository) Log(from ginternals.Oid, opts LogOptions) ([]*object.Commit, error) {
	var out []*object.Commit

	id := from
	for !id.IsZero() {
		if opts.MaxCount > 0 && len(out) == opts.MaxCount {
			break
		}

		c, err := r.Commit(id)
		if err != nil {
			return nil, xerrors.Errorf("could not load commit %s: %w", id.String(), err)
		}
		out = append(out, c)

		parents := c.ParentIDs()
		if len(parents) == 0 {
			break
		}
		id = parents[0]
	}

	return out, nil
}
