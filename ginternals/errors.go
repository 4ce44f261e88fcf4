package ginternals

import "errors"

var (
	// ErrObjectNotFound is an error corresponding to a git object not
	// being found
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectAmbiguous is an error corresponding to a short oid
	// matching more than one object
	ErrObjectAmbiguous = errors.New("short object id is ambiguous")
)
