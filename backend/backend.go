// Package backend contains interfaces and implementations to store
// and retrieve data from the odb
package backend

import (
	"errors"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
)

// Backend represents an object that can store and retrieve data
// from and to the odb
type Backend interface {
	// Close frees the resources
	Close() error

	// Init initializes a repository, using the given branch as
	// default branch
	Init(branchName string) error

	// Path returns the path to the root of the backend (.git)
	Path() string

	// Reference returns a stored reference from its name
	Reference(name string) (*ginternals.Reference, error)
	// WriteReference writes the given reference in the db. If the
	// reference already exists it will be overwritten
	WriteReference(ref *ginternals.Reference) error
	// WriteReferenceSafe writes the given reference in the db
	// ErrRefExists is returned if the reference already exists
	WriteReferenceSafe(ref *ginternals.Reference) error
	// WalkReferences runs the provided method on all the references
	WalkReferences(f RefWalkFunc) error

	// Object returns the object that has given oid
	Object(ginternals.Oid) (*object.Object, error)
	// HasObject returns whether an object exists in the odb
	HasObject(ginternals.Oid) (bool, error)
	// WriteObject adds an object to the odb
	WriteObject(*object.Object) (ginternals.Oid, error)
	// ResolveShortOid resolves an oid prefix (at least 4 hex chars)
	// to a full oid.
	// ErrObjectNotFound is returned if no object matches,
	// ErrObjectAmbiguous if more than one does
	ResolveShortOid(prefix string) (ginternals.Oid, error)

	// Index returns the staging index of the repository.
	// A missing index file yields an empty index
	Index() (*ginternals.Index, error)
	// WriteIndex atomically persists the staging index
	WriteIndex(idx *ginternals.Index) error
}

// RefWalkFunc represents a function that will be applied on all
// references found by WalkReferences()
type RefWalkFunc = func(ref *ginternals.Reference) error

// WalkStop is a fake error used to tell Walk() to stop
//nolint:errname // the linter expects all errors to start with Err,
// but since here we're faking an error we don't want that
var WalkStop = errors.New("stop walking")
