package mingit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Nivl/mingit/ginternals"
	"github.com/Nivl/mingit/ginternals/object"
)

// TreeBuilder is used to build trees from a flat list of paths
type TreeBuilder struct {
	repo *Repository
	// entries maps a full path (with "/" separators) to the blob
	// it should contain
	entries map[string]object.TreeEntry
}

// NewTreeBuilder creates a new empty tree builder
func (r *Repository) NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		repo:    r,
		entries: map[string]object.TreeEntry{},
	}
}

// Insert inserts a new file in the tree. Intermediate directories
// are created automatically when the tree is written
func (tb *TreeBuilder) Insert(path string, oid ginternals.Oid, mode object.TreeObjectMode) error {
	if !mode.IsValid() || mode == object.ModeDirectory {
		//nolint:goerr113 // no need to wrap the error, this would only be caused by a bug in the codebase
		return fmt.Errorf("invalid mode %o for path %s", mode, path)
	}

	tb.entries[path] = object.TreeEntry{
		Mode: mode,
		Path: path,
		ID:   oid,
	}
	return nil
}

// Remove removes a file from the tree
func (tb *TreeBuilder) Remove(path string) {
	delete(tb.entries, path)
}

// treeNode holds the content of a single directory while the
// nested trees are being built
type treeNode struct {
	files []object.TreeEntry
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{
		dirs: map[string]*treeNode{},
	}
}

// Write creates and persists the tree of every directory, bottom-up,
// and returns the root tree.
// An empty builder produces the well-known empty tree
// (4b825dc642cb6eb9a060e54bf8d69288fbee4904)
func (tb *TreeBuilder) Write() (*object.Tree, error) {
	root := newTreeNode()

	// Group the flat paths by directory
	for path, e := range tb.entries {
		node := root
		parts := strings.Split(path, "/")
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.dirs[dir]
			if !ok {
				child = newTreeNode()
				node.dirs[dir] = child
			}
			node = child
		}
		node.files = append(node.files, object.TreeEntry{
			Mode: e.Mode,
			Path: parts[len(parts)-1],
			ID:   e.ID,
		})
	}

	return tb.writeNode(root)
}

// writeNode persists the tree of a single directory, recursively
// writing its subdirectories first so their ids are known
func (tb *TreeBuilder) writeNode(node *treeNode) (*object.Tree, error) {
	entries := make([]object.TreeEntry, 0, len(node.files)+len(node.dirs))
	entries = append(entries, node.files...)

	// maps are unordered, but the entries get sorted by NewTree so
	// we only need a deterministic iteration for error messages
	names := make([]string, 0, len(node.dirs))
	for name := range node.dirs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sub, err := tb.writeNode(node.dirs[name])
		if err != nil {
			return nil, err
		}
		entries = append(entries, object.TreeEntry{
			Mode: object.ModeDirectory,
			Path: name,
			ID:   sub.ID(),
		})
	}

	t := object.NewTree(entries)
	if _, err := tb.repo.dotGit.WriteObject(t.ToObject()); err != nil {
		return nil, fmt.Errorf("could not write the tree to the odb: %w", err)
	}
	return t, nil
}

// WriteTreeFromIndex folds the staging index into nested tree
// objects and returns the root tree
func (r *Repository) WriteTreeFromIndex(idx *ginternals.Index) (*object.Tree, error) {
	tb := r.NewTreeBuilder()
	for _, e := range idx.Entries() {
		if err := tb.Insert(e.Path, e.ID, object.TreeObjectMode(e.Mode)); err != nil {
			return nil, err
		}
	}
	return tb.Write()
}

// TreeEntries walks the given tree and returns all its file entries,
// keyed by their full path relative to the root of the tree
func (r *Repository) TreeEntries(treeID ginternals.Oid) (map[string]object.TreeEntry, error) {
	out := map[string]object.TreeEntry{}

	type frame struct {
		id     ginternals.Oid
		prefix string
	}
	stack := []frame{{id: treeID}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tree, err := r.Tree(f.id)
		if err != nil {
			return nil, fmt.Errorf("could not load tree %s: %w", f.id.String(), err)
		}

		for _, e := range tree.Entries() {
			path := e.Path
			if f.prefix != "" {
				path = f.prefix + "/" + e.Path
			}
			if e.Mode == object.ModeDirectory {
				stack = append(stack, frame{id: e.ID, prefix: path})
				continue
			}
			e.Path = path
			out[path] = e
		}
	}

	return out, nil
}
