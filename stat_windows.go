//go:build windows
// +build windows

package mingit

import (
	"os"

	"github.com/Nivl/mingit/ginternals"
)

// sysStat is a no-op on windows: the index keeps 0 for the fields
// stat(2) doesn't provide there
func sysStat(fi os.FileInfo, e *ginternals.IndexEntry) {}

// statInoMatches always matches on windows since inodes aren't
// tracked
func statInoMatches(fi os.FileInfo, e *ginternals.IndexEntry) bool {
	return true
}
