//go:build !windows
// +build !windows

package mingit

import (
	"os"
	"syscall"

	"github.com/Nivl/mingit/ginternals"
)

// sysStat copies the system-specific stat fields into an index
// entry. Backends that don't expose a syscall.Stat_t (like an
// in-memory fs) leave the fields at 0
func sysStat(fi os.FileInfo, e *ginternals.IndexEntry) {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		e.Dev = uint32(st.Dev)
		e.Ino = uint32(st.Ino)
		e.UID = uint32(st.Uid)
		e.GID = uint32(st.Gid)
	}
}

// statInoMatches reports whether the inode cached in the entry still
// matches the file. Entries with no cached inode (0) are considered
// matching: there's nothing to compare against
func statInoMatches(fi os.FileInfo, e *ginternals.IndexEntry) bool {
	if e.Ino == 0 {
		return true
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}
	return uint32(st.Ino) == e.Ino
}
