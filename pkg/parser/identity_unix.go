//go:build unix

package parser

import (
	"fmt"
	"io/fs"
	"syscall"
)

// statIdentity recovers the device+inode pair backing info, the
// filesystem-identity key used so that symlinked or `..`-normalized
// import paths collapse onto the same already-included entry.
func statIdentity(info fs.FileInfo) (fileIdentity, error) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileIdentity{}, fmt.Errorf("cannot determine file identity for %s", info.Name())
	}
	return fileIdentity{Dev: int64(st.Dev), Ino: st.Ino}, nil
}
