//go:build !unix

package parser

import "io/fs"

// statIdentity falls back to modtime+size on platforms without a
// device/inode pair; imports still resolve correctly, only the
// symlink-collapsing guarantee is weaker.
func statIdentity(info fs.FileInfo) (fileIdentity, error) {
	return fileIdentity{Dev: info.ModTime().UnixNano(), Ino: uint64(info.Size())}, nil
}
