//go:build unix

package fsx

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

func osCanWrite(dir string, _ fs.FileInfo) bool {
	return unix.Access(dir, unix.W_OK) == nil
}
