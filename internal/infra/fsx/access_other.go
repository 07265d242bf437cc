//go:build !unix

package fsx

import "io/fs"

// 非 unix 平台没有 access(2)；以只读属性为准。
func osCanWrite(_ string, fi fs.FileInfo) bool {
	return fi.Mode().Perm()&0o200 != 0
}
