package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// OS 返回真实文件系统。所有上层组件都通过 afero.Fs 访问磁盘，测试可替换为内存实现。
func OS() afero.Fs {
	return afero.NewOsFs()
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 按产品契约：遇到 EXDEV 必须失败并提示用户，不做 copy+delete。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q；请确保源与目标在同一文件系统（本工具不会隐式 copy+delete）：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// IsPermission 判断 err 是否为权限错误（EACCES/EPERM 都会命中 fs.ErrPermission）。
func IsPermission(err error) bool {
	return errors.Is(err, os.ErrPermission)
}

// Rename 封装 Fs.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(fsys afero.Fs, src, dst string) error {
	if err := fsys.Rename(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// Exists 报告 path 是否存在（目录也算）。
// 除“不存在”以外的 stat 错误原样返回，由调用方决定如何归类。
func Exists(fsys afero.Fs, path string) (bool, error) {
	_, err := fsys.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsRegularFile 报告 path 是否为普通文件（跟随符号链接）。任何错误都视为 false。
func IsRegularFile(fsys afero.Fs, path string) bool {
	fi, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}

// NearestExistingDir 自 dir 向上查找第一个已存在的目录。
// 返回值 missing 表示 dir 本身不存在（需要 MkdirAll 创建）。
func NearestExistingDir(fsys afero.Fs, dir string) (existing string, missing bool, err error) {
	cur := filepath.Clean(dir)
	for {
		fi, e := fsys.Stat(cur)
		if e == nil {
			if !fi.IsDir() {
				return "", missing, fmt.Errorf("%q 不是目录", cur)
			}
			return cur, missing, nil
		}
		if !os.IsNotExist(e) {
			return "", missing, e
		}
		missing = true
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", missing, e
		}
		cur = parent
	}
}

// CanWrite 报告当前进程能否在目录 dir 中创建/重命名文件。
// 真实文件系统用 access(2)（见 access_*.go）；其他 Fs 退化为检查权限位。
func CanWrite(fsys afero.Fs, dir string) (bool, error) {
	fi, err := fsys.Stat(dir)
	if err != nil {
		return false, err
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("%q 不是目录", dir)
	}
	if _, ok := fsys.(*afero.OsFs); ok {
		return osCanWrite(dir, fi), nil
	}
	return fi.Mode().Perm()&0o200 != 0, nil
}

// WriteFileAtomic 在 dir 下原子写入 name（临时文件 + rename），目标已存在则覆盖。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - 只用于内部状态（batch.json 等）；字幕本身从不经由这里写入
func WriteFileAtomic(fsys afero.Fs, dir, name string, data []byte) error {
	return writeFileAtomic(fsys, dir, name, data, 0o644)
}

func writeFileAtomic(fsys afero.Fs, dir, name string, data []byte, perm os.FileMode) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，避免污染目录视图）。
	tmp, err := afero.TempFile(fsys, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpName, perm); err != nil {
		return err
	}

	if err := Rename(fsys, tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(fsys, dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(fsys afero.Fs, dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	if _, ok := fsys.(*afero.OsFs); !ok {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
