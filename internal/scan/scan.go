// Package scan 把命令行传入的文件/目录展开为 Matcher 需要的绝对路径列表。
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
)

type Options struct {
	// Recursive 为 true 时才进入子目录。
	Recursive bool
	// ExcludeDirs 相对被展开的目录（绝对路径按绝对路径处理）。
	ExcludeDirs []string
}

// Expand 展开输入路径。
//
// 规则：
// - 每个输入先转为绝对路径并 Clean
// - 文件原样保留（是否为媒体文件由 Matcher 判断）；不存在的输入也保留，由 Matcher 静默丢弃
// - 目录展开为其中的媒体文件，按路径排序
// - 同一路径只输出一次，保留首次出现的位置
//
// 注意：扫描阶段只做 stat，不读文件内容。
func Expand(fsys afero.Fs, inputs []string, opts Options) ([]string, error) {
	if fsys == nil {
		fsys = fsx.OS()
	}

	out := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, err
		}

		fi, err := fsys.Stat(abs)
		if err != nil || !fi.IsDir() {
			add(abs)
			continue
		}

		files, err := scanDir(fsys, abs, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

func scanDir(fsys afero.Fs, root string, opts Options) ([]string, error) {
	excluded := buildExcluded(root, opts.ExcludeDirs)

	files := make([]string, 0, 64)
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if path != root && isExcluded(path, excluded) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path != root && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() || !domain.IsMedia(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Strings(files)
	return files, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
