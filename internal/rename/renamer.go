// Package rename 执行字幕重命名，并提供执行前的预检。
//
// 安全契约：任何情况下都不覆盖已存在的其他文件；单条失败不影响其他条目，也不回滚。
package rename

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
)

// Renamer 是唯一会修改文件系统的组件。
type Renamer struct {
	fs  afero.Fs
	log zerolog.Logger
}

func New(fsys afero.Fs, log zerolog.Logger) *Renamer {
	if fsys == nil {
		fsys = fsx.OS()
	}
	return &Renamer{fs: fsys, log: log}
}

// RenameFiles 使用真实文件系统。
func RenameFiles(records []domain.MatchRecord) []domain.RenameResult {
	return New(fsx.OS(), zerolog.Nop()).RenameFiles(records)
}

// Validate 使用真实文件系统。
func Validate(records []domain.MatchRecord) domain.ValidationReport {
	return New(fsx.OS(), zerolog.Nop()).Validate(records)
}

// RenameFiles 逐条执行重命名；没有字幕或目标路径的记录直接跳过（不产生结果）。
//
// 检查与移动之间存在 TOCTOU 窗口，移动时不做二次确认：期间消失的源文件表现为
// rename 本身的错误（os_failure）；期间出现的目标文件会被 rename 替换。
func (r *Renamer) RenameFiles(records []domain.MatchRecord) []domain.RenameResult {
	out := make([]domain.RenameResult, 0, len(records))
	for _, rec := range records {
		if !rec.Renamable() {
			continue
		}
		res := r.renameOne(rec.SubtitlePath, rec.ProposedSubtitlePath)
		if res.Succeeded {
			r.log.Info().Str("src", res.OriginalPath).Str("dst", res.TargetPath).Msg("字幕已重命名")
		} else {
			r.log.Warn().Str("src", res.OriginalPath).Str("dst", res.TargetPath).
				Str("error_code", res.ErrorCode).Msg(res.ErrorMsg)
		}
		out = append(out, res)
	}
	return out
}

func (r *Renamer) renameOne(src, dst string) domain.RenameResult {
	res := domain.RenameResult{OriginalPath: src, TargetPath: dst}

	ok, err := fsx.Exists(r.fs, src)
	if err != nil {
		return failWith(res, err)
	}
	if !ok {
		res.ErrorCode = domain.ErrCodeSourceNotFound
		res.ErrorMsg = fmt.Sprintf("源文件不存在：%s", filepath.Base(src))
		return res
	}

	same := filepath.Clean(src) == filepath.Clean(dst)
	if !same {
		exists, err := fsx.Exists(r.fs, dst)
		if err != nil {
			return failWith(res, err)
		}
		if exists {
			res.ErrorCode = domain.ErrCodeTargetExists
			res.ErrorMsg = fmt.Sprintf("目标文件已存在：%s", filepath.Base(dst))
			return res
		}
	}

	if same {
		// 名字已经一致：视为成功，文件不动。
		res.Succeeded = true
		return res
	}

	if err := r.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return failWith(res, err)
	}
	if err := fsx.Rename(r.fs, src, dst); err != nil {
		return failWith(res, err)
	}

	res.Succeeded = true
	return res
}

// failWith 把底层错误归类为 permission_denied 或 os_failure（附原始信息）。
func failWith(res domain.RenameResult, err error) domain.RenameResult {
	res.Succeeded = false
	if fsx.IsCrossDevice(err) {
		// CrossDeviceError 自带完整提示，不再加前缀。
		res.ErrorCode = domain.ErrCodeOSFailure
		res.ErrorMsg = err.Error()
		return res
	}
	if fsx.IsPermission(err) {
		res.ErrorCode = domain.ErrCodePermissionDenied
		res.ErrorMsg = fmt.Sprintf("权限不足：%v", err)
		return res
	}
	res.ErrorCode = domain.ErrCodeOSFailure
	res.ErrorMsg = fmt.Sprintf("系统错误：%v", err)
	return res
}
