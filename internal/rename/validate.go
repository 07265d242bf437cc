package rename

import (
	"fmt"
	"path/filepath"

	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
)

// Validate 是执行前的预检（只读，不修改文件系统）。
//
// 策略与 RenameFiles 保持一致：目标已存在且不同于源文件时记为 error（阻断），
// 因为执行阶段必然拒绝覆盖。
//
// - error：源文件不存在
// - error：目标已存在
// - error：目标目录（或将被创建时其最近的已存在上级目录）不可写
// - warning：目标目录不存在，执行时会创建
// - warning：源文件已是目标名，无需重命名
func (r *Renamer) Validate(records []domain.MatchRecord) domain.ValidationReport {
	rep := domain.NewValidationReport()

	for _, rec := range records {
		if !rec.Renamable() {
			continue
		}
		src := rec.SubtitlePath
		dst := rec.ProposedSubtitlePath
		same := filepath.Clean(src) == filepath.Clean(dst)

		if ok, err := fsx.Exists(r.fs, src); err != nil {
			rep.Fail(fmt.Sprintf("无法访问源文件 %s：%v", filepath.Base(src), err))
		} else if !ok {
			rep.Fail(fmt.Sprintf("源文件不存在：%s", filepath.Base(src)))
		}

		if same {
			rep.Warn(fmt.Sprintf("文件名已一致，无需重命名：%s", filepath.Base(src)))
			continue
		}

		if ok, err := fsx.Exists(r.fs, dst); err != nil {
			rep.Fail(fmt.Sprintf("无法访问目标文件 %s：%v", filepath.Base(dst), err))
		} else if ok {
			rep.Fail(fmt.Sprintf("目标文件已存在，不会覆盖：%s", filepath.Base(dst)))
		}

		dir := filepath.Dir(dst)
		existing, missing, err := fsx.NearestExistingDir(r.fs, dir)
		if err != nil {
			rep.Fail(fmt.Sprintf("目标目录不可用 %s：%v", dir, err))
			continue
		}
		if missing {
			rep.Warn(fmt.Sprintf("目标目录不存在，将自动创建：%s", dir))
		}
		if ok, err := fsx.CanWrite(r.fs, existing); err != nil || !ok {
			rep.Fail(fmt.Sprintf("没有目录写权限：%s", existing))
		}
	}

	return rep
}
