// Package run 编排一次完整执行：scan → match → validate →（apply 时）rename。
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/John-Robertt/SubRenamer/internal/config"
	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
	"github.com/John-Robertt/SubRenamer/internal/match"
	"github.com/John-Robertt/SubRenamer/internal/rename"
	"github.com/John-Robertt/SubRenamer/internal/scan"
)

type Runner struct {
	fs  afero.Fs
	log zerolog.Logger
	now func() time.Time
}

func New(fsys afero.Fs, log zerolog.Logger) *Runner {
	if fsys == nil {
		fsys = fsx.OS()
	}
	return &Runner{fs: fsys, log: log, now: time.Now}
}

// Execute 使用真实文件系统执行一次 run。
func Execute(ctx context.Context, eff config.EffectiveConfig, inputs []string, obs Observer) domain.RunReport {
	return New(fsx.OS(), zerolog.Nop()).Execute(ctx, eff, inputs, obs)
}

// MatchOptions 把配置转换为匹配参数。
func MatchOptions(eff config.EffectiveConfig) match.Options {
	return match.Options{Threshold: eff.Threshold, DirBonus: eff.DirBonus}
}

// ScanOptions 把配置转换为展开参数。
func ScanOptions(eff config.EffectiveConfig) scan.Options {
	return scan.Options{Recursive: eff.Recursive, ExcludeDirs: eff.ExcludeDirs}
}

// Match 只做 scan + match，不做预检。batch add 使用。
func (r *Runner) Match(ctx context.Context, eff config.EffectiveConfig, inputs []string, obs Observer) ([]domain.MatchRecord, error) {
	scanStarted := r.now()
	paths, err := scan.Expand(r.fs, inputs, ScanOptions(eff))
	if err != nil {
		return nil, fmt.Errorf("扫描失败：%w", err)
	}
	if obs != nil {
		obs.OnPhaseDone(PhaseScan, map[string]any{"inputs": len(inputs), "files": len(paths)}, time.Since(scanStarted))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matchStarted := r.now()
	records := match.New(r.fs, MatchOptions(eff), r.log).MatchFiles(paths)
	if obs != nil {
		obs.OnPhaseDone(PhaseMatch, map[string]any{"records": len(records), "matched": countMatched(records)}, time.Since(matchStarted))
	}
	return records, nil
}

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 扫描失败或取消会降级为一条 validation error，报告始终可输出。
func (r *Runner) Execute(ctx context.Context, eff config.EffectiveConfig, inputs []string, obs Observer) domain.RunReport {
	if obs != nil {
		obs.OnStart(eff)
	}
	rr := domain.RunReport{
		BatchID:    uuid.NewString(),
		DryRun:     !eff.Apply,
		StartedAt:  r.now(),
		Validation: domain.NewValidationReport(),
	}

	records, err := r.Match(ctx, eff, inputs, obs)
	if err != nil {
		rr.Validation.Fail(err.Error())
		return r.finish(rr)
	}
	rr.Matches = records

	return r.validateAndRename(ctx, eff, rr, obs)
}

// ExecuteBatch 对累积批次执行批次级检查、预检与（apply 时）重命名。
// 批次检查不通过时返回 *domain.BatchError，不产生报告。
func (r *Runner) ExecuteBatch(ctx context.Context, eff config.EffectiveConfig, batch domain.Batch, obs Observer) (domain.RunReport, error) {
	if obs != nil {
		obs.OnStart(eff)
	}

	checkStarted := r.now()
	if err := batch.Check(); err != nil {
		return domain.RunReport{}, err
	}
	if obs != nil {
		v, s := batch.Counts()
		obs.OnPhaseDone(PhaseCheck, map[string]any{"videos": v, "subtitles": s}, time.Since(checkStarted))
	}

	rr := domain.RunReport{
		BatchID:    batch.ID,
		DryRun:     !eff.Apply,
		StartedAt:  r.now(),
		Matches:    append([]domain.MatchRecord(nil), batch.Records...),
		Validation: domain.NewValidationReport(),
	}
	return r.validateAndRename(ctx, eff, rr, obs), nil
}

func (r *Runner) validateAndRename(ctx context.Context, eff config.EffectiveConfig, rr domain.RunReport, obs Observer) domain.RunReport {
	if err := ctx.Err(); err != nil {
		rr.Validation.Fail(fmt.Sprintf("已取消：%v", err))
		return r.finish(rr)
	}

	rn := rename.New(r.fs, r.log)

	validateStarted := r.now()
	rep := rn.Validate(rr.Matches)
	rr.Validation.Warnings = append(rr.Validation.Warnings, rep.Warnings...)
	for _, e := range rep.Errors {
		rr.Validation.Fail(e)
	}
	if obs != nil {
		obs.OnPhaseDone(PhaseValidate, map[string]any{
			"valid":    rr.Validation.Valid,
			"warnings": len(rr.Validation.Warnings),
			"errors":   len(rr.Validation.Errors),
		}, time.Since(validateStarted))
	}

	// 只有 apply 且预检通过才会真正改名。
	if !eff.Apply || !rr.Validation.Valid {
		return r.finish(rr)
	}
	if err := ctx.Err(); err != nil {
		rr.Validation.Fail(fmt.Sprintf("已取消：%v", err))
		return r.finish(rr)
	}

	renameStarted := r.now()
	rr.Results = rn.RenameFiles(rr.Matches)
	if obs != nil {
		for i, res := range rr.Results {
			obs.OnResult(i+1, len(rr.Results), res)
		}
	}

	ok := 0
	for _, res := range rr.Results {
		if res.Succeeded {
			ok++
		}
	}
	if obs != nil {
		obs.OnPhaseDone(PhaseRename, map[string]any{
			"renamed": ok,
			"failed":  len(rr.Results) - ok,
		}, time.Since(renameStarted))
	}
	return r.finish(rr)
}

func (r *Runner) finish(rr domain.RunReport) domain.RunReport {
	rr.FinishedAt = r.now()
	rr.Finalize()
	return rr
}

// AddToBatch 展开 inputs，跳过批次中已有的文件，对剩余文件做一次匹配并追加到批次。
// 返回新批次与本次新增的记录。
func (r *Runner) AddToBatch(ctx context.Context, eff config.EffectiveConfig, batch domain.Batch, inputs []string, obs Observer) (domain.Batch, []domain.MatchRecord, error) {
	scanStarted := r.now()
	paths, err := scan.Expand(r.fs, inputs, ScanOptions(eff))
	if err != nil {
		return batch, nil, fmt.Errorf("扫描失败：%w", err)
	}

	fresh := make([]string, 0, len(paths))
	for _, p := range paths {
		if batch.Contains(p) {
			r.log.Debug().Str("path", p).Msg("已在批次中，跳过")
			continue
		}
		fresh = append(fresh, p)
	}
	if obs != nil {
		obs.OnPhaseDone(PhaseScan, map[string]any{"inputs": len(inputs), "files": len(fresh)}, time.Since(scanStarted))
	}
	if err := ctx.Err(); err != nil {
		return batch, nil, err
	}

	matchStarted := r.now()
	records := match.New(r.fs, MatchOptions(eff), r.log).MatchFiles(fresh)
	if obs != nil {
		obs.OnPhaseDone(PhaseMatch, map[string]any{"records": len(records), "matched": countMatched(records)}, time.Since(matchStarted))
	}
	return batch.Append(records, r.now()), records, nil
}

func countMatched(records []domain.MatchRecord) int {
	n := 0
	for _, m := range records {
		if m.IsMatched() {
			n++
		}
	}
	return n
}
