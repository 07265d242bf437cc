package run

import (
	"time"

	"github.com/John-Robertt/SubRenamer/internal/config"
	"github.com/John-Robertt/SubRenamer/internal/domain"
)

// Observer 用于把“运行进度/阶段/条目结果”从核心执行流程中解耦出来。
//
// 约束：run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
type Observer interface {
	// OnStart 在执行开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnResult 在每个字幕重命名完成后调用。
	OnResult(idx, total int, res domain.RenameResult)
}

// 阶段名（OnPhaseDone 的 name）。
const (
	PhaseScan     = "scan"
	PhaseMatch    = "match"
	PhaseCheck    = "check"
	PhaseValidate = "validate"
	PhaseRename   = "rename"
)
