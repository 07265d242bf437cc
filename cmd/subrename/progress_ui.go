package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/SubRenamer/internal/app/run"
	"github.com/John-Robertt/SubRenamer/internal/config"
	"github.com/John-Robertt/SubRenamer/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的过程输出。
//
// 所有过程信息写到 stderr，不污染 stdout 的 JSON/表格输出。
type progressUI struct {
	w io.Writer

	mu sync.Mutex
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	mode := "dry-run"
	modeHint := " (只预览，不移动文件)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] SubRenamer (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	cfgPath := eff.ConfigPath
	if cfgPath == "" {
		cfgPath = "(未使用配置文件)"
	}
	fmt.Fprintf(p.w, "  config: %s\n", cfgPath)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  threshold: %.2f dir_bonus: %.2f\n", eff.Threshold, eff.DirBonus)
	fmt.Fprintf(p.w, "  recursive: %s\n", onOff(eff.Recursive))
	fmt.Fprintf(p.w, "  exclude_dirs: %s\n", formatStringListJSON(eff.ExcludeDirs))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case run.PhaseScan:
		fmt.Fprintf(p.w, "扫描: inputs=%d files=%d (%s)\n",
			intField(fields, "inputs"), intField(fields, "files"), formatShortDuration(dur),
		)
	case run.PhaseMatch:
		fmt.Fprintf(p.w, "匹配: records=%d matched=%d (%s)\n",
			intField(fields, "records"), intField(fields, "matched"), formatShortDuration(dur),
		)
	case run.PhaseCheck:
		fmt.Fprintf(p.w, "批次: videos=%d subtitles=%d\n",
			intField(fields, "videos"), intField(fields, "subtitles"),
		)
	case run.PhaseValidate:
		fmt.Fprintf(p.w, "预检: valid=%v warnings=%d errors=%d (%s)\n",
			fields["valid"], intField(fields, "warnings"), intField(fields, "errors"), formatShortDuration(dur),
		)
	case run.PhaseRename:
		fmt.Fprintf(p.w, "重命名: renamed=%d failed=%d (%s)\n\n",
			intField(fields, "renamed"), intField(fields, "failed"), formatShortDuration(dur),
		)
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnResult(idx, total int, res domain.RenameResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.Succeeded {
		fmt.Fprintf(p.w, "[%d/%d] OK %s -> %s\n", idx, total, displayPath(res.OriginalPath), displayPath(res.TargetPath))
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] FAIL %s %s: %s\n",
		idx, total, displayPath(res.OriginalPath), res.ErrorCode, truncate(res.ErrorMsg, 160),
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if max <= 0 || len(r) <= max {
		return string(r)
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
