package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/SubRenamer/internal/domain"
)

// writeJSON 把 v 以缩进 JSON 写到 stdout。
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func matchTable(records []domain.MatchRecord) string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		conf := "-"
		if r.IsMatched() {
			conf = strconv.FormatFloat(r.Confidence, 'f', 2, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			displayPath(r.VideoPath),
			displayPath(r.SubtitlePath),
			displayPath(r.ProposedSubtitlePath),
			conf,
		})
	}
	return renderTable(
		[]string{"#", "视频", "字幕", "新字幕名", "置信度"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func resultTable(results []domain.RenameResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "OK"
		note := ""
		if !r.Succeeded {
			status = "FAIL"
			note = r.ErrorCode
		}
		rows = append(rows, []string{status, displayPath(r.OriginalPath), displayPath(r.TargetPath), note})
	}
	return renderTable([]string{"状态", "原文件", "目标", "错误"}, rows, nil)
}

func displayPath(p string) string {
	if p == "" {
		return "-"
	}
	return filepath.Base(p)
}

// emitReport 遵循输出契约：
// - JSON 模式：stdout 只输出一个 RunReport JSON，摘要与失败列表走 stderr
// - 终端模式：表格与摘要写 stdout，失败列表写 stderr
func emitReport(cmd *cobra.Command, rr domain.RunReport, asJSON bool) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if asJSON {
		if err := writeJSON(cmd, rr); err != nil {
			return err
		}
		writeSummary(errOut, errOut, rr)
		return nil
	}

	if len(rr.Matches) > 0 {
		fmt.Fprintln(out, matchTable(rr.Matches))
	}
	for _, w := range rr.Validation.Warnings {
		fmt.Fprintf(out, "警告：%s\n", w)
	}
	for _, e := range rr.Validation.Errors {
		fmt.Fprintf(errOut, "错误：%s\n", e)
	}
	if len(rr.Results) > 0 {
		fmt.Fprintln(out, resultTable(rr.Results))
	}
	writeSummary(out, errOut, rr)
	return nil
}

func writeSummary(out, errOut io.Writer, rr domain.RunReport) {
	s := rr.Summary
	if rr.DryRun {
		fmt.Fprintf(out, "预览：matched=%d unmatched_videos=%d unmatched_subtitles=%d（加 --apply 执行重命名）\n",
			s.Matched, s.UnmatchedVideos, s.UnmatchedSubtitles,
		)
		return
	}
	if !rr.Validation.Valid && len(rr.Results) == 0 {
		fmt.Fprintf(out, "未执行：预检发现 %d 个错误\n", len(rr.Validation.Errors))
		return
	}

	fmt.Fprintf(out, "完成：renamed=%d/%d failed=%d\n", s.Renamed, len(rr.Results), s.Failed)
	if s.Failed > 0 {
		for _, res := range rr.Results {
			if res.Succeeded {
				continue
			}
			fmt.Fprintf(errOut, "%s %s: %s\n", res.OriginalPath, res.ErrorCode, res.ErrorMsg)
		}
	}
}

// reportFailed 决定退出码：预检阻断或存在失败条目时非 0。
func reportFailed(rr domain.RunReport) bool {
	return !rr.Validation.Valid || rr.Summary.Failed > 0
}
