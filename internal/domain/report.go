package domain

import (
	"encoding/json"
	"time"
)

// RunReport 是对外稳定输出（stdout JSON / TTY 摘要）的结构。
type RunReport struct {
	BatchID string `json:"batch_id"`
	DryRun  bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary    ReportSummary    `json:"summary"`
	Matches    []MatchRecord    `json:"matches"`
	Validation ValidationReport `json:"validation"`
	Results    []RenameResult   `json:"results"`
}

type ReportSummary struct {
	Videos             int `json:"videos"`
	Subtitles          int `json:"subtitles"`
	Matched            int `json:"matched"`
	UnmatchedVideos    int `json:"unmatched_videos"`
	UnmatchedSubtitles int `json:"unmatched_subtitles"`
	Renamed            int `json:"renamed"`
	Failed             int `json:"failed"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) nil 切片换成空切片，保证 JSON 结构稳定
// 3) summary 由 matches/results 计算得出
//
// 与 match 输出保持一致：这里不重排 Matches/Results。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Matches == nil {
		r.Matches = []MatchRecord{}
	}
	if r.Results == nil {
		r.Results = []RenameResult{}
	}
	if r.Validation.Warnings == nil {
		r.Validation.Warnings = []string{}
	}
	if r.Validation.Errors == nil {
		r.Validation.Errors = []string{}
	}

	var s ReportSummary
	for _, m := range r.Matches {
		if m.VideoPath != "" {
			s.Videos++
		}
		if m.SubtitlePath != "" {
			s.Subtitles++
		}
		switch {
		case m.IsMatched():
			s.Matched++
		case m.IsUnmatchedVideo():
			s.UnmatchedVideos++
		case m.IsUnmatchedSubtitle():
			s.UnmatchedSubtitles++
		}
	}
	for _, res := range r.Results {
		if res.Succeeded {
			s.Renamed++
		} else {
			s.Failed++
		}
	}
	r.Summary = s
}

// FailedPaths 按结果顺序返回失败条目的原路径（用于摘要提示）。
func (r RunReport) FailedPaths() []string {
	out := make([]string, 0, r.Summary.Failed)
	for _, res := range r.Results {
		if !res.Succeeded {
			out = append(out, res.OriginalPath)
		}
	}
	return out
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
