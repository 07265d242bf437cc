package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

const (
	ErrCodeBatchEmpty    = "batch_empty"
	ErrCodeNoVideos      = "no_videos"
	ErrCodeNoSubtitles   = "no_subtitles"
	ErrCodeCountMismatch = "count_mismatch"
)

// Batch 是调用方持有的累积匹配结果（多次 add 之间保留）。
//
// 约束：Batch 按值传递；Append/Cleared 返回新值，不修改接收者的 Records 底层数组。
type Batch struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Records   []MatchRecord `json:"records"`
}

func NewBatch(id string, now time.Time) Batch {
	now = now.UTC()
	return Batch{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Records:   []MatchRecord{},
	}
}

// Append 追加一次 match 的输出（保持顺序）。
func (b Batch) Append(records []MatchRecord, now time.Time) Batch {
	out := b
	out.Records = make([]MatchRecord, 0, len(b.Records)+len(records))
	out.Records = append(out.Records, b.Records...)
	out.Records = append(out.Records, records...)
	out.UpdatedAt = now.UTC()
	return out
}

// Cleared 返回同一 ID 的空批次。
func (b Batch) Cleared(now time.Time) Batch {
	out := b
	out.Records = []MatchRecord{}
	out.UpdatedAt = now.UTC()
	return out
}

// Counts 统计批次中出现的视频与字幕数量（配对记录两边各计一次）。
func (b Batch) Counts() (videos, subtitles int) {
	for _, r := range b.Records {
		if r.VideoPath != "" {
			videos++
		}
		if r.SubtitlePath != "" {
			subtitles++
		}
	}
	return videos, subtitles
}

// Paths 返回批次中出现过的全部文件路径（按记录顺序，视频在前）。
func (b Batch) Paths() []string {
	out := make([]string, 0, len(b.Records)*2)
	for _, r := range b.Records {
		if r.VideoPath != "" {
			out = append(out, r.VideoPath)
		}
		if r.SubtitlePath != "" {
			out = append(out, r.SubtitlePath)
		}
	}
	return out
}

// Contains 判断 path 是否已在批次中（按 Clean 后的路径比较）。
func (b Batch) Contains(path string) bool {
	path = filepath.Clean(path)
	for _, p := range b.Paths() {
		if filepath.Clean(p) == path {
			return true
		}
	}
	return false
}

// BatchError 是批次预检失败（带 error_code）。
type BatchError struct {
	Code      string
	Videos    int
	Subtitles int
}

func (e *BatchError) Error() string {
	switch e.Code {
	case ErrCodeBatchEmpty:
		return fmt.Sprintf("%s：没有待处理的文件", e.Code)
	case ErrCodeNoVideos:
		return fmt.Sprintf("%s：未找到视频文件，请先添加视频", e.Code)
	case ErrCodeNoSubtitles:
		return fmt.Sprintf("%s：未找到字幕文件，请先添加字幕", e.Code)
	case ErrCodeCountMismatch:
		return fmt.Sprintf("%s：视频数量（%d）必须与字幕数量（%d）一致", e.Code, e.Videos, e.Subtitles)
	default:
		return e.Code
	}
}

// Check 是提交重命名前的批次级规则：
// 1) 批次不能为空
// 2) 视频与字幕数量都不能为 0
// 3) 两者数量必须一致
func (b Batch) Check() error {
	if len(b.Records) == 0 {
		return &BatchError{Code: ErrCodeBatchEmpty}
	}
	v, s := b.Counts()
	switch {
	case v == 0:
		return &BatchError{Code: ErrCodeNoVideos, Videos: v, Subtitles: s}
	case s == 0:
		return &BatchError{Code: ErrCodeNoSubtitles, Videos: v, Subtitles: s}
	case v != s:
		return &BatchError{Code: ErrCodeCountMismatch, Videos: v, Subtitles: s}
	}
	return nil
}
