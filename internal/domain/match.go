package domain

import "path/filepath"

// MatchRecord 是一次匹配的结果（成功配对，或单独列出的未匹配视频/字幕）。
//
// 不变量（实现必须遵守）：
// - VideoPath 与 SubtitlePath 至少有一个非空
// - ProposedSubtitlePath 非空 当且仅当 VideoPath 与 SubtitlePath 都非空
// - 创建后不再修改；批次只做追加或整体清空
type MatchRecord struct {
	VideoPath            string  `json:"video_path"`
	SubtitlePath         string  `json:"subtitle_path"`
	ProposedSubtitlePath string  `json:"proposed_subtitle_path"`
	Confidence           float64 `json:"confidence"`
}

// NewMatched 构造配对记录；目标路径 = 视频目录 + 视频主名 + 字幕原扩展名。
func NewMatched(video, subtitle string, confidence float64) MatchRecord {
	return MatchRecord{
		VideoPath:            video,
		SubtitlePath:         subtitle,
		ProposedSubtitlePath: ProposedSubtitlePath(video, subtitle),
		Confidence:           confidence,
	}
}

// NewUnmatchedVideo 构造没有字幕的视频记录（confidence=0）。
func NewUnmatchedVideo(video string) MatchRecord {
	return MatchRecord{VideoPath: video}
}

// NewUnmatchedSubtitle 构造没有被任何视频消费的字幕记录（confidence=0）。
func NewUnmatchedSubtitle(subtitle string) MatchRecord {
	return MatchRecord{SubtitlePath: subtitle}
}

// ProposedSubtitlePath 计算字幕重命名后的路径。扩展名保持字幕原样（含大小写）。
func ProposedSubtitlePath(video, subtitle string) string {
	return filepath.Join(filepath.Dir(video), BaseName(video)+Ext(subtitle))
}

func (r MatchRecord) IsMatched() bool {
	return r.VideoPath != "" && r.SubtitlePath != ""
}

func (r MatchRecord) IsUnmatchedVideo() bool {
	return r.VideoPath != "" && r.SubtitlePath == ""
}

func (r MatchRecord) IsUnmatchedSubtitle() bool {
	return r.VideoPath == "" && r.SubtitlePath != ""
}

// Renamable 表示该记录会进入重命名流程（有字幕且有目标路径）。
func (r MatchRecord) Renamable() bool {
	return r.SubtitlePath != "" && r.ProposedSubtitlePath != ""
}

// Valid 校验记录本身的不变量。
func (r MatchRecord) Valid() bool {
	if r.VideoPath == "" && r.SubtitlePath == "" {
		return false
	}
	return (r.ProposedSubtitlePath != "") == r.IsMatched()
}
