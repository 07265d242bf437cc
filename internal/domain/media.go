package domain

import (
	"path/filepath"
	"strings"
)

// FileKind 是按扩展名得到的文件类别。
type FileKind string

const (
	KindVideo    FileKind = "video"
	KindSubtitle FileKind = "subtitle"
	KindIgnored  FileKind = "ignored"
)

// 扩展名集合固定；比较时统一小写。
var videoExts = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mkv": {}, ".mov": {}, ".wmv": {}, ".flv": {}, ".webm": {},
	".m4v": {}, ".mpg": {}, ".mpeg": {}, ".3gp": {}, ".ts": {}, ".mts": {},
}

var subtitleExts = map[string]struct{}{
	".srt": {}, ".ass": {}, ".ssa": {}, ".sub": {}, ".vtt": {}, ".sbv": {}, ".dfxp": {},
}

// Classify 按扩展名（大小写不敏感）判断文件类别，不访问文件系统。
func Classify(path string) FileKind {
	ext := strings.ToLower(Ext(path))
	if _, ok := videoExts[ext]; ok {
		return KindVideo
	}
	if _, ok := subtitleExts[ext]; ok {
		return KindSubtitle
	}
	return KindIgnored
}

// IsMedia 表示 path 是视频或字幕。
func IsMedia(path string) bool {
	return Classify(path) != KindIgnored
}

// Ext 返回文件名的扩展名（含点）。文件名开头的点不算扩展名分隔符：
// ".mkv" 没有扩展名，".hidden.srt" 的扩展名是 ".srt"。
func Ext(path string) string {
	name := filepath.Base(path)
	if !strings.Contains(strings.TrimLeft(name, "."), ".") {
		return ""
	}
	return filepath.Ext(name)
}

// BaseName 返回去掉扩展名的文件名。
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, Ext(name))
}
