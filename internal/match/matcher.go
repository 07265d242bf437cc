package match

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/John-Robertt/SubRenamer/internal/domain"
	"github.com/John-Robertt/SubRenamer/internal/infra/fsx"
)

const (
	// DefaultThreshold 是最低得分（严格大于才算候选）。
	DefaultThreshold = 0.5
	// DefaultDirBonus 是视频与字幕位于同一目录时的加分；加分后不截断，可超过 1.0。
	DefaultDirBonus = 0.1
)

type Options struct {
	Threshold float64
	DirBonus  float64
}

func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, DirBonus: DefaultDirBonus}
}

// Matcher 不持有任何跨调用的可变状态；同一个 Matcher 可以反复调用。
type Matcher struct {
	fs   afero.Fs
	opts Options
	log  zerolog.Logger
}

func New(fsys afero.Fs, opts Options, log zerolog.Logger) *Matcher {
	if fsys == nil {
		fsys = fsx.OS()
	}
	return &Matcher{fs: fsys, opts: opts, log: log}
}

// MatchFiles 使用真实文件系统与默认参数。
func MatchFiles(paths []string) []domain.MatchRecord {
	return New(fsx.OS(), DefaultOptions(), zerolog.Nop()).MatchFiles(paths)
}

// MatchFiles 对 paths 做一次完整匹配。
//
// 输出顺序（契约）：先是每个视频一条（按视频输入顺序，匹配与否都输出），
// 再是未被使用的字幕（按字幕输入顺序）。不存在或非普通文件的路径静默丢弃，
// 重复出现的路径只按第一次出现处理。
func (m *Matcher) MatchFiles(paths []string) []domain.MatchRecord {
	videos, subtitles := m.partition(paths)

	subNames := make([]string, len(subtitles))
	for i, s := range subtitles {
		subNames[i] = Normalize(domain.BaseName(s))
	}

	// 按路径记录已消费的字幕：同一字幕不能分给两个视频。
	used := make(map[string]bool, len(subtitles))
	out := make([]domain.MatchRecord, 0, len(videos)+len(subtitles))

	for _, v := range videos {
		idx, score := m.best(v, subtitles, subNames, used)
		if idx < 0 {
			m.log.Debug().Str("video", v).Msg("未找到匹配字幕")
			out = append(out, domain.NewUnmatchedVideo(v))
			continue
		}
		used[subtitles[idx]] = true
		m.log.Debug().Str("video", v).Str("subtitle", subtitles[idx]).Float64("confidence", score).Msg("匹配成功")
		out = append(out, domain.NewMatched(v, subtitles[idx], score))
	}

	for _, s := range subtitles {
		if !used[s] {
			out = append(out, domain.NewUnmatchedSubtitle(s))
		}
	}
	return out
}

func (m *Matcher) partition(paths []string) (videos, subtitles []string) {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] || !fsx.IsRegularFile(m.fs, p) {
			continue
		}
		seen[p] = true
		switch domain.Classify(p) {
		case domain.KindVideo:
			videos = append(videos, p)
		case domain.KindSubtitle:
			subtitles = append(subtitles, p)
		}
	}
	return videos, subtitles
}

// best 返回得分最高的可用字幕下标；-1 表示没有候选。
// 只有严格更高才替换，因此同分时保留输入顺序中靠前的字幕。
func (m *Matcher) best(video string, subtitles, subNames []string, used map[string]bool) (int, float64) {
	videoName := Normalize(domain.BaseName(video))
	videoDir := filepath.Dir(video)

	bestIdx := -1
	bestScore := 0.0
	for i, s := range subtitles {
		if used[s] {
			continue
		}
		score := Similarity(videoName, subNames[i])
		if filepath.Dir(s) == videoDir {
			score += m.opts.DirBonus
		}
		if score > m.opts.Threshold && score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	return bestIdx, bestScore
}

// Score 计算单个视频与字幕的得分（含同目录加分），便于解释某条匹配为何成立。
func (m *Matcher) Score(video, subtitle string) float64 {
	score := Similarity(Normalize(domain.BaseName(video)), Normalize(domain.BaseName(subtitle)))
	if filepath.Dir(video) == filepath.Dir(subtitle) {
		score += m.opts.DirBonus
	}
	return score
}
