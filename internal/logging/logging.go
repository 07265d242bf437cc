// Package logging 构造 zerolog 日志器。日志只写 stderr（stdout 留给报告输出）。
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Level  string // debug/info/warn/error，空值视为 info
	Format string // console/json，空值视为 console
	Out    io.Writer
	// NoColor 只影响 console 格式。
	NoColor bool
}

// New 返回带时间戳的 logger；不修改 zerolog 的全局级别。
func New(opts Options) (zerolog.Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	lvl := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("无效的日志级别 %q：%w", opts.Level, err)
		}
		lvl = parsed
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
			NoColor:    opts.NoColor,
		}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("无效的日志格式 %q（只支持 console/json）", opts.Format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
