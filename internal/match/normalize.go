package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketRE   = regexp.MustCompile(`\[.*?\]`)
	parenRE     = regexp.MustCompile(`\(.*?\)`)
	yearRE      = regexp.MustCompile(`\d{4}`)
	separatorRE = regexp.MustCompile(`[._-]+`)
	spaceRE     = regexp.MustCompile(`\s+`)
)

// Normalize 把文件主名（不含扩展名）规范化后再参与比较。
//
// 顺序有意义：先去掉 [..] 与 (..)，再去掉四位数字（年份/分辨率），
// 最后把 . _ - 统一成空格并压缩空白。
// 先做 NFC：macOS 文件名是分解形式，不归一会让同名字幕得分偏低。
func Normalize(name string) string {
	s := norm.NFC.String(name)
	s = bracketRE.ReplaceAllString(s, "")
	s = parenRE.ReplaceAllString(s, "")
	s = yearRE.ReplaceAllString(s, "")
	s = separatorRE.ReplaceAllString(s, " ")
	s = spaceRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	// cases.Caser 有状态，不能跨 goroutine 共享，这里每次新建。
	return cases.Lower(language.Und).String(s)
}
