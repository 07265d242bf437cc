package match

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Similarity 返回两个（已规范化）字符串的 Ratcliff/Obershelp 相似度，范围 [0,1]。
//
// 比较单位是字符（rune）。SequenceMatcher 对参数顺序并不严格对称，
// 这里先把两个串按字典序排好，保证 Similarity(a,b) == Similarity(b,a)。
func Similarity(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
