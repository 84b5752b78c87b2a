package scoring

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity 计算两段文本的归一化编辑距离相似度，范围 [0,1]，对称
func Similarity(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
