// Package similarity scores how alike two free-text descriptions are.
package similarity

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxCompareLen bounds the edit-distance table on long free-text fields.
const maxCompareLen = 200

// Score returns a similarity in [0,1]: 1 for case-insensitive equality,
// 0.8 when one string contains the other, otherwise the normalized
// Levenshtein distance 1 - d/max(len). Inputs longer than maxCompareLen are
// truncated before the distance computation.
func Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	a = truncate(a, maxCompareLen)
	b = truncate(b, maxCompareLen)
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	s := 1 - float64(dist)/float64(maxLen)
	if s < 0 {
		return 0
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
