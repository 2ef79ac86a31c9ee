package semantic

import "strings"

// lexicalRatio measures similarity of two strings in [0, 1] as
// 2*matches/(len(a)+len(b)), where matches is the total length of the
// longest matching blocks found recursively.
func lexicalRatio(a, b string) float64 {
	a = normalizeName(a)
	b = normalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	matches := matchingChars(a, b)
	return 2 * float64(matches) / float64(len(a)+len(b))
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchingChars sums the longest common block of a and b plus the
// matches recursively found on either side of it.
func matchingChars(a, b string) int {
	ai, bi, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

func longestBlock(a, b string) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0
	// prev[j] is the match length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		cur := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestSize = cur[j]
					bestA = i - cur[j]
					bestB = j - cur[j]
				}
			}
		}
		prev = cur
	}
	return bestA, bestB, bestSize
}
