package compare

import (
	"strings"

	"github.com/baitwatch/baitwatch/internal/logger"
)

// DescriptionComparator is a swappable strategy for diffing listing
// descriptions. Implementations report whether the text changed
// materially and a similarity value in [0,1].
type DescriptionComparator interface {
	Compare(original, current string) (changed bool, similarity float64)
}

// LexicalComparator scores descriptions by character-level sequence
// matching (Ratcliff/Obershelp) after whitespace and case normalization.
type LexicalComparator struct {
	Threshold float64
}

// Compare reports a change when similarity falls below the threshold.
// An empty description on either side cannot be assessed: (false, 0).
func (c LexicalComparator) Compare(original, current string) (bool, float64) {
	if original == "" || current == "" {
		logger.Warn("original or current description is empty")
		return false, 0
	}
	a := normalizeText(original)
	b := normalizeText(current)
	similarity := sequenceRatio(a, b)
	changed := similarity < c.Threshold
	logger.Debug("lexical compare: similarity %.4f, threshold %.4f", similarity, c.Threshold)
	return changed, similarity
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// sequenceRatio computes the Ratcliff/Obershelp similarity of two strings:
// twice the number of matching characters over the total length. Matches
// are found by recursively taking the longest common substring and
// matching the pieces to its left and right.
func sequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matched := matchLength(ra, rb)
	return 2 * float64(matched) / float64(total)
}

func matchLength(a, b []rune) int {
	i, j, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size + matchLength(a[:i], b[:j]) + matchLength(a[i+size:], b[j+size:])
}

// longestCommonSubstring returns the start offsets and length of the
// longest run of runes common to a and b. Earliest-in-a, then
// earliest-in-b wins ties, matching conventional sequence matching.
func longestCommonSubstring(a, b []rune) (besti, bestj, bestsize int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	j2len := make(map[int]int)
	for i, r := range a {
		newj2len := make(map[int]int)
		for _, j := range b2j[r] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
