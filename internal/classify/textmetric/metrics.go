// Package textmetric implements the string-similarity primitives shared by
// the exact and fuzzy matching stages: edit distance, Jaro-Winkler, sequence
// (longest-common-subsequence) ratio, n-gram overlap, and matching-block
// extraction. Every function is pure and returns scores in [0,1].
package textmetric

import (
	"sort"
	"strings"
)

// LevenshteinSimilarity returns 1 - editDistance/max(len), computed over
// runes with unit insert/delete/substitute costs. Both strings empty yields
// 1.0; exactly one empty yields 0.0.
func LevenshteinSimilarity(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 && len(r2) == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	// Two-row DP keeps memory linear in the shorter string.
	if len(r2) > len(r1) {
		r1, r2 = r2, r1
	}
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	dist := prev[len(r2)]
	maxLen := len(r1)
	return 1.0 - float64(dist)/float64(maxLen)
}

// JaroSimilarity implements the canonical Jaro algorithm: a match window of
// max(len)/2 - 1 (minimum 1), match counting, and half-transposition
// accounting.
func JaroSimilarity(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1, len2 := len(r1), len(r2)

	if len1 == 0 && len2 == 0 {
		return 1.0
	}
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	window := max2(len1, len2)/2 - 1
	if window < 1 {
		window = 1
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)
	matches := 0

	for i := 0; i < len1; i++ {
		start := max2(0, i-window)
		end := min2(i+window+1, len2)
		for j := start; j < end; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3
}

// JaroWinklerSimilarity boosts Jaro similarity by a common-prefix bonus of
// min(4, prefix) * 0.1 * (1 - jaro).
func JaroWinklerSimilarity(s1, s2 string) float64 {
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}
	jaro := JaroSimilarity(s1, s2)

	r1 := []rune(s1)
	r2 := []rune(s2)
	prefix := 0
	limit := min3(len(r1), len(r2), 4)
	for i := 0; i < limit; i++ {
		if r1[i] != r2[i] {
			break
		}
		prefix++
	}
	return jaro + float64(prefix)*0.1*(1-jaro)
}

// SequenceRatio returns 2*LCS/(len1+len2) over runes, the
// longest-common-subsequence analogue of difflib's ratio. Both strings empty
// yields 1.0.
func SequenceRatio(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 && len(r2) == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}
	lcs := lcsLength(r1, r2)
	return 2.0 * float64(lcs) / float64(len(r1)+len(r2))
}

// TokenSortRatio sorts whitespace tokens alphabetically in each string,
// rejoins, and returns the sequence ratio of the results. Word order
// differences therefore do not penalise the score.
func TokenSortRatio(s1, s2 string) float64 {
	return SequenceRatio(sortTokens(s1), sortTokens(s2))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// NGramSimilarity computes the Jaccard overlap of the union of character
// n-grams and word n-grams. Strings shorter than n characters fall back to
// SequenceRatio, so very short inputs still compare meaningfully.
func NGramSimilarity(s1, s2 string, n int) float64 {
	if len([]rune(s1)) < n || len([]rune(s2)) < n {
		return SequenceRatio(s1, s2)
	}
	g1 := generateNGrams(s1, n)
	g2 := generateNGrams(s2, n)
	if len(g1) == 0 || len(g2) == 0 {
		return 0.0
	}

	intersection := 0
	for g := range g1 {
		if _, ok := g2[g]; ok {
			intersection++
		}
	}
	union := len(g1) + len(g2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func generateNGrams(s string, n int) map[string]struct{} {
	grams := make(map[string]struct{})
	runes := []rune(s)
	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])] = struct{}{}
	}
	words := strings.Fields(s)
	for i := 0; i+n <= len(words); i++ {
		grams[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return grams
}

func lcsLength(r1, r2 []rune) int {
	if len(r2) > len(r1) {
		r1, r2 = r2, r1
	}
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(r2)]
}

// MatchingBlock is a maximal run of identical runes at PosA in the first
// string and PosB in the second.
type MatchingBlock struct {
	PosA int
	PosB int
	Size int
}

// MatchingBlocks returns common runs between two strings in positional
// order, using the recursive longest-common-substring decomposition. Blocks
// smaller than minSize are discarded.
func MatchingBlocks(s1, s2 string, minSize int) []MatchingBlock {
	r1 := []rune(s1)
	r2 := []rune(s2)
	var blocks []MatchingBlock
	collectBlocks(r1, r2, 0, 0, minSize, &blocks)
	return blocks
}

func collectBlocks(r1, r2 []rune, offA, offB, minSize int, out *[]MatchingBlock) {
	posA, posB, size := longestCommonSubstring(r1, r2)
	if size < minSize {
		return
	}
	collectBlocks(r1[:posA], r2[:posB], offA, offB, minSize, out)
	*out = append(*out, MatchingBlock{PosA: offA + posA, PosB: offB + posB, Size: size})
	collectBlocks(r1[posA+size:], r2[posB+size:], offA+posA+size, offB+posB+size, minSize, out)
}

func longestCommonSubstring(r1, r2 []rune) (posA, posB, size int) {
	if len(r1) == 0 || len(r2) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					posA = i - size
					posB = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return posA, posB, size
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min3(a, b, c int) int {
	return min2(min2(a, b), c)
}
