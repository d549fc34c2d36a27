// Package namematch compares a claimed name against a registry's canonical
// name. The score gates stage-1 admission validation; it is never shown to
// end users as a number.
package namematch

import "strings"

// DefaultThreshold is the minimum similarity the verification workflow
// accepts before treating a claimed name as matching the registry record.
const DefaultThreshold = 0.6

// Similarity returns a score in [0,1]. Comparison is case-insensitive and
// whitespace-trimmed; 1.0 means exact match after normalization. Otherwise
// the score is 1 - editDistance/maxLen using classic Levenshtein distance
// (unit-cost insert, delete, substitute). Pure and deterministic.
func Similarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// Matches reports whether the claimed name clears the given threshold
// against the canonical name.
func Matches(claimed, canonical string, threshold float64) bool {
	return Similarity(claimed, canonical) >= threshold
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// levenshtein computes edit distance with the two-row dynamic programming
// formulation to keep allocation linear in the shorter string.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
