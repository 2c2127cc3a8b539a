// Package teamname reconciles team names across data feeds.
package teamname

import (
	"sort"
	"strings"
	"unicode"
)

// minTokenLen is the shortest word that counts towards a token-overlap match.
const minTokenLen = 4

// Resolve finds the candidate naming the same team as query.
// Lookup order: exact, case-insensitive, substring in either direction,
// then the largest overlap of words with at least four characters.
// Ties are broken by the closest length, then alphabetically.
func Resolve(candidates []string, query string) (string, bool) {
	q := strings.TrimSpace(query)
	if q == "" || len(candidates) == 0 {
		return "", false
	}

	for _, c := range candidates {
		if c == q {
			return c, true
		}
	}

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	lq := strings.ToLower(q)
	for _, c := range sorted {
		if strings.ToLower(c) == lq {
			return c, true
		}
	}

	best, bestDiff := "", -1
	for _, c := range sorted {
		lc := strings.ToLower(c)
		if lc == "" || !(strings.Contains(lc, lq) || strings.Contains(lq, lc)) {
			continue
		}
		diff := abs(len(lc) - len(lq))
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = c, diff
		}
	}
	if bestDiff >= 0 {
		return best, true
	}

	qTokens := tokens(lq)
	if len(qTokens) == 0 {
		return "", false
	}
	best, bestShared := "", 0
	for _, c := range sorted {
		shared := 0
		for t := range tokens(strings.ToLower(c)) {
			if _, ok := qTokens[t]; ok {
				shared++
			}
		}
		if shared > bestShared {
			best, bestShared = c, shared
		}
	}
	return best, bestShared > 0
}

// Lookup resolves query against the keys of m and returns the stored value.
func Lookup[V any](m map[string]V, query string) (V, string, bool) {
	if v, ok := m[query]; ok {
		return v, query, true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	name, ok := Resolve(keys, query)
	if !ok {
		var zero V
		return zero, "", false
	}
	return m[name], name, true
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(w)) >= minTokenLen {
			out[w] = struct{}{}
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
