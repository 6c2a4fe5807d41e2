package dedup

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

var levParams = levenshtein.NewParams()

// tokenSort rewrites a normalized name with its words in sorted order so
// "labs acme" and "acme labs" compare as equal.
func tokenSort(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// Similarity scores two normalized names in [0, 1] using token-sorted
// Levenshtein similarity. Two empty strings score 0, not 1: an empty name
// matches nothing.
func Similarity(a, b string) float64 {
	a, b = tokenSort(a), tokenSort(b)
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, levParams)
}
