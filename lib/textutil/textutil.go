package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases a title and drops all whitespace so that
// "Portal 2" and "portal2" compare equal.
func NormalizeTitle(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// Similarity is the Jaro-Winkler similarity of two normalized titles, in [0, 1].
func Similarity(a, b string) float64 {
	a = NormalizeTitle(a)
	b = NormalizeTitle(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}

// BestMatch returns the index of the title most similar to query, or -1 if
// titles is empty. The earliest title wins ties.
func BestMatch(query string, titles []string) int {
	best := -1
	var bestSimilarity float64
	for i, title := range titles {
		similarity := Similarity(query, title)
		if best < 0 || similarity > bestSimilarity {
			best = i
			bestSimilarity = similarity
		}
	}
	return best
}
