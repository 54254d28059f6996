package topics

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultTopWords is how many words make up a topic label.
const DefaultTopWords = 4

type termScore struct {
	term string
	tf   int // occurrences inside the cluster
	df   int // clusters whose vocabulary contains the term, this one included
}

// TopTerms picks up to n distinctive words for every cluster vocabulary.
// A term scores tf / (1 + number of other clusters using it); ties are broken
// alphabetically.
func TopTerms(vocabularies [][]string, n int) [][]string {
	counts := make([]map[string]int, len(vocabularies))
	df := make(map[string]int)
	for c, vocab := range vocabularies {
		counts[c] = make(map[string]int)
		for _, term := range vocab {
			counts[c][term]++
		}
		for term := range counts[c] {
			df[term]++
		}
	}

	top := make([][]string, len(vocabularies))
	for c := range vocabularies {
		scores := make([]termScore, 0, len(counts[c]))
		for term, tf := range counts[c] {
			scores = append(scores, termScore{term: term, tf: tf, df: df[term]})
		}
		// tf/df compared by cross multiplication keeps the ordering exact
		slices.SortFunc(scores, func(a, b termScore) int {
			left, right := a.tf*b.df, b.tf*a.df
			switch {
			case left > right:
				return -1
			case left < right:
				return 1
			}
			return strings.Compare(a.term, b.term)
		})

		words := make([]string, 0, min(n, len(scores)))
		for _, s := range scores[:min(n, len(scores))] {
			words = append(words, s.term)
		}
		top[c] = words
	}
	return top
}

// FormatLabel renders a topic label such as "Topic 3: asado, carne".
func FormatLabel(clusterID int, words []string) string {
	if len(words) == 0 {
		return fmt.Sprintf("Topic %d", clusterID)
	}
	return fmt.Sprintf("Topic %d: %s", clusterID, strings.Join(words, ", "))
}
