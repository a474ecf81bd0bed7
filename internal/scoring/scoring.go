// Package scoring ranks scraped candidates against the query that produced
// them. Sites rarely return exact matches first, so providers use these
// helpers to pick the result a human would have clicked.
package scoring

import (
	"github.com/antzucaro/matchr"

	"github.com/Jhoorodre/seanime-provider/helpers"
)

// TitleSimilarity returns a similarity between two titles in [0, 1].
// Titles are normalized first so punctuation and casing differences
// do not count against a match.
func TitleSimilarity(a, b string) float64 {
	na := helpers.NormalizeTitle(a)
	nb := helpers.NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return matchr.JaroWinkler(na, nb, true)
}

// yearBonus rewards a matching release year. It is large enough to
// split near-identical titles (remakes, sequels with the same name)
// and small enough to never beat a clearly better title.
const yearBonus = 0.2

// Candidate is one scraped search result up for disambiguation.
type Candidate struct {
	Title string
	Year  int
}

// BestCandidate returns the index of the candidate most similar to query
// and its score. A candidate whose year matches the wanted year gets a
// bonus; pass year 0 to score on titles alone. Ties keep the earliest
// candidate. Returns -1 when candidates is empty or nothing scores
// above zero.
func BestCandidate(query string, year int, candidates []Candidate) (int, float64) {
	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		score := TitleSimilarity(query, c.Title)
		if score == 0 {
			continue
		}
		if year > 0 && c.Year == year {
			score += yearBonus
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}

// BestMatch ranks bare titles without year information
func BestMatch(query string, candidates []string) (int, float64) {
	cands := make([]Candidate, len(candidates))
	for i, c := range candidates {
		cands[i] = Candidate{Title: c}
	}
	return BestCandidate(query, 0, cands)
}
