package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleSimilarity(t *testing.T) {
	// Exact match after normalization
	assert.Equal(t, 1.0, TitleSimilarity("Fullmetal Alchemist: Brotherhood", "fullmetal alchemist brotherhood"))

	// Close titles score higher than unrelated ones
	close := TitleSimilarity("Sousou no Frieren", "Sousou no Frieren 2")
	far := TitleSimilarity("Sousou no Frieren", "One Piece")
	assert.Greater(t, close, far)

	// Empty input never matches
	assert.Equal(t, 0.0, TitleSimilarity("", "anything"))
	assert.Equal(t, 0.0, TitleSimilarity("anything", ""))
}

func TestBestMatch(t *testing.T) {
	candidates := []string{
		"Boku no Hero Academia 7th Season",
		"Boku no Hero Academia",
		"Boku no Hero Academia the Movie",
	}

	idx, score := BestMatch("Boku no Hero Academia", candidates)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1.0, score)

	idx, _ = BestMatch("something else entirely different", nil)
	assert.Equal(t, -1, idx)
}

func TestBestCandidateYearBonus(t *testing.T) {
	// Remakes share a title; the wanted year settles the tie
	candidates := []Candidate{
		{Title: "Hunter x Hunter", Year: 1999},
		{Title: "Hunter x Hunter", Year: 2011},
	}

	idx, score := BestCandidate("Hunter x Hunter", 2011, candidates)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 1.0+yearBonus, score, 0.001)

	// Without a wanted year the earliest candidate wins the tie
	idx, _ = BestCandidate("Hunter x Hunter", 0, candidates)
	assert.Equal(t, 0, idx)

	// The bonus never outranks a clearly better title
	candidates = []Candidate{
		{Title: "Frieren: Beyond Journey's End", Year: 2023},
		{Title: "One Piece", Year: 1999},
	}
	idx, _ = BestCandidate("Frieren Beyond Journey's End", 1999, candidates)
	assert.Equal(t, 0, idx)
}
