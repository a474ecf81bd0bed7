package manga

import (
	"context"
	"sort"
)

// SearchResult is one manga found on a source site
type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Image string `json:"image,omitempty"`
}

// Chapter is one readable chapter. Number keeps decimal sub-chapters
// like 12.5; Index is the position after ascending sort.
type Chapter struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Title  string  `json:"title,omitempty"`
	Number float64 `json:"number"`
	Index  int     `json:"index"`
}

// Page is one image of a chapter
type Page struct {
	URL     string            `json:"url"`
	Index   int               `json:"index"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Provider is implemented by each manga site
type Provider interface {
	// Name returns the provider identifier used in logs and results
	Name() string

	// Search finds manga matching the query
	Search(ctx context.Context, query string) ([]SearchResult, error)

	// Chapters lists the chapters of a manga by its provider id
	Chapters(ctx context.Context, id string) ([]Chapter, error)

	// Pages lists the page images of a chapter
	Pages(ctx context.Context, chapterID string) ([]Page, error)
}

// sortChapters orders chapters ascending by number and reindexes them
func sortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})
	for i := range chapters {
		chapters[i].Index = i
	}
}
