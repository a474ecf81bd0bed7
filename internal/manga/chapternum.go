package manga

import (
	"regexp"
	"strconv"
	"strings"
)

// The chapter number can live in the href, the link text, or both,
// under several site-specific spellings. Href patterns are anchored to
// chapter keywords; only the title gets the bare-number fallback so
// manga ids in the path are never mistaken for chapter numbers.
// Patterns run in order and the first hit wins; decimal sub-chapters
// like 12.5 are preserved.
var (
	hrefChapterPatterns = []*regexp.Regexp{
		// .../chapter-12.5 or .../chapter_12
		regexp.MustCompile(`(?i)chapter[-_/](\d+(?:\.\d+)?)(?:[-_/?#]|$)`),
		// .../ch-12 or .../c110.5
		regexp.MustCompile(`(?i)\bch?[-_.]?(\d+(?:\.\d+)?)(?:[-_/?#]|$)`),
	}
	titleChapterPatterns = []*regexp.Regexp{
		// "Chapter 12: The Hero's Return"
		regexp.MustCompile(`(?i)\bchapter\s+(\d+(?:\.\d+)?)`),
		// "Ch. 12" or "Ch 12.5"
		regexp.MustCompile(`(?i)\bch\.?\s*(\d+(?:\.\d+)?)`),
		// bare trailing number
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*$`),
	}
)

// inferChapterNumber scans the href first and then the title for a
// chapter number.
func inferChapterNumber(href, title string) (float64, bool) {
	if n, ok := firstChapterMatch(strings.TrimSpace(href), hrefChapterPatterns); ok {
		return n, true
	}
	return firstChapterMatch(strings.TrimSpace(title), titleChapterPatterns)
}

func firstChapterMatch(s string, patterns []*regexp.Regexp) (float64, bool) {
	if s == "" {
		return 0, false
	}
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}
