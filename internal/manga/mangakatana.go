package manga

import (
	"context"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jhoorodre/seanime-provider/helpers"
	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

var (
	// The reader hides its page list in an inline script:
	// var thzq=['https://...','https://...',];
	katanaImageArrayRe = regexp.MustCompile(`var\s+thzq\s*=\s*\[(.*?)\]`)
	katanaImageItemRe  = regexp.MustCompile(`'([^']+)'`)
)

// Mangakatana scrapes mangakatana.com. A search for an exact title
// skips the result list entirely and lands on the manga page, so the
// scraper handles both shapes of the response.
type Mangakatana struct {
	baseURL string
	log     *logger.Logger

	// fetchFunc can be replaced in tests to avoid network access
	fetchFunc func(url string) (io.Reader, error)
}

// NewMangakatana creates a mangakatana provider
func NewMangakatana(baseURL string) *Mangakatana {
	return &Mangakatana{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.ForProvider("mangakatana"),
	}
}

// Name returns the provider identifier
func (m *Mangakatana) Name() string {
	return "mangakatana"
}

// Search finds manga matching the query
func (m *Mangakatana) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchURL := m.baseURL + "/?search=" + url.QueryEscape(query) + "&search_by=book_name"
	doc, err := m.document(searchURL)
	if err != nil {
		return nil, err
	}

	// Exact-title hits redirect straight to the manga page
	if single := m.singleBookResult(doc); single != nil {
		return []SearchResult{*single}, nil
	}

	var results []SearchResult
	doc.Find("div#book_list div.item").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("h3.title a").First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return
		}
		results = append(results, SearchResult{
			ID:    katanaID(href),
			Title: title,
			URL:   helpers.ResolveURL(m.baseURL, href),
			Image: item.Find("div.media div.wrap_img img").AttrOr("src", ""),
		})
	})

	return results, nil
}

// singleBookResult detects the manga-page shape of a search response
func (m *Mangakatana) singleBookResult(doc *goquery.Document) *SearchResult {
	info := doc.Find("div.info h1.heading").First()
	if info.Length() == 0 {
		return nil
	}
	title := strings.TrimSpace(info.Text())
	canonical := doc.Find(`link[rel="canonical"]`).AttrOr("href", "")
	if title == "" || canonical == "" {
		return nil
	}
	return &SearchResult{
		ID:    katanaID(canonical),
		Title: title,
		URL:   canonical,
		Image: doc.Find("div.cover img").AttrOr("src", ""),
	}
}

// Chapters lists the chapters of a manga, sorted ascending
func (m *Mangakatana) Chapters(ctx context.Context, id string) ([]Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := m.document(m.baseURL + "/manga/" + strings.Trim(id, "/"))
	if err != nil {
		return nil, err
	}

	var chapters []Chapter
	doc.Find("div.chapters table tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("div.chapter a").First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.Text())
		if href == "" {
			return
		}
		number, ok := inferChapterNumber(href, title)
		if !ok {
			return
		}
		chapters = append(chapters, Chapter{
			ID:     katanaID(href),
			URL:    helpers.ResolveURL(m.baseURL, href),
			Title:  title,
			Number: number,
		})
	})

	if len(chapters) == 0 {
		return nil, apperr.NewParsing("mangakatana", "no chapters found for "+id, nil)
	}

	sortChapters(chapters)
	return chapters, nil
}

// Pages pulls the chapter's image list out of the reader's inline JS
func (m *Mangakatana) Pages(ctx context.Context, chapterID string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := m.document(m.baseURL + "/manga/" + strings.Trim(chapterID, "/"))
	if err != nil {
		return nil, err
	}

	var arrayBody string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if match := katanaImageArrayRe.FindStringSubmatch(s.Text()); match != nil {
			arrayBody = match[1]
			return false
		}
		return true
	})
	if arrayBody == "" {
		return nil, apperr.NewParsing("mangakatana", "image array not found in reader page", nil)
	}

	var pages []Page
	for _, item := range katanaImageItemRe.FindAllStringSubmatch(arrayBody, -1) {
		src := strings.TrimSpace(item[1])
		if src == "" {
			continue
		}
		pages = append(pages, Page{
			URL:     src,
			Index:   len(pages),
			Headers: map[string]string{"Referer": m.baseURL + "/"},
		})
	}

	if len(pages) == 0 {
		return nil, apperr.NewParsing("mangakatana", "image array was empty", nil)
	}
	return pages, nil
}

func (m *Mangakatana) document(pageURL string) (*goquery.Document, error) {
	var body io.Reader
	var err error
	if m.fetchFunc != nil {
		body, err = m.fetchFunc(pageURL)
	} else {
		body, err = helpers.FetchWithRandomHeaders(pageURL)
	}
	if err != nil {
		return nil, apperr.NewNetwork("mangakatana", "failed to fetch "+pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperr.NewParsing("mangakatana", "failed to parse "+pageURL, err)
	}
	return doc, nil
}

// katanaID strips the scheme, host and /manga prefix off a link
func katanaID(href string) string {
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		href = u.Path
	}
	href = strings.Trim(href, "/")
	return strings.TrimPrefix(href, "manga/")
}
