package manga

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"github.com/Jhoorodre/seanime-provider/helpers"
	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// SelectorSet is a list of CSS selectors tried in order; the first one
// that yields nodes wins. Sites shuffle their markup often enough that
// a single selector rots within months.
type SelectorSet []string

// Match returns the nodes of the first selector that finds any
func (set SelectorSet) Match(root *goquery.Selection) *goquery.Selection {
	for _, sel := range set {
		if nodes := root.Find(sel); nodes.Length() > 0 {
			return nodes
		}
	}
	return nil
}

// MatchOne returns the first node of the first selector that finds any
func (set SelectorSet) MatchOne(root *goquery.Selection) *goquery.Selection {
	nodes := set.Match(root)
	if nodes == nil {
		return nil
	}
	return nodes.First()
}

// Selectors describes how to scrape one manga site
type Selectors struct {
	Search struct {
		Item  SelectorSet `yaml:"item"`
		Link  SelectorSet `yaml:"link"`
		Title SelectorSet `yaml:"title"`
		Image SelectorSet `yaml:"image"`
	} `yaml:"search"`
	Chapters struct {
		Item SelectorSet `yaml:"item"`
	} `yaml:"chapters"`
	Pages struct {
		Image SelectorSet `yaml:"image"`
		Attrs []string    `yaml:"attrs"`
	} `yaml:"pages"`
}

// SiteConfig is everything the data-driven provider needs for one site
type SiteConfig struct {
	Name       string    `yaml:"name"`
	BaseURL    string    `yaml:"base_url"`
	SearchPath string    `yaml:"search_path"`
	Referer    string    `yaml:"referer"`
	Selectors  Selectors `yaml:"selectors"`
}

// selectorsFile is the on-disk override format
type selectorsFile struct {
	Sites []SiteConfig `yaml:"sites"`
}

// LoadSiteConfigs reads selector overrides from a YAML file. A missing
// path is not an error, it just means no overrides.
func LoadSiteConfigs(path string) ([]SiteConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.NewConfiguration("failed to read selector overrides "+path, err)
	}

	var f selectorsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperr.NewConfiguration("failed to parse selector overrides "+path, err)
	}
	return f.Sites, nil
}

// Configurable executes a SiteConfig against a live site. It covers
// sites whose search results, chapter lists and page images are plain
// markup reachable with selector sets.
type Configurable struct {
	cfg SiteConfig
	log *logger.Logger

	// fetchFunc can be replaced in tests to avoid network access
	fetchFunc func(url string) (io.Reader, error)
}

// NewConfigurable creates a provider from a site description
func NewConfigurable(cfg SiteConfig) *Configurable {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Configurable{
		cfg: cfg,
		log: logger.ForProvider(cfg.Name),
	}
}

// Name returns the configured site name
func (c *Configurable) Name() string {
	return c.cfg.Name
}

// Search finds manga matching the query
func (c *Configurable) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchURL := c.cfg.BaseURL + fmt.Sprintf(c.cfg.SearchPath, url.QueryEscape(query))
	doc, err := c.document(searchURL)
	if err != nil {
		return nil, err
	}

	items := c.cfg.Selectors.Search.Item.Match(doc.Selection)
	if items == nil {
		return nil, nil
	}

	var results []SearchResult
	items.Each(func(_ int, item *goquery.Selection) {
		link := c.cfg.Selectors.Search.Link.MatchOne(item)
		if link == nil {
			return
		}
		href := link.AttrOr("href", "")
		if href == "" {
			return
		}

		title := ""
		if t := c.cfg.Selectors.Search.Title.MatchOne(item); t != nil {
			title = strings.TrimSpace(t.Text())
		}
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}

		r := SearchResult{
			ID:    strings.Trim(href, "/"),
			Title: title,
			URL:   helpers.ResolveURL(c.cfg.BaseURL, href),
		}
		if img := c.cfg.Selectors.Search.Image.MatchOne(item); img != nil {
			r.Image = imageAttr(img, []string{"data-src", "src"})
		}
		results = append(results, r)
	})

	return results, nil
}

// Chapters lists the chapters of a manga, sorted ascending
func (c *Configurable) Chapters(ctx context.Context, id string) ([]Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := c.document(c.cfg.BaseURL + "/" + strings.Trim(id, "/"))
	if err != nil {
		return nil, err
	}

	items := c.cfg.Selectors.Chapters.Item.Match(doc.Selection)
	if items == nil {
		return nil, apperr.NewParsing(c.cfg.Name, "no chapter list found for "+id, nil)
	}

	var chapters []Chapter
	items.Each(func(_ int, item *goquery.Selection) {
		href := item.AttrOr("href", "")
		title := strings.TrimSpace(item.Text())
		if href == "" {
			return
		}
		number, ok := inferChapterNumber(href, title)
		if !ok {
			return
		}
		chapters = append(chapters, Chapter{
			ID:     strings.Trim(href, "/"),
			URL:    helpers.ResolveURL(c.cfg.BaseURL, href),
			Title:  title,
			Number: number,
		})
	})

	sortChapters(chapters)
	return chapters, nil
}

// Pages lists the page images of a chapter
func (c *Configurable) Pages(ctx context.Context, chapterID string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := c.document(c.cfg.BaseURL + "/" + strings.Trim(chapterID, "/"))
	if err != nil {
		return nil, err
	}

	images := c.cfg.Selectors.Pages.Image.Match(doc.Selection)
	if images == nil {
		return nil, apperr.NewParsing(c.cfg.Name, "no page images found for "+chapterID, nil)
	}

	attrs := c.cfg.Selectors.Pages.Attrs
	if len(attrs) == 0 {
		attrs = []string{"data-src", "src"}
	}

	referer := c.cfg.Referer
	if referer == "" {
		referer = c.cfg.BaseURL + "/"
	}

	var pages []Page
	images.Each(func(i int, img *goquery.Selection) {
		src := imageAttr(img, attrs)
		if src == "" {
			return
		}
		pages = append(pages, Page{
			URL:     helpers.ResolveURL(c.cfg.BaseURL, src),
			Index:   len(pages),
			Headers: map[string]string{"Referer": referer},
		})
	})

	return pages, nil
}

func (c *Configurable) document(pageURL string) (*goquery.Document, error) {
	var body io.Reader
	var err error
	if c.fetchFunc != nil {
		body, err = c.fetchFunc(pageURL)
	} else {
		body, err = helpers.FetchWithRandomHeaders(pageURL)
	}
	if err != nil {
		return nil, apperr.NewNetwork(c.cfg.Name, "failed to fetch "+pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperr.NewParsing(c.cfg.Name, "failed to parse "+pageURL, err)
	}
	return doc, nil
}

// imageAttr returns the first non-empty attribute of an image node
func imageAttr(img *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}
