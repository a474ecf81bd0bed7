package torrent

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jhoorodre/seanime-provider/services/cache"
)

// Nyaa scrapes the nyaa.si torrent index
type Nyaa struct {
	BaseProvider
}

// NewNyaa creates a nyaa provider
func NewNyaa(baseURL string, cacheSvc cache.CacheService) *Nyaa {
	return &Nyaa{
		BaseProvider: BaseProvider{
			BaseURL:      strings.TrimRight(baseURL, "/"),
			CacheKey:     "rate_limited_nyaa",
			CacheSvc:     cacheSvc,
			BlockTime:    300 * time.Second,
			ProviderName: "nyaa",
		},
	}
}

// Name returns the provider identifier
func (n *Nyaa) Name() string {
	return n.ProviderName
}

// Search runs a query against the anime category, sorted by seeders
func (n *Nyaa) Search(ctx context.Context, opts SearchOptions) ([]AnimeTorrent, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return n.Latest(ctx)
	}
	q := url.Values{}
	q.Set("f", "0")
	q.Set("c", "1_2")
	q.Set("q", opts.Query)
	q.Set("s", "seeders")
	q.Set("o", "desc")
	return n.scrape(ctx, n.BaseURL+"/?"+q.Encode())
}

// SmartSearch fans out query variants, dedupes and ranks the results
func (n *Nyaa) SmartSearch(ctx context.Context, opts SmartSearchOptions) ([]AnimeTorrent, error) {
	return smartSearch(ctx, n.ProviderName, n.Search, opts)
}

// Latest returns the newest anime releases on the index
func (n *Nyaa) Latest(ctx context.Context) ([]AnimeTorrent, error) {
	return n.scrape(ctx, n.BaseURL+"/?f=0&c=1_2")
}

func (n *Nyaa) scrape(ctx context.Context, pageURL string) ([]AnimeTorrent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := n.fetch(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := n.createDocument(body)
	if err != nil {
		return nil, err
	}

	rows := doc.Find("table.torrent-list tbody tr")
	return n.processRows(rows, n.processRow), nil
}

func (n *Nyaa) processRow(row *goquery.Selection) *AnimeTorrent {
	// The title cell also carries a comment-count anchor, skip it
	titleLink := row.Find("td:nth-child(2) a:not(.comments)").First()
	name := strings.TrimSpace(titleLink.AttrOr("title", ""))
	if name == "" {
		name = strings.TrimSpace(titleLink.Text())
	}
	if name == "" {
		return nil
	}

	href := titleLink.AttrOr("href", "")
	link := n.BaseURL + href

	t := &AnimeTorrent{
		ID:   strings.TrimPrefix(href, "/view/"),
		Name: name,
		Link: link,
	}

	row.Find("td:nth-child(3) a").Each(func(_ int, a *goquery.Selection) {
		h := a.AttrOr("href", "")
		switch {
		case strings.HasPrefix(h, "magnet:"):
			t.MagnetLink = h
			t.InfoHash = InfoHashFromMagnet(h)
		case strings.HasSuffix(h, ".torrent"):
			t.TorrentURL = n.BaseURL + h
		}
	})

	t.SizeText = strings.TrimSpace(row.Find("td:nth-child(4)").Text())
	t.Size = ParseSize(t.SizeText)
	t.Date = strings.TrimSpace(row.Find("td:nth-child(5)").Text())
	t.Seeders = parseInt(row.Find("td:nth-child(6)").Text())
	t.Leechers = parseInt(row.Find("td:nth-child(7)").Text())
	t.Downloads = parseInt(row.Find("td:nth-child(8)").Text())
	t.Trusted = row.HasClass("success")

	return t
}
