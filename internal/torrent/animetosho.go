package torrent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Jhoorodre/seanime-provider/internal/releasename"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// AnimeTosho queries the animetosho JSON feed
type AnimeTosho struct {
	client *resty.Client
	name   string
}

// toshoEntry mirrors one item of the feed. Seeders and leechers are
// null while the tracker has not scraped the torrent yet.
type toshoEntry struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	Timestamp  int64  `json:"timestamp"`
	TorrentURL string `json:"torrent_url"`
	MagnetURI  string `json:"magnet_uri"`
	InfoHash   string `json:"info_hash"`
	TotalSize  int64  `json:"total_size"`
	Seeders    *int   `json:"seeders"`
	Leechers   *int   `json:"leechers"`
	Downloads  *int   `json:"torrent_download_count"`
}

// NewAnimeTosho creates an animetosho provider
func NewAnimeTosho(baseURL string) *AnimeTosho {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &AnimeTosho{
		client: client,
		name:   "animetosho",
	}
}

// Name returns the provider identifier
func (a *AnimeTosho) Name() string {
	return a.name
}

// Search runs a single query against the feed
func (a *AnimeTosho) Search(ctx context.Context, opts SearchOptions) ([]AnimeTorrent, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return a.Latest(ctx)
	}
	return a.feed(ctx, map[string]string{"q": opts.Query, "qx": "1"})
}

// SmartSearch fans out query variants, dedupes and ranks the results
func (a *AnimeTosho) SmartSearch(ctx context.Context, opts SmartSearchOptions) ([]AnimeTorrent, error) {
	return smartSearch(ctx, a.name, a.Search, opts)
}

// Latest returns the newest entries in the feed
func (a *AnimeTosho) Latest(ctx context.Context) ([]AnimeTorrent, error) {
	return a.feed(ctx, nil)
}

func (a *AnimeTosho) feed(ctx context.Context, params map[string]string) ([]AnimeTorrent, error) {
	var entries []toshoEntry

	req := a.client.R().
		SetContext(ctx).
		SetResult(&entries)
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.Get("/json")
	if err != nil {
		return nil, apperr.NewNetwork(a.name, "feed request failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.NewNetwork(a.name, fmt.Sprintf("feed returned status %d", resp.StatusCode()), nil)
	}

	torrents := make([]AnimeTorrent, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		t := AnimeTorrent{
			ID:         fmt.Sprintf("%d", e.ID),
			Name:       e.Title,
			Link:       e.Link,
			TorrentURL: e.TorrentURL,
			MagnetLink: e.MagnetURI,
			InfoHash:   strings.ToLower(e.InfoHash),
			Size:       e.TotalSize,
			Date:       time.Unix(e.Timestamp, 0).UTC().Format("2006-01-02 15:04"),
			Provider:   a.name,
			Parsed:     releasename.Parse(e.Title),
		}
		if t.InfoHash == "" && t.MagnetLink != "" {
			t.InfoHash = InfoHashFromMagnet(t.MagnetLink)
		}
		if e.Seeders != nil {
			t.Seeders = *e.Seeders
		}
		if e.Leechers != nil {
			t.Leechers = *e.Leechers
		}
		if e.Downloads != nil {
			t.Downloads = *e.Downloads
		}
		torrents = append(torrents, t)
	}

	return torrents, nil
}
