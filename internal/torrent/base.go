package torrent

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Jhoorodre/seanime-provider/helpers"
	"github.com/Jhoorodre/seanime-provider/internal/releasename"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
	"github.com/Jhoorodre/seanime-provider/services/cache"
)

// BaseProvider provides common functionality for HTML-backed providers
type BaseProvider struct {
	BaseURL      string
	CacheKey     string
	CacheSvc     cache.CacheService
	BlockTime    time.Duration
	ProviderName string

	// fetchFunc can be replaced in tests to avoid network access
	fetchFunc func(url string) (io.Reader, error)
}

// fetch fetches a URL with rate-limit backoff tracked in the cache
func (b *BaseProvider) fetch(url string) (io.Reader, error) {
	if b.fetchFunc != nil {
		return b.fetchFunc(url)
	}

	// Skip the request entirely while a rate-limit block is active
	if b.CacheSvc != nil && b.CacheKey != "" {
		if _, err := b.CacheSvc.Get(b.CacheKey); err == nil {
			return nil, apperr.NewRateLimit(b.ProviderName, b.BlockTime)
		}
	}

	body, err := helpers.FetchWithRandomHeaders(url)
	if err != nil {
		if b.CacheSvc != nil && b.CacheKey != "" && strings.HasPrefix(err.Error(), "rate limited") {
			b.CacheSvc.Set(b.CacheKey, []byte(fmt.Sprintf("%d", b.BlockTime/time.Second)), b.BlockTime)
		}
		return nil, apperr.NewNetwork(b.ProviderName, "failed to fetch "+url, err)
	}

	return body, nil
}

// createDocument creates a goquery document from a reader
func (b *BaseProvider) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperr.NewParsing(b.ProviderName, "failed to parse HTML", err)
	}
	return doc, nil
}

// processRows processes result rows in parallel, preserving page order
func (b *BaseProvider) processRows(selections *goquery.Selection, processor func(*goquery.Selection) *AnimeTorrent) []AnimeTorrent {
	results := make([]*AnimeTorrent, selections.Length())
	var wg sync.WaitGroup

	selections.Each(func(i int, s *goquery.Selection) {
		wg.Add(1)
		go func(i int, s *goquery.Selection) {
			defer wg.Done()
			results[i] = processor(s)
		}(i, s)
	})

	wg.Wait()

	var torrents []AnimeTorrent
	for _, t := range results {
		if t != nil {
			t.Provider = b.ProviderName
			t.Parsed = releasename.Parse(t.Name)
			torrents = append(torrents, *t)
		}
	}

	return torrents
}

var infoHashRe = regexp.MustCompile(`btih:([a-fA-F0-9]{40}|[a-zA-Z2-7]{32})`)

// InfoHashFromMagnet pulls the btih hash out of a magnet link
func InfoHashFromMagnet(magnet string) string {
	m := infoHashRe.FindStringSubmatch(magnet)
	if len(m) < 2 {
		return ""
	}
	return strings.ToLower(m[1])
}

var sizeRe = regexp.MustCompile(`(?i)^([\d.]+)\s*([KMGT]i?B|B)$`)

// ParseSize converts a human readable size like "1.4 GiB" to bytes
func ParseSize(text string) int64 {
	m := sizeRe.FindStringSubmatch(strings.TrimSpace(text))
	if len(m) < 3 {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	var unit float64
	switch strings.ToUpper(m[2]) {
	case "B":
		unit = 1
	case "KB", "KIB":
		unit = 1 << 10
	case "MB", "MIB":
		unit = 1 << 20
	case "GB", "GIB":
		unit = 1 << 30
	case "TB", "TIB":
		unit = 1 << 40
	}
	return int64(value * unit)
}

// parseInt converts a table cell to an int, treating "-" as zero
func parseInt(text string) int {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
