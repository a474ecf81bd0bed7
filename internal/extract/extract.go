package extract

import (
	"context"
	"net/url"
	"strings"
	"sync"

	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// VideoSource is one playable stream pulled out of an embed page
type VideoSource struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Quality string `json:"quality,omitempty"`
}

// Subtitle is a caption track attached to a stream
type Subtitle struct {
	URL      string `json:"url"`
	Language string `json:"language"`
	Default  bool   `json:"default,omitempty"`
}

// Result holds everything an extractor recovered from an embed page
type Result struct {
	Sources   []VideoSource     `json:"sources"`
	Subtitles []Subtitle        `json:"subtitles,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Extractor resolves an embed URL into playable sources
type Extractor interface {
	Name() string
	Extract(ctx context.Context, embedURL string) (*Result, error)
}

// Embed pages are small. Anything past this is noise, and the regex
// scans should not chew through it.
const maxPageBytes = 2 << 20

func pageBody(b []byte) string {
	if len(b) > maxPageBytes {
		b = b[:maxPageBytes]
	}
	return string(b)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Extractor)
)

func init() {
	mega := NewMegacloud()
	for _, host := range []string{"megacloud.tv", "megacloud.blog", "rapid-cloud.co", "mcloud.bz"} {
		Register(host, mega)
	}

	kwik := NewKwik("https://animepahe.ru/")
	for _, host := range []string{"kwik.si", "kwik.cx"} {
		Register(host, kwik)
	}
}

// Register binds an extractor to an embed host. Subdomains of the
// registered host are matched too.
func Register(host string, e Extractor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(host)] = e
}

// ForURL returns the extractor registered for the embed URL's host
func ForURL(embedURL string) (Extractor, error) {
	u, err := url.Parse(embedURL)
	if err != nil {
		return nil, apperr.NewExtraction("extract", "invalid embed URL", err)
	}

	host := strings.ToLower(u.Hostname())

	registryMu.RLock()
	defer registryMu.RUnlock()

	for registered, e := range registry {
		if host == registered || strings.HasSuffix(host, "."+registered) {
			return e, nil
		}
	}

	return nil, apperr.NewExtraction("extract", "no extractor for host "+host, nil)
}
