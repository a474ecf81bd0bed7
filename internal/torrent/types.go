package torrent

import (
	"context"

	"github.com/Jhoorodre/seanime-provider/internal/releasename"
)

// AnimeTorrent represents a single release found on a torrent index
type AnimeTorrent struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Link       string               `json:"link"`
	TorrentURL string               `json:"torrent_url,omitempty"`
	MagnetLink string               `json:"magnet_link,omitempty"`
	InfoHash   string               `json:"info_hash,omitempty"`
	Size       int64                `json:"size"`
	SizeText   string               `json:"size_text,omitempty"`
	Seeders    int                  `json:"seeders"`
	Leechers   int                  `json:"leechers"`
	Downloads  int                  `json:"downloads"`
	Date       string               `json:"date,omitempty"`
	Trusted    bool                 `json:"trusted,omitempty"`
	Provider   string               `json:"provider"`
	Parsed     releasename.Metadata `json:"parsed"`
}

// Key returns a stable identity for dedupe across overlapping searches.
// Info hash wins when the index exposes one.
func (t *AnimeTorrent) Key() string {
	if t.InfoHash != "" {
		return t.InfoHash
	}
	return t.Link
}

// SearchOptions holds the parameters for a plain query search
type SearchOptions struct {
	Query string
}

// SmartSearchOptions holds the parameters for a ranked multi-query search
type SmartSearchOptions struct {
	// Titles are alternative names for the same anime (romaji, english, synonyms)
	Titles []string

	// Episode narrows results to a specific episode when > 0
	Episode int

	// Resolution prefers releases at this resolution when set, e.g. "1080p"
	Resolution string

	// Batch prefers complete-season releases over single episodes
	Batch bool
}

// Provider is implemented by each torrent index
type Provider interface {
	// Name returns the provider identifier used in logs and results
	Name() string

	// Search runs a single query against the index
	Search(ctx context.Context, opts SearchOptions) ([]AnimeTorrent, error)

	// SmartSearch fans out query variants, dedupes and ranks the results
	SmartSearch(ctx context.Context, opts SmartSearchOptions) ([]AnimeTorrent, error)

	// Latest returns the most recent releases on the index
	Latest(ctx context.Context) ([]AnimeTorrent, error)
}
