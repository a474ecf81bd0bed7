package onlinestream

import (
	"context"

	"github.com/Jhoorodre/seanime-provider/internal/extract"
)

// SearchResult is one anime found on a streaming site
type SearchResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Type     string `json:"type,omitempty"`
	Episodes int    `json:"episodes,omitempty"`
	Year     int    `json:"year,omitempty"`
	Dubbed   bool   `json:"dubbed,omitempty"`
}

// Episode is one watchable episode of an anime
type Episode struct {
	ID     string  `json:"id"`
	Number float64 `json:"number"`
	Title  string  `json:"title,omitempty"`
}

// Server is one hosting option for an episode. Type is sub, dub or raw.
type Server struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Media is a fully resolved stream with its subtitle tracks
type Media struct {
	Sources   []extract.VideoSource `json:"sources"`
	Subtitles []extract.Subtitle    `json:"subtitles,omitempty"`
	Headers   map[string]string     `json:"headers,omitempty"`
}

// Provider is implemented by each streaming site
type Provider interface {
	// Name returns the provider identifier used in logs and results
	Name() string

	// Search finds anime matching the query
	Search(ctx context.Context, query string, dub bool) ([]SearchResult, error)

	// Episodes lists the episodes of an anime by its provider id
	Episodes(ctx context.Context, id string) ([]Episode, error)

	// Servers lists the hosting options for an episode
	Servers(ctx context.Context, episodeID string) ([]Server, error)

	// Sources resolves a server into playable streams
	Sources(ctx context.Context, server Server) (*Media, error)
}

// PreferredServer picks the first server of the wanted type, falling
// back to raw and then to whatever is available.
func PreferredServer(servers []Server, dub bool) (Server, bool) {
	if len(servers) == 0 {
		return Server{}, false
	}

	wanted := "sub"
	if dub {
		wanted = "dub"
	}
	for _, s := range servers {
		if s.Type == wanted {
			return s, true
		}
	}
	for _, s := range servers {
		if s.Type == "raw" {
			return s, true
		}
	}
	return servers[0], true
}
