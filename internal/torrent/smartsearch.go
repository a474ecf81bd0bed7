package torrent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Jhoorodre/seanime-provider/internal/scoring"
	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// resolutionRank orders common resolutions for preference scoring
var resolutionRank = map[string]int{
	"2160p": 5,
	"1440p": 4,
	"1080p": 3,
	"720p":  2,
	"576p":  1,
	"480p":  1,
	"360p":  0,
}

// smartSearch runs one search per query variant, dedupes the union by
// infohash/link and returns it ranked best-first. All providers share
// this path; only the underlying search differs.
func smartSearch(ctx context.Context, provider string, search func(context.Context, SearchOptions) ([]AnimeTorrent, error), opts SmartSearchOptions) ([]AnimeTorrent, error) {
	queries := buildQueries(opts)
	if len(queries) == 0 {
		return nil, apperr.NewValidation(provider, "smart search requires at least one title")
	}

	log := logger.ForProvider(provider)

	seen := make(map[string]bool)
	var merged []AnimeTorrent
	var lastErr error

	for _, q := range queries {
		results, err := search(ctx, SearchOptions{Query: q})
		if err != nil {
			log.WithError(err).Warn().Msgf("query variant failed: %s", q)
			lastErr = err
			continue
		}
		for _, t := range results {
			key := t.Key()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, t)
		}
	}

	if len(merged) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, nil
	}

	rankTorrents(merged, opts)

	if opts.Batch {
		batches := make([]AnimeTorrent, 0, len(merged))
		for _, t := range merged {
			if t.Parsed.Batch {
				batches = append(batches, t)
			}
		}
		// Fall back to the full ranked set when the site has no batches
		if len(batches) > 0 {
			return batches, nil
		}
	}

	return merged, nil
}

// buildQueries derives the query variants from the media titles
func buildQueries(opts SmartSearchOptions) []string {
	seen := make(map[string]bool)
	var queries []string

	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			return
		}
		seen[strings.ToLower(q)] = true
		queries = append(queries, q)
	}

	for _, title := range opts.Titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		switch {
		case opts.Batch:
			add(title + " batch")
			add(title)
		case opts.Episode > 0:
			add(fmt.Sprintf("%s %02d", title, opts.Episode))
			add(fmt.Sprintf("%s - %02d", title, opts.Episode))
		default:
			add(title)
		}
	}

	return queries
}

// rankTorrents sorts candidates best-first. The sort is stable so that
// equal scores keep the per-site order, which is already seeders-desc.
func rankTorrents(torrents []AnimeTorrent, opts SmartSearchOptions) {
	type scored struct {
		torrent AnimeTorrent
		score   float64
	}
	items := make([]scored, len(torrents))
	for i := range torrents {
		items[i] = scored{torrent: torrents[i], score: scoreTorrent(&torrents[i], opts)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})
	for i := range items {
		torrents[i] = items[i].torrent
	}
}

func scoreTorrent(t *AnimeTorrent, opts SmartSearchOptions) float64 {
	var score float64

	// Title similarity against the best-matching requested title
	var best float64
	for _, title := range opts.Titles {
		if s := scoring.TitleSimilarity(title, t.Parsed.Title); s > best {
			best = s
		}
	}
	score += best * 100

	if opts.Resolution != "" {
		if strings.EqualFold(t.Parsed.Resolution, opts.Resolution) {
			score += 30
		} else if t.Parsed.Resolution != "" {
			score -= 20
		}
	} else {
		score += float64(resolutionRank[strings.ToLower(t.Parsed.Resolution)]) * 2
	}

	if opts.Episode > 0 {
		switch {
		case t.Parsed.Episode == opts.Episode:
			score += 50
		case t.Parsed.Batch && t.Parsed.EpisodeStart > 0 &&
			t.Parsed.EpisodeStart <= opts.Episode && opts.Episode <= t.Parsed.EpisodeEnd:
			score += 35
		case t.Parsed.Episode > 0:
			score -= 40
		}
	}

	if opts.Batch {
		if t.Parsed.Batch {
			score += 50
		} else {
			score -= 30
		}
	}

	if t.Trusted {
		score += 10
	}

	// Log-scaled so a thousand seeders does not drown out title accuracy
	score += math.Log2(float64(t.Seeders)+1) * 3

	return score
}
