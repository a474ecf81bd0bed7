package onlinestream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/Jhoorodre/seanime-provider/internal/extract"
	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// Hianime scrapes hianime.to. Listing data comes from ajax endpoints
// that wrap HTML fragments in JSON envelopes.
type Hianime struct {
	client *resty.Client
	log    *logger.Logger
}

// ajaxEnvelope is the JSON wrapper around every ajax fragment
type ajaxEnvelope struct {
	Status bool   `json:"status"`
	HTML   string `json:"html"`
	Link   string `json:"link"`
}

// NewHianime creates a hianime provider
func NewHianime(baseURL string) *Hianime {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0").
		SetHeader("X-Requested-With", "XMLHttpRequest")

	return &Hianime{
		client: client,
		log:    logger.ForProvider("hianime"),
	}
}

// Name returns the provider identifier
func (h *Hianime) Name() string {
	return "hianime"
}

// Search finds anime matching the query
func (h *Hianime) Search(ctx context.Context, query string, dub bool) ([]SearchResult, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("keyword", query).
		Get("/search")
	if err != nil {
		return nil, apperr.NewNetwork("hianime", "search request failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.NewNetwork("hianime", fmt.Sprintf("search returned status %d", resp.StatusCode()), nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		return nil, apperr.NewParsing("hianime", "failed to parse search page", err)
	}

	var results []SearchResult
	doc.Find(".flw-item").Each(func(_ int, s *goquery.Selection) {
		link := s.Find(".film-name a").First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if href == "" || title == "" {
			return
		}

		// href is /watch/slug-123?ref=search, the slug is the id
		id := strings.TrimPrefix(href, "/watch/")
		if i := strings.IndexByte(id, '?'); i >= 0 {
			id = id[:i]
		}
		id = strings.Trim(id, "/")

		dubCount := parseTickCount(s.Find(".tick-dub").Text())
		r := SearchResult{
			ID:     id,
			Title:  title,
			URL:    h.client.BaseURL + "/watch/" + id,
			Type:   strings.TrimSpace(s.Find(".fdi-item").First().Text()),
			Dubbed: dubCount > 0,
		}
		if dub && !r.Dubbed {
			return
		}
		results = append(results, r)
	})

	return results, nil
}

// Episodes lists the episodes of an anime. The numeric part at the end
// of the id slug keys the ajax endpoint.
func (h *Hianime) Episodes(ctx context.Context, id string) ([]Episode, error) {
	numericID := id
	if i := strings.LastIndexByte(id, '-'); i >= 0 {
		numericID = id[i+1:]
	}

	frag, err := h.fragment(ctx, "/ajax/v2/episode/list/"+numericID, nil)
	if err != nil {
		return nil, err
	}

	var episodes []Episode
	frag.Find("a.ep-item").Each(func(i int, s *goquery.Selection) {
		ep := Episode{
			ID:    s.AttrOr("data-id", ""),
			Title: strings.TrimSpace(s.AttrOr("title", "")),
		}
		if ep.ID == "" {
			return
		}
		// Fall back to list position when the number attribute is absent
		if n, err := strconv.ParseFloat(s.AttrOr("data-number", ""), 64); err == nil {
			ep.Number = n
		} else {
			ep.Number = float64(i + 1)
		}
		episodes = append(episodes, ep)
	})

	if len(episodes) == 0 {
		return nil, apperr.NewParsing("hianime", "episode list fragment had no episodes", nil)
	}
	return episodes, nil
}

// Servers lists the hosting options for an episode
func (h *Hianime) Servers(ctx context.Context, episodeID string) ([]Server, error) {
	frag, err := h.fragment(ctx, "/ajax/v2/episode/servers", map[string]string{"episodeId": episodeID})
	if err != nil {
		return nil, err
	}

	var servers []Server
	frag.Find(".server-item").Each(func(_ int, s *goquery.Selection) {
		srv := Server{
			ID:   s.AttrOr("data-id", ""),
			Name: strings.TrimSpace(s.Text()),
			Type: s.AttrOr("data-type", ""),
		}
		if srv.ID == "" {
			return
		}
		servers = append(servers, srv)
	})

	if len(servers) == 0 {
		return nil, apperr.NewParsing("hianime", "no servers listed for episode "+episodeID, nil)
	}
	return servers, nil
}

// Sources resolves a server into playable streams via its embed page
func (h *Hianime) Sources(ctx context.Context, server Server) (*Media, error) {
	var env ajaxEnvelope
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParam("id", server.ID).
		SetResult(&env).
		Get("/ajax/v2/episode/sources")
	if err != nil {
		return nil, apperr.NewNetwork("hianime", "sources request failed", err)
	}
	if resp.StatusCode() != 200 || env.Link == "" {
		return nil, apperr.NewExtraction("hianime", "no embed link for server "+server.ID, nil)
	}

	extractor, err := extract.ForURL(env.Link)
	if err != nil {
		return nil, err
	}

	h.log.Debug().Msgf("resolving embed via %s", extractor.Name())

	result, err := extractor.Extract(ctx, env.Link)
	if err != nil {
		return nil, err
	}

	return &Media{
		Sources:   result.Sources,
		Subtitles: result.Subtitles,
		Headers:   result.Headers,
	}, nil
}

// fragment fetches an ajax endpoint and parses its HTML payload
func (h *Hianime) fragment(ctx context.Context, path string, params map[string]string) (*goquery.Document, error) {
	var env ajaxEnvelope
	req := h.client.R().
		SetContext(ctx).
		SetResult(&env)
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, apperr.NewNetwork("hianime", "ajax request failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.NewNetwork("hianime", fmt.Sprintf("ajax endpoint returned status %d", resp.StatusCode()), nil)
	}
	if env.HTML == "" {
		return nil, apperr.NewParsing("hianime", "ajax envelope had no html payload", nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.HTML))
	if err != nil {
		return nil, apperr.NewParsing("hianime", "failed to parse ajax fragment", err)
	}
	return doc, nil
}

// parseTickCount reads the numeric badge off a sub/dub tick label
func parseTickCount(text string) int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(fields[len(fields)-1])
	return n
}
