package onlinestream

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/Jhoorodre/seanime-provider/internal/extract"
	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// AnimePahe talks to animepahe's JSON API. The site sits behind a
// DDoS-guard check that hands out cookies on the landing page, so the
// first API call primes the cookie jar.
type AnimePahe struct {
	client *resty.Client
	log    *logger.Logger

	primeOnce sync.Once
	primeErr  error
}

type paheSearchResponse struct {
	Data []struct {
		Session  string `json:"session"`
		Title    string `json:"title"`
		Type     string `json:"type"`
		Episodes int    `json:"episodes"`
		Year     int    `json:"year"`
	} `json:"data"`
}

type paheReleaseResponse struct {
	LastPage int `json:"last_page"`
	Data     []struct {
		Session string  `json:"session"`
		Episode float64 `json:"episode"`
		Title   string  `json:"title"`
	} `json:"data"`
}

// NewAnimePahe creates an animepahe provider
func NewAnimePahe(baseURL string) *AnimePahe {
	jar, _ := cookiejar.New(nil)
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15 * time.Second).
		SetCookieJar(jar).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0").
		SetHeader("Accept", "application/json, text/html")
	client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))

	return &AnimePahe{
		client: client,
		log:    logger.ForProvider("animepahe"),
	}
}

// Name returns the provider identifier
func (p *AnimePahe) Name() string {
	return "animepahe"
}

// prime visits the landing page once to collect DDoS-guard cookies
func (p *AnimePahe) prime(ctx context.Context) error {
	p.primeOnce.Do(func() {
		_, err := p.client.R().SetContext(ctx).Get("/")
		if err != nil {
			p.primeErr = apperr.NewNetwork("animepahe", "failed to prime session cookies", err)
		}
	})
	return p.primeErr
}

// Search finds anime matching the query. The dub flag is ignored, the
// site does not separate dubbed catalogs.
func (p *AnimePahe) Search(ctx context.Context, query string, dub bool) ([]SearchResult, error) {
	if err := p.prime(ctx); err != nil {
		return nil, err
	}

	var body paheSearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"m": "search", "q": query}).
		SetResult(&body).
		Get("/api")
	if err != nil {
		return nil, apperr.NewNetwork("animepahe", "search request failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.NewNetwork("animepahe", fmt.Sprintf("search returned status %d", resp.StatusCode()), nil)
	}

	results := make([]SearchResult, 0, len(body.Data))
	for _, d := range body.Data {
		if d.Session == "" || d.Title == "" {
			continue
		}
		results = append(results, SearchResult{
			ID:       d.Session,
			Title:    d.Title,
			URL:      p.client.BaseURL + "/anime/" + d.Session,
			Type:     d.Type,
			Episodes: d.Episodes,
			Year:     d.Year,
		})
	}
	return results, nil
}

// Episodes lists the episodes of an anime, walking every release page.
// Episode ids carry the anime session so the play page can be built.
func (p *AnimePahe) Episodes(ctx context.Context, id string) ([]Episode, error) {
	if err := p.prime(ctx); err != nil {
		return nil, err
	}

	var episodes []Episode
	for page := 1; ; page++ {
		var body paheReleaseResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"m":    "release",
				"id":   id,
				"sort": "episode_asc",
				"page": fmt.Sprintf("%d", page),
			}).
			SetResult(&body).
			Get("/api")
		if err != nil {
			return nil, apperr.NewNetwork("animepahe", "release request failed", err)
		}
		if resp.StatusCode() != 200 {
			return nil, apperr.NewNetwork("animepahe", fmt.Sprintf("release endpoint returned status %d", resp.StatusCode()), nil)
		}

		for _, d := range body.Data {
			if d.Session == "" {
				continue
			}
			episodes = append(episodes, Episode{
				ID:     id + "/" + d.Session,
				Number: d.Episode,
				Title:  strings.TrimSpace(d.Title),
			})
		}

		if page >= body.LastPage {
			break
		}
	}

	if len(episodes) == 0 {
		return nil, apperr.NewParsing("animepahe", "no episodes listed for "+id, nil)
	}
	return episodes, nil
}

// Servers scrapes the play page's resolution menu. Each button carries
// a kwik embed URL, its resolution and its audio language.
func (p *AnimePahe) Servers(ctx context.Context, episodeID string) ([]Server, error) {
	if err := p.prime(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Referer", p.client.BaseURL).
		Get("/play/" + episodeID)
	if err != nil {
		return nil, apperr.NewNetwork("animepahe", "play page request failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.NewNetwork("animepahe", fmt.Sprintf("play page returned status %d", resp.StatusCode()), nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		return nil, apperr.NewParsing("animepahe", "failed to parse play page", err)
	}

	var servers []Server
	doc.Find("#resolutionMenu button").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("data-src", "")
		if src == "" {
			return
		}
		audio := s.AttrOr("data-audio", "jpn")
		srvType := "sub"
		if audio == "eng" {
			srvType = "dub"
		}
		servers = append(servers, Server{
			ID:   src,
			Name: fmt.Sprintf("kwik %sp %s", s.AttrOr("data-resolution", "?"), audio),
			Type: srvType,
		})
	})

	if len(servers) == 0 {
		return nil, apperr.NewParsing("animepahe", "no resolution options on play page", nil)
	}
	return servers, nil
}

// Sources resolves a server's kwik embed into its stream
func (p *AnimePahe) Sources(ctx context.Context, server Server) (*Media, error) {
	extractor, err := extract.ForURL(server.ID)
	if err != nil {
		return nil, err
	}

	p.log.Debug().Msgf("resolving embed via %s", extractor.Name())

	result, err := extractor.Extract(ctx, server.ID)
	if err != nil {
		return nil, err
	}

	return &Media{
		Sources:   result.Sources,
		Subtitles: result.Subtitles,
		Headers:   result.Headers,
	}, nil
}
