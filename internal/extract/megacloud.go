package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

const megacloudKeysURL = "https://raw.githubusercontent.com/yogesh-hacker/MegacloudKeys/refs/heads/main/keys.json"

var embedPrefixRe = regexp.MustCompile(`^embed-\d+$`)

// Megacloud resolves megacloud/vidcloud embed pages. The player hides a
// per-request client key in the page HTML and serves the source list
// encrypted; both are undone here.
type Megacloud struct {
	client  *resty.Client
	keysURL string
	log     *logger.Logger

	mu        sync.Mutex
	secretKey string
}

// sourcesResponse is the getSources payload. Sources is a JSON array in
// the clear case and a base64 string when Encrypted is set.
type sourcesResponse struct {
	Sources   json.RawMessage `json:"sources"`
	Tracks    []trackEntry    `json:"tracks"`
	Encrypted bool            `json:"encrypted"`
}

type trackEntry struct {
	File    string `json:"file"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Default bool   `json:"default"`
}

type fileEntry struct {
	File string `json:"file"`
	Type string `json:"type"`
}

// NewMegacloud creates a megacloud extractor
func NewMegacloud() *Megacloud {
	return &Megacloud{
		client: resty.New().
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0").
			SetHeader("Accept-Language", "en-US,en;q=0.5"),
		keysURL: megacloudKeysURL,
		log:     logger.ForExtractor("megacloud"),
	}
}

// Name returns the extractor identifier
func (m *Megacloud) Name() string {
	return "megacloud"
}

// Extract resolves an embed URL into playable sources and subtitles
func (m *Megacloud) Extract(ctx context.Context, embedURL string) (*Result, error) {
	u, err := url.Parse(embedURL)
	if err != nil || u.Host == "" {
		return nil, apperr.NewExtraction("megacloud", "invalid embed URL "+embedURL, err)
	}

	prefix, sourceID, err := splitEmbedPath(u.Path)
	if err != nil {
		return nil, err
	}

	pageURL := fmt.Sprintf("%s://%s/%s/v3/e-1/%s?z=", u.Scheme, u.Host, prefix, sourceID)
	page, err := m.client.R().
		SetContext(ctx).
		SetHeader("Referer", embedURL).
		Get(pageURL)
	if err != nil {
		return nil, apperr.NewNetwork("megacloud", "failed to fetch embed page", err)
	}
	if page.StatusCode() != 200 {
		return nil, apperr.NewNetwork("megacloud", fmt.Sprintf("embed page returned status %d", page.StatusCode()), nil)
	}

	clientKey, err := extractClientKey(pageBody(page.Body()))
	if err != nil {
		return nil, err
	}

	sourcesURL := fmt.Sprintf("%s://%s/%s/v3/e-1/getSources?id=%s&_k=%s",
		u.Scheme, u.Host, prefix, url.QueryEscape(sourceID), url.QueryEscape(clientKey))

	var resp sourcesResponse
	apiResp, err := m.client.R().
		SetContext(ctx).
		SetHeader("Referer", embedURL).
		SetHeader("X-Requested-With", "XMLHttpRequest").
		SetResult(&resp).
		Get(sourcesURL)
	if err != nil {
		return nil, apperr.NewNetwork("megacloud", "getSources request failed", err)
	}
	if apiResp.StatusCode() != 200 {
		return nil, apperr.NewNetwork("megacloud", fmt.Sprintf("getSources returned status %d", apiResp.StatusCode()), nil)
	}

	files, err := m.decodeSources(ctx, &resp, clientKey)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.NewExtraction("megacloud", "embed page yielded no sources", nil)
	}

	result := &Result{
		Headers: map[string]string{"Referer": embedURL},
	}
	for _, f := range files {
		if f.File == "" {
			continue
		}
		srcType := f.Type
		if srcType == "" {
			srcType = guessSourceType(f.File)
		}
		result.Sources = append(result.Sources, VideoSource{URL: f.File, Type: srcType, Quality: "auto"})
	}
	for _, t := range resp.Tracks {
		if t.Kind != "captions" || t.File == "" {
			continue
		}
		result.Subtitles = append(result.Subtitles, Subtitle{
			URL:      t.File,
			Language: t.Label,
			Default:  t.Default,
		})
	}

	m.log.Debug().Msgf("extracted %d sources, %d subtitles", len(result.Sources), len(result.Subtitles))
	return result, nil
}

// decodeSources returns the source list, decrypting it when needed
func (m *Megacloud) decodeSources(ctx context.Context, resp *sourcesResponse, clientKey string) ([]fileEntry, error) {
	var files []fileEntry

	if !resp.Encrypted {
		if err := json.Unmarshal(resp.Sources, &files); err != nil {
			return nil, apperr.NewParsing("megacloud", "failed to parse plaintext sources", err)
		}
		return files, nil
	}

	var encrypted string
	if err := json.Unmarshal(resp.Sources, &encrypted); err != nil {
		return nil, apperr.NewParsing("megacloud", "failed to parse encrypted sources", err)
	}

	secret, err := m.fetchSecretKey(ctx)
	if err != nil {
		return nil, err
	}

	decrypted := decryptSources(encrypted, clientKey, secret)
	if decrypted == "" {
		return nil, apperr.NewExtraction("megacloud", "source decryption failed", nil)
	}

	if err := json.Unmarshal([]byte(decrypted), &files); err != nil {
		return nil, apperr.NewParsing("megacloud", "failed to parse decrypted sources", err)
	}
	return files, nil
}

// fetchSecretKey fetches and caches the community-maintained decryption key
func (m *Megacloud) fetchSecretKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.secretKey != "" {
		return m.secretKey, nil
	}

	var keys map[string]string
	resp, err := m.client.R().
		SetContext(ctx).
		SetResult(&keys).
		Get(m.keysURL)
	if err != nil {
		return "", apperr.NewNetwork("megacloud", "failed to fetch decryption keys", err)
	}
	if resp.StatusCode() != 200 {
		return "", apperr.NewNetwork("megacloud", fmt.Sprintf("key endpoint returned status %d", resp.StatusCode()), nil)
	}

	key, ok := keys["mega"]
	if !ok || key == "" {
		return "", apperr.NewExtraction("megacloud", "mega key missing from key list", nil)
	}

	m.secretKey = key
	return key, nil
}

// splitEmbedPath pulls the embed prefix and source id out of the URL
// path, e.g. /embed-2/v3/e-1/AbCdEf.
func splitEmbedPath(path string) (prefix, sourceID string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", apperr.NewExtraction("megacloud", "embed URL has an empty path", nil)
	}

	prefix = parts[0]
	if !embedPrefixRe.MatchString(prefix) {
		prefix = "embed-2"
	}

	sourceID = parts[len(parts)-1]
	if sourceID == "" {
		return "", "", apperr.NewExtraction("megacloud", "embed URL has no source id", nil)
	}
	return prefix, sourceID, nil
}

func guessSourceType(fileURL string) string {
	if strings.Contains(fileURL, ".m3u8") {
		return "hls"
	}
	return "mp4"
}
