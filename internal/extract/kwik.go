package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"github.com/Jhoorodre/seanime-provider/logger"
	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

var (
	packedRe    = regexp.MustCompile(`(?s)eval\(function\(p,a,c,k,e,d\).*?\}\('(.*)',\s*(\d+),\s*(\d+),\s*'([^']*)'\.split\('\|'\)`)
	sourceVarRe = regexp.MustCompile(`source\s*=\s*'([^']+)'`)
	m3u8Re      = regexp.MustCompile(`https?://[^'"\s]+\.m3u8[^'"\s]*`)
)

// Kwik resolves kwik player pages. The page ships its config inside
// eval(function(p,a,c,k,e,d)...) packed JavaScript; unpacking it exposes
// the m3u8 source in the clear.
type Kwik struct {
	client  *resty.Client
	referer string
	log     *logger.Logger
}

// NewKwik creates a kwik extractor. The referer must be the site that
// embedded the player or the page returns a 403.
func NewKwik(referer string) *Kwik {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0")
	client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))

	return &Kwik{
		client:  client,
		referer: referer,
		log:     logger.ForExtractor("kwik"),
	}
}

// Name returns the extractor identifier
func (k *Kwik) Name() string {
	return "kwik"
}

// Extract resolves a kwik player URL into its m3u8 source
func (k *Kwik) Extract(ctx context.Context, embedURL string) (*Result, error) {
	resp, err := k.client.R().
		SetContext(ctx).
		SetHeader("Referer", k.referer).
		Get(embedURL)
	if err != nil {
		return nil, apperr.NewNetwork("kwik", "failed to fetch player page", err)
	}
	if resp.StatusCode() != 200 {
		return nil, apperr.NewNetwork("kwik", fmt.Sprintf("player page returned status %d", resp.StatusCode()), nil)
	}

	unpacked, err := UnpackJS(pageBody(resp.Body()))
	if err != nil {
		return nil, err
	}

	src := ""
	if m := sourceVarRe.FindStringSubmatch(unpacked); m != nil {
		src = m[1]
	} else if m := m3u8Re.FindString(unpacked); m != "" {
		src = m
	}
	if src == "" {
		return nil, apperr.NewExtraction("kwik", "no m3u8 source in unpacked player script", nil)
	}

	k.log.Debug().Msgf("resolved source from %s", embedURL)

	return &Result{
		Sources: []VideoSource{{URL: src, Type: "hls", Quality: "auto"}},
		Headers: map[string]string{"Referer": k.referer},
	}, nil
}

var tokenRe = regexp.MustCompile(`\b\w+\b`)

// UnpackJS reverses Dean Edwards style eval(function(p,a,c,k,e,d)...)
// packing. Tokens in the payload are base-N indexes into the keyword
// list. Substitution runs in a single pass over the payload so a
// keyword that happens to look like another token is never rewritten
// a second time.
func UnpackJS(script string) (string, error) {
	m := packedRe.FindStringSubmatch(script)
	if m == nil {
		return "", apperr.NewExtraction("kwik", "no packed script found", nil)
	}

	payload := strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(m[1])
	radix, _ := strconv.Atoi(m[2])
	count, _ := strconv.Atoi(m[3])
	words := strings.Split(m[4], "|")

	if radix < 2 || count != len(words) {
		return "", apperr.NewExtraction("kwik", "malformed packed script header", nil)
	}

	return tokenRe.ReplaceAllStringFunc(payload, func(token string) string {
		n, ok := decodeToken(token, radix)
		if !ok || n >= count || words[n] == "" {
			return token
		}
		return words[n]
	}), nil
}

// encodeToken renders an index the way the packer names its tokens:
// base-36 digits, with characters beyond z for radixes above 36.
func encodeToken(n, radix int) string {
	var prefix string
	if n >= radix {
		prefix = encodeToken(n/radix, radix)
	}
	n = n % radix
	if n > 35 {
		return prefix + string(rune(n+29))
	}
	return prefix + strconv.FormatInt(int64(n), 36)
}

// decodeToken is the inverse of encodeToken. Words that are not valid
// base-N tokens report false and stay untouched in the payload.
func decodeToken(token string, radix int) (int, bool) {
	if token == "" {
		return 0, false
	}
	n := 0
	for _, r := range token {
		var d int
		switch {
		case r >= '0' && r <= '9':
			d = int(r - '0')
		case r >= 'a' && r <= 'z':
			d = int(r-'a') + 10
		case r >= 'A' && r <= 'Z':
			d = int(r) - 29
		default:
			return 0, false
		}
		if d >= radix || n > (1<<31)/radix {
			return 0, false
		}
		n = n*radix + d
	}
	return n, true
}
