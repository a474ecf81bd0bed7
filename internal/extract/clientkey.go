package extract

import (
	"regexp"
	"strings"

	apperr "github.com/Jhoorodre/seanime-provider/pkg/errors"
)

// The embed page hides the per-request client key behind one of several
// rotating obfuscation methods. Each handler knows how to recognize one
// method and pull the key out of it; they are tried in order and the
// first hit wins.
type keyHandler struct {
	pattern *regexp.Regexp
	extract func(match []string) string
}

var keyHandlers = []keyHandler{
	// <meta name="_gg_fb" content="{KEY}">
	{
		pattern: regexp.MustCompile(`<meta name="_gg_fb" content="([a-zA-Z0-9]+)">`),
		extract: func(m []string) string { return m[1] },
	},
	// <!-- _is_th:{KEY} -->
	{
		pattern: regexp.MustCompile(`<!--\s+_is_th:([0-9a-zA-Z]+)\s+-->`),
		extract: func(m []string) string { return m[1] },
	},
	// <script>window._lk_db = {x: "{P1}", y: "{P2}", z: "{P3}"};</script>
	// The three parts concatenate in x, y, z order regardless of how the
	// object lists them.
	{
		pattern: regexp.MustCompile(`window\._lk_db\s+=\s+(\{[^}]+\});`),
		extract: func(m []string) string {
			var b strings.Builder
			for _, part := range []string{"x", "y", "z"} {
				partRe := regexp.MustCompile(part + `:\s+"([a-zA-Z0-9]+)"`)
				pm := partRe.FindStringSubmatch(m[1])
				if pm == nil {
					return ""
				}
				b.WriteString(pm[1])
			}
			return b.String()
		},
	},
	// <div data-dpi="{KEY}" ...></div>
	{
		pattern: regexp.MustCompile(`<div\s+data-dpi="([0-9a-zA-Z]+)"\s+[^>]*></div>`),
		extract: func(m []string) string { return m[1] },
	},
	// <script nonce="{KEY}">
	{
		pattern: regexp.MustCompile(`<script nonce="([0-9a-zA-Z]+)">`),
		extract: func(m []string) string { return m[1] },
	},
	// <script>window._xy_ws = "{KEY}";</script>
	{
		pattern: regexp.MustCompile("window\\._xy_ws = ['\"`]([0-9a-zA-Z]+)['\"`];"),
		extract: func(m []string) string { return m[1] },
	},
}

// extractClientKey finds the rotating client key in embed page HTML
func extractClientKey(html string) (string, error) {
	for _, h := range keyHandlers {
		m := h.pattern.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		if key := h.extract(m); key != "" {
			return key, nil
		}
	}
	return "", apperr.NewExtraction("megacloud", "no client key obfuscation pattern matched", nil)
}
