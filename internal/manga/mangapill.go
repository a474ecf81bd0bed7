package manga

// MangapillConfig is the built-in site description for mangapill. Each
// selector list starts with the current markup and keeps older
// generations as fallbacks.
func MangapillConfig(baseURL string) SiteConfig {
	cfg := SiteConfig{
		Name:       "mangapill",
		BaseURL:    baseURL,
		SearchPath: "/search?q=%s",
	}

	cfg.Selectors.Search.Item = SelectorSet{
		"div.container div.my-3.grid > div",
		"div.grid.gap-3 > div",
	}
	cfg.Selectors.Search.Link = SelectorSet{
		`a[href^="/manga/"]`,
		"a",
	}
	cfg.Selectors.Search.Title = SelectorSet{
		"div.font-black",
		"div.leading-tight",
		"h3",
	}
	cfg.Selectors.Search.Image = SelectorSet{
		"figure img",
		"img",
	}

	cfg.Selectors.Chapters.Item = SelectorSet{
		"div[data-filter-list] a",
		"div#chapters a",
	}

	cfg.Selectors.Pages.Image = SelectorSet{
		"picture img",
		"img.js-page",
	}
	cfg.Selectors.Pages.Attrs = []string{"data-src", "src"}

	return cfg
}

// NewMangapill creates the mangapill provider, applying any selector
// overrides loaded from disk.
func NewMangapill(baseURL string, overrides []SiteConfig) *Configurable {
	cfg := MangapillConfig(baseURL)
	applyOverrides(&cfg, overrides)
	return NewConfigurable(cfg)
}

// applyOverrides patches a built-in site config with the matching
// override entry, field by field. Empty override fields keep defaults.
func applyOverrides(cfg *SiteConfig, overrides []SiteConfig) {
	for _, o := range overrides {
		if o.Name != cfg.Name {
			continue
		}
		if o.BaseURL != "" {
			cfg.BaseURL = o.BaseURL
		}
		if o.SearchPath != "" {
			cfg.SearchPath = o.SearchPath
		}
		if o.Referer != "" {
			cfg.Referer = o.Referer
		}
		if len(o.Selectors.Search.Item) > 0 {
			cfg.Selectors.Search.Item = o.Selectors.Search.Item
		}
		if len(o.Selectors.Search.Link) > 0 {
			cfg.Selectors.Search.Link = o.Selectors.Search.Link
		}
		if len(o.Selectors.Search.Title) > 0 {
			cfg.Selectors.Search.Title = o.Selectors.Search.Title
		}
		if len(o.Selectors.Search.Image) > 0 {
			cfg.Selectors.Search.Image = o.Selectors.Search.Image
		}
		if len(o.Selectors.Chapters.Item) > 0 {
			cfg.Selectors.Chapters.Item = o.Selectors.Chapters.Item
		}
		if len(o.Selectors.Pages.Image) > 0 {
			cfg.Selectors.Pages.Image = o.Selectors.Pages.Image
		}
		if len(o.Selectors.Pages.Attrs) > 0 {
			cfg.Selectors.Pages.Attrs = o.Selectors.Pages.Attrs
		}
	}
}
