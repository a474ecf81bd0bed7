package cmd

import (
	"fmt"

	"github.com/Jhoorodre/seanime-provider/internal/manga"
	"github.com/Jhoorodre/seanime-provider/internal/scoring"

	"github.com/spf13/cobra"
)

var (
	flagMangaProvider string
	flagMangaID       string
	flagMangaQuery    string
	flagChapterID     string
)

func init() {
	chaptersCmd := &cobra.Command{
		Use:   "chapters",
		Short: "List the chapters of a manga",
		RunE:  runChapters,
	}
	chaptersCmd.Flags().StringVar(&flagMangaProvider, "provider", "mangapill", "manga provider (mangapill, mangakatana)")
	chaptersCmd.Flags().StringVar(&flagMangaID, "id", "", "manga id on the provider")
	chaptersCmd.Flags().StringVar(&flagMangaQuery, "query", "", "search query, best-scoring match is used when --id is not given")
	rootCmd.AddCommand(chaptersCmd)

	pagesCmd := &cobra.Command{
		Use:   "pages",
		Short: "List the page image URLs of a chapter",
		RunE:  runPages,
	}
	pagesCmd.Flags().StringVar(&flagMangaProvider, "provider", "mangapill", "manga provider (mangapill, mangakatana)")
	pagesCmd.Flags().StringVar(&flagChapterID, "chapter-id", "", "chapter id on the provider")
	pagesCmd.MarkFlagRequired("chapter-id")
	rootCmd.AddCommand(pagesCmd)
}

func runChapters(cmd *cobra.Command, _ []string) error {
	p, err := mangaProvider(flagMangaProvider)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	id := flagMangaID
	if id == "" {
		if flagMangaQuery == "" {
			return fmt.Errorf("either --id or --query is required")
		}
		results, err := p.Search(ctx, flagMangaQuery)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no manga found for %q on %s", flagMangaQuery, p.Name())
		}
		id = bestMangaMatch(flagMangaQuery, results).ID
	}

	chapters, err := p.Chapters(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(chapters)
}

func runPages(cmd *cobra.Command, _ []string) error {
	p, err := mangaProvider(flagMangaProvider)
	if err != nil {
		return err
	}
	pages, err := p.Pages(cmd.Context(), flagChapterID)
	if err != nil {
		return err
	}
	return printJSON(pages)
}

// bestMangaMatch picks the search result whose title scores closest to
// the query instead of trusting the site's result order.
func bestMangaMatch(query string, results []manga.SearchResult) manga.SearchResult {
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Title
	}
	idx, _ := scoring.BestMatch(query, titles)
	if idx < 0 {
		idx = 0
	}
	return results[idx]
}

func mangaProvider(name string) (manga.Provider, error) {
	switch name {
	case "mangapill":
		overrides, err := manga.LoadSiteConfigs(cfg.MangaSelectorsFile)
		if err != nil {
			return nil, err
		}
		return manga.NewMangapill(cfg.MangapillURL, overrides), nil
	case "mangakatana":
		return manga.NewMangakatana(cfg.MangakatanaURL), nil
	}
	return nil, fmt.Errorf("unknown manga provider %q", name)
}
