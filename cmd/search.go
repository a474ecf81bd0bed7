package cmd

import (
	"fmt"

	"github.com/Jhoorodre/seanime-provider/internal/torrent"
	"github.com/Jhoorodre/seanime-provider/services/cache"

	"github.com/spf13/cobra"
)

var (
	flagTorrentProvider string
	flagQuery           string
	flagTitles          []string
	flagEpisode         int
	flagResolution      string
	flagBatch           bool
)

func init() {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search a torrent provider. With --title the query set is built and ranked automatically",
		RunE:  runSearch,
	}

	searchCmd.Flags().StringVar(&flagTorrentProvider, "provider", "nyaa", "torrent provider (nyaa, animetosho)")
	searchCmd.Flags().StringVar(&flagQuery, "query", "", "raw search query")
	searchCmd.Flags().StringSliceVar(&flagTitles, "title", nil, "anime title variant, repeatable (enables ranked search)")
	searchCmd.Flags().IntVar(&flagEpisode, "episode", 0, "episode number to search for")
	searchCmd.Flags().StringVar(&flagResolution, "resolution", "", "preferred resolution (e.g. 1080p)")
	searchCmd.Flags().BoolVar(&flagBatch, "batch", false, "prefer batch releases")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	p, err := torrentProvider(flagTorrentProvider)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if len(flagTitles) > 0 {
		results, err := p.SmartSearch(ctx, torrent.SmartSearchOptions{
			Titles:     flagTitles,
			Episode:    flagEpisode,
			Resolution: flagResolution,
			Batch:      flagBatch,
		})
		if err != nil {
			return err
		}
		return printJSON(results)
	}

	if flagQuery == "" {
		return fmt.Errorf("either --query or at least one --title is required")
	}
	results, err := p.Search(ctx, torrent.SearchOptions{Query: flagQuery})
	if err != nil {
		return err
	}
	return printJSON(results)
}

// torrentProvider builds the named torrent provider from the loaded config.
// Rate-limit bookkeeping for CLI runs lives in an in-process cache.
func torrentProvider(name string) (torrent.Provider, error) {
	switch name {
	case "nyaa":
		return torrent.NewNyaa(cfg.NyaaURL, cache.NewMemoryService()), nil
	case "animetosho":
		return torrent.NewAnimeTosho(cfg.AnimeToshoURL), nil
	}
	return nil, fmt.Errorf("unknown torrent provider %q", name)
}
