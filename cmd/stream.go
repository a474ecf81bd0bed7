package cmd

import (
	"fmt"

	"github.com/Jhoorodre/seanime-provider/internal/onlinestream"
	"github.com/Jhoorodre/seanime-provider/internal/scoring"

	"github.com/spf13/cobra"
)

var (
	flagStreamProvider string
	flagAnimeID        string
	flagAnimeQuery     string
	flagAnimeYear      int
	flagEpisodeID      string
	flagDub            bool
	flagServerName     string
)

func init() {
	episodesCmd := &cobra.Command{
		Use:   "episodes",
		Short: "List the episodes of an anime on a streaming site",
		RunE:  runEpisodes,
	}
	episodesCmd.Flags().StringVar(&flagStreamProvider, "provider", "hianime", "streaming provider (hianime, animepahe)")
	episodesCmd.Flags().StringVar(&flagAnimeID, "id", "", "anime id on the provider")
	episodesCmd.Flags().StringVar(&flagAnimeQuery, "query", "", "search query, best-scoring match is used when --id is not given")
	episodesCmd.Flags().IntVar(&flagAnimeYear, "year", 0, "release year, breaks ties between same-titled results")
	episodesCmd.Flags().BoolVar(&flagDub, "dub", false, "restrict the search to dubbed anime")
	rootCmd.AddCommand(episodesCmd)

	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Resolve an episode into playable stream URLs",
		RunE:  runSources,
	}
	sourcesCmd.Flags().StringVar(&flagStreamProvider, "provider", "hianime", "streaming provider (hianime, animepahe)")
	sourcesCmd.Flags().StringVar(&flagEpisodeID, "episode-id", "", "episode id on the provider")
	sourcesCmd.Flags().BoolVar(&flagDub, "dub", false, "prefer a dubbed server")
	sourcesCmd.Flags().StringVar(&flagServerName, "server", "", "pick a server by name instead of the default")
	sourcesCmd.MarkFlagRequired("episode-id")
	rootCmd.AddCommand(sourcesCmd)
}

func runEpisodes(cmd *cobra.Command, _ []string) error {
	p, err := streamProvider(flagStreamProvider)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	id := flagAnimeID
	if id == "" {
		if flagAnimeQuery == "" {
			return fmt.Errorf("either --id or --query is required")
		}
		results, err := p.Search(ctx, flagAnimeQuery, flagDub)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no anime found for %q on %s", flagAnimeQuery, p.Name())
		}
		id = bestAnimeMatch(flagAnimeQuery, flagAnimeYear, results).ID
	}

	episodes, err := p.Episodes(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(episodes)
}

func runSources(cmd *cobra.Command, _ []string) error {
	p, err := streamProvider(flagStreamProvider)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	servers, err := p.Servers(ctx, flagEpisodeID)
	if err != nil {
		return err
	}

	var server onlinestream.Server
	if flagServerName != "" {
		found := false
		for _, s := range servers {
			if s.Name == flagServerName {
				server, found = s, true
				break
			}
		}
		if !found {
			return fmt.Errorf("no server named %q for episode %s", flagServerName, flagEpisodeID)
		}
	} else {
		var ok bool
		server, ok = onlinestream.PreferredServer(servers, flagDub)
		if !ok {
			return fmt.Errorf("no servers available for episode %s", flagEpisodeID)
		}
	}

	media, err := p.Sources(ctx, server)
	if err != nil {
		return err
	}
	return printJSON(media)
}

// bestAnimeMatch picks the search result a human would have clicked:
// highest title similarity, with the release year breaking ties.
func bestAnimeMatch(query string, year int, results []onlinestream.SearchResult) onlinestream.SearchResult {
	candidates := make([]scoring.Candidate, len(results))
	for i, r := range results {
		candidates[i] = scoring.Candidate{Title: r.Title, Year: r.Year}
	}
	idx, _ := scoring.BestCandidate(query, year, candidates)
	if idx < 0 {
		idx = 0
	}
	return results[idx]
}

func streamProvider(name string) (onlinestream.Provider, error) {
	switch name {
	case "hianime":
		return onlinestream.NewHianime(cfg.HianimeURL), nil
	case "animepahe":
		return onlinestream.NewAnimePahe(cfg.AnimePaheURL), nil
	}
	return nil, fmt.Errorf("unknown streaming provider %q", name)
}
