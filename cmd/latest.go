package cmd

import (
	"github.com/spf13/cobra"
)

var flagLatestProvider string

func init() {
	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "List the most recent releases of a torrent provider",
		RunE:  runLatest,
	}

	latestCmd.Flags().StringVar(&flagLatestProvider, "provider", "nyaa", "torrent provider (nyaa, animetosho)")

	rootCmd.AddCommand(latestCmd)
}

func runLatest(cmd *cobra.Command, _ []string) error {
	p, err := torrentProvider(flagLatestProvider)
	if err != nil {
		return err
	}
	results, err := p.Latest(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(results)
}
