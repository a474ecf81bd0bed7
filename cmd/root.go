package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Jhoorodre/seanime-provider/config"
	"github.com/Jhoorodre/seanime-provider/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagDebug bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "seanime-provider",
	Short:         "Anime torrent, streaming and manga source tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load environment variables
		godotenv.Load()

		if flagDebug {
			os.Setenv("LOG_LEVEL", "debug")
		}
		logger.Init()

		cfg = config.LoadConfig()
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printJSON writes v to stdout as indented JSON. Logs go to stderr, so
// command output stays pipeable.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
