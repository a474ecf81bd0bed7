package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jhoorodre/seanime-provider/internal/torrent"
	"github.com/Jhoorodre/seanime-provider/logger"
	"github.com/Jhoorodre/seanime-provider/services/cache"
	"github.com/Jhoorodre/seanime-provider/services/publisher"
	"github.com/Jhoorodre/seanime-provider/services/worker"

	"github.com/spf13/cobra"
)

var flagInterval time.Duration

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll torrent providers for new releases and publish them to Redis streams",
		RunE:  runWatch,
	}

	watchCmd.Flags().DurationVar(&flagInterval, "interval", 0, "poll interval, overrides WATCH_INTERVAL_SECONDS")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	log := logger.Default

	interval := cfg.WatchInterval
	if flagInterval > 0 {
		interval = flagInterval
	}

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cacheSvc := cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	pub := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	defer pub.Close()
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	providers := []torrent.Provider{
		torrent.NewNyaa(cfg.NyaaURL, cacheSvc),
		torrent.NewAnimeTosho(cfg.AnimeToshoURL),
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("watch_interval", interval).
		Int("provider_count", len(providers)).
		Msg("Starting watch worker")

	w := worker.NewWorker(providers, pub, cacheSvc, interval)
	w.Start(ctx)

	log.Info().Msg("Shutting down gracefully...")
	return nil
}
