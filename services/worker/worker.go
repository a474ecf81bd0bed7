package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Jhoorodre/seanime-provider/internal/torrent"
	"github.com/Jhoorodre/seanime-provider/logger"
	"github.com/Jhoorodre/seanime-provider/services/cache"
	"github.com/Jhoorodre/seanime-provider/services/publisher"
)

// seenTTL controls how long a published release stays deduplicated
const seenTTL = 7 * 24 * time.Hour

// Worker polls torrent providers for new releases and publishes the
// ones it has not seen before.
type Worker struct {
	providers []torrent.Provider
	publisher publisher.Publisher
	cacheSvc  cache.CacheService
	interval  time.Duration
	log       *logger.Logger
}

// NewWorker creates a new watch worker
func NewWorker(providers []torrent.Provider, pub publisher.Publisher, cacheSvc cache.CacheService, interval time.Duration) *Worker {
	return &Worker{
		providers: providers,
		publisher: pub,
		cacheSvc:  cacheSvc,
		interval:  interval,
		log:       logger.ForWorker(),
	}
}

// Start runs the watch loop until the context is cancelled
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		w.runOnce(ctx)
		w.log.Info().Msgf("watch cycle finished in %s", time.Since(start))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runOnce polls every provider in parallel and then trims the streams
func (w *Worker) runOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range w.providers {
		wg.Add(1)
		go func(p torrent.Provider) {
			defer wg.Done()
			w.pollAndPublish(ctx, p)
		}(p)
	}
	wg.Wait()

	if err := w.publisher.TrimStreams(); err != nil {
		w.log.WithError(err).Error().Msg("stream trimming failed")
	}
}

// pollAndPublish fetches a provider's latest releases and publishes the
// unseen ones.
func (w *Worker) pollAndPublish(ctx context.Context, p torrent.Provider) {
	torrents, err := p.Latest(ctx)
	if err != nil {
		w.log.WithError(err).Error().Msgf("failed to poll %s", p.Name())
		return
	}

	published := 0
	for i := range torrents {
		t := &torrents[i]
		if w.alreadySeen(p.Name(), t) {
			continue
		}

		data, err := json.Marshal(t)
		if err != nil {
			w.log.WithError(err).Error().Msgf("failed to encode release from %s", p.Name())
			continue
		}

		if err := w.publisher.Publish(p.Name(), data); err != nil {
			w.log.WithError(err).Error().Msgf("failed to publish release from %s", p.Name())
			continue
		}

		w.markSeen(p.Name(), t)
		published++
	}

	w.log.Info().Msgf("%s: %d releases, %d new", p.Name(), len(torrents), published)
}

func (w *Worker) alreadySeen(provider string, t *torrent.AnimeTorrent) bool {
	if w.cacheSvc == nil {
		return false
	}
	_, err := w.cacheSvc.Get(seenKey(provider, t))
	return err == nil
}

func (w *Worker) markSeen(provider string, t *torrent.AnimeTorrent) {
	if w.cacheSvc == nil {
		return
	}
	if err := w.cacheSvc.Set(seenKey(provider, t), []byte("1"), seenTTL); err != nil {
		w.log.WithError(err).Error().Msg("failed to mark release as seen")
	}
}

func seenKey(provider string, t *torrent.AnimeTorrent) string {
	return "seen_release_" + provider + "_" + t.Key()
}
