package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Jhoorodre/seanime-provider/internal/torrent"
	"github.com/Jhoorodre/seanime-provider/services/cache"
	"github.com/Jhoorodre/seanime-provider/services/publisher"
	"github.com/Jhoorodre/seanime-provider/services/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A minimal listing page in the nyaa layout, enough for the provider to
// parse one release end to end.
const integrationListingHTML = `
<!DOCTYPE html>
<html>
<body>
<table class="torrent-list">
<tbody>
<tr class="success">
  <td><a href="/?c=1_2"><img alt="Anime - English-translated"></a></td>
  <td><a href="/view/1837766" title="[SubsPlease] Sousou no Frieren - 28 (1080p) [F02B9CEE].mkv">[SubsPlease] Sousou no Frieren - 28 (1080p) [F02B9CEE].mkv</a></td>
  <td class="text-center">
    <a href="/download/1837766.torrent"><i class="fa fa-download"></i></a>
    <a href="magnet:?xt=urn:btih:64ecdca6a0b44186fed80468724ae8a2783c69a9&amp;dn=test"><i class="fa fa-magnet"></i></a>
  </td>
  <td class="text-center">1.4 GiB</td>
  <td class="text-center" data-timestamp="1706751345">2024-02-01 01:35</td>
  <td class="text-center">120</td>
  <td class="text-center">4</td>
  <td class="text-center">953</td>
</tr>
</tbody>
</table>
</body>
</html>
`

// TestIntegration runs the full poll-and-publish flow against a local
// Redis instance. Skipped when Redis is unreachable.
func TestIntegration(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("Skipping integration test in CI environment")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, integrationListingHTML)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisAddr := "localhost:6379"
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, DB: 0})
	defer redisClient.Close()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping integration test")
	}

	streamPrefix := "integration_releases"
	streamKey := streamPrefix + ":0"
	redisClient.Del(ctx, streamKey)
	defer redisClient.Del(ctx, streamKey)

	pub := publisher.NewRedisPublisher(ctx, redisAddr, 0, streamPrefix, 1, 100)
	defer pub.Close()

	cacheSvc := cache.NewMemoryService()
	providers := []torrent.Provider{torrent.NewNyaa(server.URL, cacheSvc)}

	w := worker.NewWorker(providers, pub, cacheSvc, time.Hour)
	workerDone := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(workerDone)
	}()

	// The first cycle runs immediately, poll until it lands
	var entries []redis.XMessage
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		var err error
		entries, err = redisClient.XRange(ctx, streamKey, "-", "+").Result()
		require.NoError(t, err)
		if len(entries) > 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NotEmpty(t, entries, "expected the worker to publish a release")

	payload, ok := entries[0].Values["nyaa"].(string)
	require.True(t, ok, "expected the message to be keyed by provider name")

	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	var published torrent.AnimeTorrent
	require.NoError(t, json.Unmarshal(decoded, &published))

	assert.Equal(t, "[SubsPlease] Sousou no Frieren - 28 (1080p) [F02B9CEE].mkv", published.Name)
	assert.Equal(t, "64ecdca6a0b44186fed80468724ae8a2783c69a9", published.InfoHash)
	assert.Equal(t, 120, published.Seeders)
	assert.Equal(t, "nyaa", published.Provider)
	assert.Equal(t, 28, published.Parsed.Episode)

	cancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
