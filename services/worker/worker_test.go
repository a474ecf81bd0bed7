package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jhoorodre/seanime-provider/internal/torrent"
	"github.com/Jhoorodre/seanime-provider/services/cache"
	"github.com/Jhoorodre/seanime-provider/services/publisher"
)

// MockProvider implements the torrent.Provider interface for testing
type MockProvider struct {
	name     string
	torrents []torrent.AnimeTorrent
	fetchErr error
}

// Ensure MockProvider implements torrent.Provider
var _ torrent.Provider = (*MockProvider)(nil)

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Latest(ctx context.Context) ([]torrent.AnimeTorrent, error) {
	return m.torrents, m.fetchErr
}

func (m *MockProvider) Search(ctx context.Context, opts torrent.SearchOptions) ([]torrent.AnimeTorrent, error) {
	return m.torrents, m.fetchErr
}

func (m *MockProvider) SmartSearch(ctx context.Context, opts torrent.SmartSearchOptions) ([]torrent.AnimeTorrent, error) {
	return m.torrents, m.fetchErr
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	trims    int
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	m.messages = append(m.messages, messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func TestWorkerPublishesNewReleases(t *testing.T) {
	provider := &MockProvider{
		name: "mock",
		torrents: []torrent.AnimeTorrent{
			{Name: "[SubsPlease] Sousou no Frieren - 28 (1080p).mkv", Link: "https://example.org/1", InfoHash: "aaa"},
			{Name: "[SubsPlease] Sousou no Frieren - 29 (1080p).mkv", Link: "https://example.org/2", InfoHash: "bbb"},
		},
	}
	pub := &MockPublisher{}
	w := NewWorker([]torrent.Provider{provider}, pub, cache.NewMemoryService(), time.Minute)

	w.runOnce(context.Background())
	assert.Equal(t, 2, pub.count())
	assert.Equal(t, 1, pub.trims)

	// A second cycle publishes nothing, both releases are known
	w.runOnce(context.Background())
	assert.Equal(t, 2, pub.count())
}

func TestWorkerProviderError(t *testing.T) {
	provider := &MockProvider{name: "broken", fetchErr: errors.New("site down")}
	pub := &MockPublisher{}
	w := NewWorker([]torrent.Provider{provider}, pub, cache.NewMemoryService(), time.Minute)

	w.runOnce(context.Background())
	assert.Equal(t, 0, pub.count())
}

func TestWorkerWithoutCachePublishesEverything(t *testing.T) {
	provider := &MockProvider{
		name: "mock",
		torrents: []torrent.AnimeTorrent{
			{Name: "release", Link: "https://example.org/1"},
		},
	}
	pub := &MockPublisher{}
	w := NewWorker([]torrent.Provider{provider}, pub, nil, time.Minute)

	w.runOnce(context.Background())
	w.runOnce(context.Background())
	assert.Equal(t, 2, pub.count())
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	provider := &MockProvider{name: "mock"}
	pub := &MockPublisher{}
	w := NewWorker([]torrent.Provider{provider}, pub, cache.NewMemoryService(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	require.GreaterOrEqual(t, pub.trims, 1)
}
