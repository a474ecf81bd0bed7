package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMegacloudTestServer(t *testing.T, clientKey string, sourcesBody func() string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embed-1/v3/e-1/abc123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><meta name="_gg_fb" content="%s"></head><body></body></html>`, clientKey)
	})
	mux.HandleFunc("/embed-1/v3/e-1/getSources", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("_k") != clientKey {
			http.Error(w, "missing client key", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sourcesBody()))
	})
	mux.HandleFunc("/keys.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"mega":"testSecretKey"}`))
	})
	return httptest.NewServer(mux)
}

func TestMegacloudExtractPlaintext(t *testing.T) {
	server := newMegacloudTestServer(t, "plainClientKey", func() string {
		return `{
			"sources": [{"file":"https://cdn.example.org/master.m3u8","type":"hls"}],
			"tracks": [
				{"file":"https://cdn.example.org/eng.vtt","label":"English","kind":"captions","default":true},
				{"file":"https://cdn.example.org/thumbs.vtt","label":"thumbnails","kind":"thumbnails"}
			],
			"encrypted": false
		}`
	})
	defer server.Close()

	m := NewMegacloud()

	result, err := m.Extract(context.Background(), server.URL+"/embed-1/v3/e-1/abc123")
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)

	assert.Equal(t, "https://cdn.example.org/master.m3u8", result.Sources[0].URL)
	assert.Equal(t, "hls", result.Sources[0].Type)

	// Only caption tracks become subtitles
	require.Len(t, result.Subtitles, 1)
	assert.Equal(t, "English", result.Subtitles[0].Language)
	assert.True(t, result.Subtitles[0].Default)
}

func TestMegacloudExtractEncrypted(t *testing.T) {
	const clientKey = "encClientKey99"
	payload := `[{"file":"https://cdn.example.org/enc/master.m3u8","type":"hls"}]`

	server := newMegacloudTestServer(t, clientKey, func() string {
		return fmt.Sprintf(`{"sources": %q, "tracks": [], "encrypted": true}`,
			encryptSources(payload, clientKey, "testSecretKey"))
	})
	defer server.Close()

	m := NewMegacloud()
	m.keysURL = server.URL + "/keys.json"

	result, err := m.Extract(context.Background(), server.URL+"/embed-1/v3/e-1/abc123")
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "https://cdn.example.org/enc/master.m3u8", result.Sources[0].URL)
}

func TestMegacloudExtractNoClientKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>bare page</body></html>"))
	}))
	defer server.Close()

	m := NewMegacloud()

	_, err := m.Extract(context.Background(), server.URL+"/embed-1/v3/e-1/abc123")
	assert.Error(t, err)
}

type stubExtractor struct{ name string }

func (s *stubExtractor) Name() string { return s.name }
func (s *stubExtractor) Extract(ctx context.Context, embedURL string) (*Result, error) {
	return &Result{}, nil
}

func TestRegistry(t *testing.T) {
	stub := &stubExtractor{name: "stub"}
	Register("player.example.org", stub)

	e, err := ForURL("https://player.example.org/e/xyz")
	require.NoError(t, err)
	assert.Equal(t, "stub", e.Name())

	// Subdomains resolve to the same extractor
	e, err = ForURL("https://cdn.player.example.org/e/xyz")
	require.NoError(t, err)
	assert.Equal(t, "stub", e.Name())

	_, err = ForURL("https://unknown-host.example.net/e/xyz")
	assert.Error(t, err)
}

func TestDefaultRegistrations(t *testing.T) {
	e, err := ForURL("https://megacloud.tv/embed-2/v3/e-1/abc")
	require.NoError(t, err)
	assert.Equal(t, "megacloud", e.Name())

	e, err = ForURL("https://kwik.si/e/abc")
	require.NoError(t, err)
	assert.Equal(t, "kwik", e.Name())
}
