package onlinestream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jhoorodre/seanime-provider/internal/extract"
)

const hianimeSearchHTML = `<html><body>
<div class="flw-item">
	<div class="film-poster">
		<div class="tick"><div class="tick-item tick-sub">28</div><div class="tick-item tick-dub">28</div></div>
	</div>
	<div class="film-detail">
		<h3 class="film-name"><a href="/watch/sousou-no-frieren-18542?ref=search" title="Sousou no Frieren">Sousou no Frieren</a></h3>
		<div class="fd-infor"><span class="fdi-item">TV</span></div>
	</div>
</div>
<div class="flw-item">
	<div class="film-poster"><div class="tick"><div class="tick-item tick-sub">12</div></div></div>
	<div class="film-detail">
		<h3 class="film-name"><a href="/watch/frieren-special-99999" title="Frieren Special">Frieren Special</a></h3>
		<div class="fd-infor"><span class="fdi-item">Special</span></div>
	</div>
</div>
</body></html>`

const hianimeEpisodeListHTML = `<div class="ss-list">
<a href="#" class="ssl-item ep-item" data-number="1" data-id="1001" title="The Journey's End"></a>
<a href="#" class="ssl-item ep-item" data-number="2" data-id="1002" title="It Didn't Have to Be Magic"></a>
<a href="#" class="ssl-item ep-item" data-id="1003" title="Killing Magic"></a>
</div>`

const hianimeServersHTML = `<div class="ps__-list">
<div class="item server-item" data-type="sub" data-id="401"><a class="btn">HD-1</a></div>
<div class="item server-item" data-type="dub" data-id="402"><a class="btn">HD-1</a></div>
<div class="item server-item" data-type="raw" data-id="403"><a class="btn">Raw</a></div>
</div>`

func newHianimeTestServer(embedLink string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(hianimeSearchHTML))
	})
	mux.HandleFunc("/ajax/v2/episode/list/18542", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": true, "html": hianimeEpisodeListHTML})
	})
	mux.HandleFunc("/ajax/v2/episode/servers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": true, "html": hianimeServersHTML})
	})
	mux.HandleFunc("/ajax/v2/episode/sources", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": true, "link": embedLink})
	})
	return httptest.NewServer(mux)
}

func TestHianimeSearch(t *testing.T) {
	server := newHianimeTestServer("")
	defer server.Close()

	h := NewHianime(server.URL)

	results, err := h.Search(context.Background(), "frieren", false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "sousou-no-frieren-18542", results[0].ID)
	assert.Equal(t, "Sousou no Frieren", results[0].Title)
	assert.Equal(t, "TV", results[0].Type)
	assert.True(t, results[0].Dubbed)
	assert.False(t, results[1].Dubbed)
}

func TestHianimeSearchDubOnly(t *testing.T) {
	server := newHianimeTestServer("")
	defer server.Close()

	h := NewHianime(server.URL)

	results, err := h.Search(context.Background(), "frieren", true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sousou-no-frieren-18542", results[0].ID)
}

func TestHianimeEpisodes(t *testing.T) {
	server := newHianimeTestServer("")
	defer server.Close()

	h := NewHianime(server.URL)

	episodes, err := h.Episodes(context.Background(), "sousou-no-frieren-18542")
	require.NoError(t, err)
	require.Len(t, episodes, 3)

	assert.Equal(t, "1001", episodes[0].ID)
	assert.Equal(t, float64(1), episodes[0].Number)
	assert.Equal(t, "The Journey's End", episodes[0].Title)

	// Missing data-number falls back to list position
	assert.Equal(t, "1003", episodes[2].ID)
	assert.Equal(t, float64(3), episodes[2].Number)
}

func TestHianimeServers(t *testing.T) {
	server := newHianimeTestServer("")
	defer server.Close()

	h := NewHianime(server.URL)

	servers, err := h.Servers(context.Background(), "1001")
	require.NoError(t, err)
	require.Len(t, servers, 3)

	assert.Equal(t, "401", servers[0].ID)
	assert.Equal(t, "sub", servers[0].Type)
	assert.Equal(t, "HD-1", servers[0].Name)
	assert.Equal(t, "raw", servers[2].Type)
}

type stubStreamExtractor struct{}

func (s *stubStreamExtractor) Name() string { return "stub-stream" }
func (s *stubStreamExtractor) Extract(ctx context.Context, embedURL string) (*extract.Result, error) {
	return &extract.Result{
		Sources: []extract.VideoSource{{URL: "https://cdn.example.org/master.m3u8", Type: "hls", Quality: "auto"}},
		Headers: map[string]string{"Referer": embedURL},
	}, nil
}

func TestHianimeSources(t *testing.T) {
	extract.Register("stub-stream.example.org", &stubStreamExtractor{})

	server := newHianimeTestServer("https://stub-stream.example.org/embed-2/v3/e-1/xyz?k=1")
	defer server.Close()

	h := NewHianime(server.URL)

	media, err := h.Sources(context.Background(), Server{ID: "401", Type: "sub"})
	require.NoError(t, err)
	require.Len(t, media.Sources, 1)
	assert.Equal(t, "https://cdn.example.org/master.m3u8", media.Sources[0].URL)
}

func TestPreferredServer(t *testing.T) {
	servers := []Server{
		{ID: "1", Type: "sub"},
		{ID: "2", Type: "dub"},
		{ID: "3", Type: "raw"},
	}

	s, ok := PreferredServer(servers, false)
	require.True(t, ok)
	assert.Equal(t, "1", s.ID)

	s, ok = PreferredServer(servers, true)
	require.True(t, ok)
	assert.Equal(t, "2", s.ID)

	// Raw fallback when the wanted type is missing
	s, ok = PreferredServer([]Server{{ID: "3", Type: "raw"}}, true)
	require.True(t, ok)
	assert.Equal(t, "3", s.ID)

	// Anything beats nothing
	s, ok = PreferredServer([]Server{{ID: "9", Type: "sub"}}, true)
	require.True(t, ok)
	assert.Equal(t, "9", s.ID)

	_, ok = PreferredServer(nil, false)
	assert.False(t, ok)
}
