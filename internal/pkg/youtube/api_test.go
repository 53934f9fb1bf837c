package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/far4599/ytduration/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestAPIClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewAPIClient(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return c
}

func TestNewAPIClientRequiresKey(t *testing.T) {
	_, err := NewAPIClient(context.Background(), "")

	var confErr *models.ConfigurationError
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, "youtube.api_key", confErr.Field)
}

func TestAPIClientVideos(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		assert.Equal(t, "a,b,c", r.URL.Query().Get("id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"a","snippet":{"title":"A","channelTitle":"Chan"},"contentDetails":{"duration":"PT1M30S"}},
			{"id":"c","snippet":{"title":"C","channelTitle":"Chan"},"contentDetails":{"duration":"PT1H"}}
		]}`))
	})

	videos, err := c.Videos(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []Video{
		{ID: "a", Title: "A", Channel: "Chan", Duration: "PT1M30S"},
		{ID: "c", Title: "C", Channel: "Chan", Duration: "PT1H"},
	}, videos)
}

func TestAPIClientQuotaExceeded(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.",
			"errors":[{"domain":"youtube.quota","reason":"quotaExceeded","message":"quota"}]}}`))
	})

	_, err := c.Videos(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrQuotaExceeded), "got %v", err)
}

func TestAPIClientPlaylistPage(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/playlistItems", r.URL.Path)
		assert.Equal(t, "PL1", r.URL.Query().Get("playlistId"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"nextPageToken":"NEXT","items":[{"contentDetails":{"videoId":"v1"}},{"contentDetails":{"videoId":"v2"}}]}`))
			return
		}

		assert.Equal(t, "NEXT", r.URL.Query().Get("pageToken"))
		_, _ = w.Write([]byte(`{"items":[{"contentDetails":{"videoId":"v3"}}]}`))
	})

	page, err := c.PlaylistPage(context.Background(), "PL1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, page.VideoIDs)
	assert.Equal(t, "NEXT", page.NextPageToken)

	page, err = c.PlaylistPage(context.Background(), "PL1", page.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"v3"}, page.VideoIDs)
	assert.Empty(t, page.NextPageToken)
}

func TestAPIClientPlaylistNotFound(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"playlist not found","errors":[{"reason":"playlistNotFound"}]}}`))
	})

	_, err := c.PlaylistPage(context.Background(), "PLX", "")
	assert.True(t, errors.Is(err, models.ErrNotAvailable), "got %v", err)
}

func TestAPIClientUploadsPlaylistByHandle(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/channels", r.URL.Path)
		assert.Equal(t, "@someone", r.URL.Query().Get("forHandle"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"UCxxxxxxxxxxxxxxxxxxxxxx","contentDetails":{"relatedPlaylists":{"uploads":"UUxxxxxxxxxxxxxxxxxxxxxx"}}}]}`))
	})

	uploads, err := c.UploadsPlaylist(context.Background(), "@someone")
	require.NoError(t, err)
	assert.Equal(t, "UUxxxxxxxxxxxxxxxxxxxxxx", uploads)
}

func TestAPIClientUploadsPlaylistSearchFallback(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/youtube/v3/search":
			assert.Equal(t, "legacyname", r.URL.Query().Get("q"))
			assert.Equal(t, "channel", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#channel","channelId":"UCyyyyyyyyyyyyyyyyyyyyyy"}}]}`))
		case r.URL.Query().Get("forUsername") == "legacyname":
			_, _ = w.Write([]byte(`{"items":[]}`))
		case r.URL.Query().Get("id") == "UCyyyyyyyyyyyyyyyyyyyyyy":
			_, _ = w.Write([]byte(`{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUyyyyyyyyyyyyyyyyyyyyyy"}}}]}`))
		default:
			t.Errorf("unexpected request %s", r.URL)
		}
	})

	uploads, err := c.UploadsPlaylist(context.Background(), "legacyname")
	require.NoError(t, err)
	assert.Equal(t, "UUyyyyyyyyyyyyyyyyyyyyyy", uploads)
}

func TestAPIClientSearch(t *testing.T) {
	c := newTestAPIClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		assert.Equal(t, "golang", q.Get("q"))
		assert.Equal(t, "en", q.Get("relevanceLanguage"))
		assert.Equal(t, "US", q.Get("regionCode"))
		assert.Equal(t, "long", q.Get("videoDuration"))
		assert.Equal(t, "video", q.Get("type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"s1"}},{"id":{"kind":"youtube#video","videoId":"s2"}}]}`))
	})

	page, err := c.Search(context.Background(), SearchQuery{
		Query:      "golang",
		Language:   "en",
		Country:    "us",
		Duration:   "long",
		MaxResults: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, page.VideoIDs)
}

func TestClassifyChannel(t *testing.T) {
	assert.Equal(t, channelByHandle, classifyChannel("@handle"))
	assert.Equal(t, channelByID, classifyChannel("UCuAXFkgsw1L7xaCfnd5JJOw"))
	assert.Equal(t, channelByName, classifyChannel("UCshort"))
	assert.Equal(t, channelByName, classifyChannel("somename"))
}
