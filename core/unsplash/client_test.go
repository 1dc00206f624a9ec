package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splashbot/core/ratelimit"
)

const randomPhotoBody = `{
	"id": "abc123",
	"description": null,
	"alt_description": "snow covered mountain",
	"width": 4000,
	"height": 3000,
	"likes": 42,
	"urls": {"regular": "https://images.unsplash.com/abc?w=1080"},
	"links": {"html": "https://unsplash.com/photos/abc123", "download_location": "https://api.unsplash.com/photos/abc123/download"},
	"user": {"name": "Jane Doe", "username": "janedoe", "links": {"html": "https://unsplash.com/@janedoe"}}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRequests int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := ratelimit.New(maxRequests, time.Hour)
	client := NewClient(Config{
		AccessKey: "test-key",
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
	}, limiter, nil)
	t.Cleanup(client.Close)
	return client, srv
}

func TestRandomPhoto(t *testing.T) {
	var gotAuth, gotVersion, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Accept-Version")
		gotQuery = r.URL.Query().Get("query")
		w.Write([]byte(randomPhotoBody))
	}, 10)

	photo, err := client.RandomPhoto(context.Background(), "mountain", "landscape")
	require.NoError(t, err)

	assert.Equal(t, "Client-ID test-key", gotAuth)
	assert.Equal(t, "v1", gotVersion)
	assert.Equal(t, "mountain", gotQuery)

	assert.Equal(t, "abc123", photo.ID)
	assert.Nil(t, photo.Description)
	require.NotNil(t, photo.AltDescription)
	assert.Equal(t, "snow covered mountain", *photo.AltDescription)
	assert.Equal(t, 42, photo.Likes)
	assert.Equal(t, "Jane Doe", photo.User.Name)
	assert.Equal(t, "https://api.unsplash.com/photos/abc123/download", photo.Links.DownloadLocation)

	assert.Equal(t, 9, client.Limiter().Remaining())
}

func TestSearchPhotosEmptyIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{"total": 0, "total_pages": 0, "results": []}`))
	}, 10)

	result, err := client.SearchPhotos(context.Background(), SearchParams{Query: "zzzzzz", PerPage: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.Equal(t, 0, result.Total)
}

func TestSearchPhotosFilterParams(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ocean", r.URL.Query().Get("query"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		assert.Equal(t, "", r.URL.Query().Get("color"))
		w.Write([]byte(`{"total": 1, "total_pages": 1, "results": [` + randomPhotoBody + `]}`))
	}, 10)

	result, err := client.SearchPhotos(context.Background(), SearchParams{
		Query:       "ocean",
		PerPage:     1,
		Orientation: "landscape",
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "abc123", result.Results[0].ID)
}

func TestThrottledResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, 10)

	_, err := client.RandomPhoto(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrThrottled)

	// The attempt consumed quota even though it failed.
	assert.Equal(t, 9, client.Limiter().Remaining())
}

func TestUpstreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 10)

	_, err := client.RandomPhoto(context.Background(), "", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, 9, client.Limiter().Remaining())
}

func TestQuotaRefusalSkipsNetwork(t *testing.T) {
	var hits atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(randomPhotoBody))
	}, 1)

	_, err := client.RandomPhoto(context.Background(), "", "")
	require.NoError(t, err)

	_, err = client.RandomPhoto(context.Background(), "", "")
	var quotaErr *QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Greater(t, quotaErr.ResetIn, time.Duration(0))

	assert.EqualValues(t, 1, hits.Load(), "refused call must not reach the server")
}

func TestTrackDownloadBestEffort(t *testing.T) {
	var pings atomic.Int64
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			pings.Add(1)
			assert.Equal(t, "Client-ID test-key", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
	}, 10)

	// nil dispatcher runs the ping synchronously.
	client.TrackDownload(context.Background(), srv.URL+"/ping")
	assert.EqualValues(t, 1, pings.Load())

	// The ping spent a quota slot like any other call.
	assert.Equal(t, 9, client.Limiter().Remaining())

	// Failures are swallowed: an unreachable location must not panic or block.
	client.TrackDownload(context.Background(), "http://127.0.0.1:1/unreachable")
	client.TrackDownload(context.Background(), "")
}

func TestTrackDownloadSharesQuotaWindow(t *testing.T) {
	var hits atomic.Int64
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}, 1)

	client.TrackDownload(context.Background(), srv.URL+"/ping")
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 0, client.Limiter().Remaining())

	// With the window full the ping is dropped before touching the network.
	client.TrackDownload(context.Background(), srv.URL+"/ping")
	assert.EqualValues(t, 1, hits.Load())

	// And a spent ping slot refuses a regular read just like any other call.
	_, err := client.RandomPhoto(context.Background(), "", "")
	var quotaErr *QuotaError
	require.ErrorAs(t, err, &quotaErr)
}
