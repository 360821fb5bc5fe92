package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/retry"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	svr := httptest.NewServer(h)
	t.Cleanup(svr.Close)
	return New("oauth-token", Options{BaseURL: svr.URL + "/v1"})
}

func readBody(t *testing.T, req *http.Request) string {
	t.Helper()
	b, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	return string(b)
}

func TestClient_Me(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		responseStatus int
		responseBody   string
		expected       models.User
		expectedError  string
	}{
		{
			name:           "ok",
			responseStatus: http.StatusOK,
			responseBody:   `{"id":"username","display_name":"User Name"}`,
			expected:       models.User{ID: "username", DisplayName: "User Name"},
		},
		{
			name:           "error",
			responseStatus: http.StatusUnauthorized,
			responseBody:   `{"error":{"status":401,"message":"Invalid access token"}}`,
			expectedError:  "spotify API error: /v1/me: status 401: Invalid access token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
				require.Equal(t, http.MethodGet, req.Method)
				require.Equal(t, "/v1/me", req.URL.Path)
				require.Equal(t, "Bearer oauth-token", req.Header.Get("Authorization"))
				require.Equal(t, "application/json", req.Header.Get("Accept"))

				w.WriteHeader(tt.responseStatus)
				_, err := w.Write([]byte(tt.responseBody))
				require.NoError(t, err)
			})

			user, err := client.Me(context.Background())
			if tt.expectedError == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tt.expectedError)
				require.ErrorIs(t, err, shared.ErrNotAuthenticated)
			}

			assert.Equal(t, tt.expected, user)
		})
	}
}

func TestClient_SearchArtists(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			require.Equal(t, "/v1/search", req.URL.Path)
			require.Equal(t, "artist", req.URL.Query().Get("type"))
			require.Equal(t, "Sigur Rós", req.URL.Query().Get("q"))

			_, _ = io.WriteString(w, `{"artists":{"items":[
				{"id":"1","name":"Sigur Rós","popularity":60,"genres":["post-rock"],"followers":{"total":10},
				 "images":[{"url":"s","width":64,"height":64},{"url":"l","width":640,"height":640}]},
				{"id":"2","name":"Sigur Ros Tribute","popularity":5}
			]}}`)
		})

		artists, err := client.SearchArtists(context.Background(), "Sigur Rós")
		require.NoError(t, err)
		require.Len(t, artists, 2)

		assert.Equal(t, "1", artists[0].ID)
		assert.Equal(t, 60, artists[0].Popularity)
		assert.Equal(t, 10, artists[0].Followers.Total)
		assert.Equal(t, []string{"post-rock"}, artists[0].Genres)
		assert.Equal(t, "l", artists[0].Images[0].URL)
		assert.Equal(t, "Sigur Ros Tribute", artists[1].Name)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = io.WriteString(w, `{"tracks":{"items":[]}}`)
		})

		_, err := client.SearchArtists(context.Background(), "x")
		require.ErrorIs(t, err, shared.ErrUnexpectedResponse)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = io.WriteString(w, `{"artists":`)
		})

		_, err := client.SearchArtists(context.Background(), "x")
		require.ErrorIs(t, err, shared.ErrUnexpectedResponse)
	})
}

func TestClient_TopTracks(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/v1/artists/abc/top-tracks", req.URL.Path)
		require.Equal(t, "from_token", req.URL.Query().Get("market"))

		_, _ = io.WriteString(w, `{"tracks":[
			{"id":"t1","name":"One","uri":"spotify:track:t1","duration_ms":180000},
			{"id":"t2","name":"Two","uri":"spotify:track:t2","duration_ms":-5}
		]}`)
	})

	tracks, err := client.TopTracks(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, []models.Track{
		{ID: "t1", Name: "One", URI: "spotify:track:t1", DurationMS: 180000},
		{ID: "t2", Name: "Two", URI: "spotify:track:t2", DurationMS: 0},
	}, tracks)
}

func TestClient_UserPlaylists(t *testing.T) {
	t.Parallel()

	var svrURL string
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/v1/users/me-id/playlists", req.URL.Path)

		if req.URL.Query().Get("offset") == "" {
			require.Equal(t, "50", req.URL.Query().Get("limit"))
			next := svrURL + "/v1/users/me-id/playlists?offset=50&limit=50"
			_, _ = fmt.Fprintf(w, `{"total":2,"next":%q,"items":[{"id":"p1","name":"One"}]}`, next)
			return
		}
		_, _ = io.WriteString(w, `{"total":2,"next":null,"items":[{"id":"p2","name":"Two","external_urls":{"spotify":"https://open.spotify.com/playlist/p2"}}]}`)
	}))
	defer svr.Close()
	svrURL = svr.URL

	client := New("oauth-token", Options{BaseURL: svr.URL + "/v1"})
	playlists, err := client.UserPlaylists(context.Background(), "me-id")
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	assert.Equal(t, "p1", playlists[0].ID)
	assert.Equal(t, "https://open.spotify.com/playlist/p2", playlists[1].URL)
}

func TestClient_CreatePlaylist(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "/v1/users/u1/playlists", req.URL.Path)
		require.JSONEq(t, `{"name":"Reykjavík","public":true}`, readBody(t, req))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"new","name":"Reykjavík","public":true,"owner":{"id":"u1"},"external_urls":{"spotify":"https://open.spotify.com/playlist/new"}}`)
	})

	p, err := client.CreatePlaylist(context.Background(), "u1", "Reykjavík", models.PlaylistOptions{Public: true})
	require.NoError(t, err)
	assert.Equal(t, models.Playlist{ID: "new", Name: "Reykjavík", URL: "https://open.spotify.com/playlist/new", OwnerID: "u1", Public: true}, p)
}

func TestClient_AddTracks(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			require.Equal(t, "/v1/playlists/p1/tracks", req.URL.Path)

			var body struct {
				URIs []string `json:"uris"`
			}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, body.URIs)

			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"snapshot_id":"s"}`)
		})

		require.NoError(t, client.AddTracks(context.Background(), "p1", []string{"spotify:track:a", "spotify:track:b"}))
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		err := client.AddTracks(context.Background(), "p1", []string{"spotify:track:a"})

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.RateLimited())
		assert.Equal(t, "7", apiErr.RetryAfter())
		assert.ErrorIs(t, err, shared.ErrRateLimited)

		rl, ok := retry.AsRateLimit(err)
		require.True(t, ok)
		assert.Equal(t, "7", rl.RetryAfter())
	})
}

func TestRetrying(t *testing.T) {
	t.Parallel()

	t.Run("rate limited write is retried after Retry-After", func(t *testing.T) {
		t.Parallel()

		var posts atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			if posts.Add(1) == 1 {
				w.Header().Set("Retry-After", "2")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"snapshot_id":"s"}`)
		})

		var waits []time.Duration
		r := &retry.Retrier{Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}}

		err := NewRetrying(client, r).AddTracks(context.Background(), "p1", []string{"spotify:track:a"})
		require.NoError(t, err)
		assert.Equal(t, int32(2), posts.Load())
		assert.Equal(t, []time.Duration{2 * time.Second}, waits)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, req *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := NewRetrying(client, retry.New(nil)).SearchArtists(context.Background(), "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAPIRequest))
		assert.Equal(t, int32(1), calls.Load())
	})
}
