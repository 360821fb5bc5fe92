// Package catalog is the music catalog client used to resolve artists, fetch
// their top tracks and write playlists.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/agukrapo/go-http-client/requests"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"
	defaultMarket  = "from_token"
	playlistPage   = 50
)

// API is the set of catalog operations the enrichment and playlist code depend on.
type API interface {
	Me(ctx context.Context) (models.User, error)
	SearchArtists(ctx context.Context, query string) ([]models.Artist, error)
	TopTracks(ctx context.Context, artistID string) ([]models.Track, error)
	UserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error)
	CreatePlaylist(ctx context.Context, userID, name string, opts models.PlaylistOptions) (models.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

type httpClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures a [Client]. Zero values select the defaults.
type Options struct {
	BaseURL    string
	Market     string
	HTTPClient httpClient
	Logger     *log.Logger
}

// Client calls the Spotify Web API with a bearer token it never inspects.
type Client struct {
	baseURL    string
	token      string
	market     string
	httpClient httpClient
	logger     *log.Logger
}

// New creates a catalog client for token.
func New(token string, opts Options) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		token:      token,
		market:     opts.Market,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = spotifyBaseURL
	}
	if c.market == "" {
		c.market = defaultMarket
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(io.Discard)
	}
	return c
}

func (c *Client) headers(b *requests.Builder) *requests.Builder {
	b.Header("Authorization", "Bearer "+c.token)
	b.Header("Accept", "application/json")
	b.Header("Content-Type", "application/json")
	return b
}

// Me returns the user that owns the token.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	res, err := get[spotifyUser](ctx, c, c.baseURL+"/me", "id")
	if err != nil {
		return models.User{}, err
	}
	return models.User{ID: res.ID, DisplayName: res.DisplayName}, nil
}

// SearchArtists runs an artist search for query and returns the items in catalog order.
func (c *Client) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	endpoint := c.baseURL + "/search?type=artist&q=" + url.QueryEscape(query)

	res, err := get[artistSearch](ctx, c, endpoint, "artists.items")
	if err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(res.Artists.Items))
	for _, a := range res.Artists.Items {
		artists = append(artists, a.model())
	}
	return artists, nil
}

// TopTracks returns the artist's top tracks in the configured market.
func (c *Client) TopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	endpoint := c.baseURL + "/artists/" + url.PathEscape(artistID) + "/top-tracks?market=" + url.QueryEscape(c.market)

	res, err := get[topTracks](ctx, c, endpoint, "tracks")
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(res.Tracks))
	for _, t := range res.Tracks {
		tracks = append(tracks, t.model())
	}
	return tracks, nil
}

// UserPlaylists lists every playlist of userID, following pagination.
func (c *Client) UserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	var playlists []models.Playlist
	endpoint := fmt.Sprintf("%s/users/%s/playlists?limit=%d", c.baseURL, url.PathEscape(userID), playlistPage)

	for endpoint != "" {
		page, err := get[paginatedPlaylists](ctx, c, endpoint, "items")
		if err != nil {
			return nil, err
		}

		for _, p := range page.Items {
			playlists = append(playlists, p.model())
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
		c.logger.Debug("fetched playlist page", "count", len(playlists), "total", page.Total)
	}

	return playlists, nil
}

// CreatePlaylist creates a playlist owned by userID.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name string, opts models.PlaylistOptions) (models.Playlist, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(userID) + "/playlists"
	payload := map[string]any{"name": name, "public": opts.Public}
	if opts.Description != "" {
		payload["description"] = opts.Description
	}

	res, err := post[spotifyPlaylist](ctx, c, endpoint, payload, "id")
	if err != nil {
		return models.Playlist{}, err
	}
	return res.model(), nil
}

// AddTracks appends uris to a playlist in a single request. Callers keep batches within the catalog's per-request limit.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := c.baseURL + "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	_, err := post[snapshot](ctx, c, endpoint, map[string][]string{"uris": uris}, "")
	return err
}

func get[T any](ctx context.Context, c *Client, endpoint, shape string) (T, error) {
	var out T
	req, err := c.headers(requests.New(endpoint)).Build(ctx)
	if err != nil {
		return out, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return send[T](c, req, shape)
}

func post[T any](ctx context.Context, c *Client, endpoint string, payload any, shape string) (T, error) {
	var out T
	body, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := c.headers(requests.New(endpoint).Method(http.MethodPost).Body(bytes.NewReader(body))).Build(ctx)
	if err != nil {
		return out, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return send[T](c, req, shape)
}

// send performs req and decodes a 2xx body into T.
//
// shape, when set, is a gjson path that must exist in the body. A body that
// does not carry it is rejected instead of decoding into zero values.
func send[T any](c *Client, req *http.Request, shape string) (T, error) {
	var out T

	res, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return out, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := newAPIError(res, req.URL.Path, body)
		c.logger.Debug("catalog request failed", "method", req.Method, "path", req.URL.Path, "status", res.StatusCode)
		return out, apiErr
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if shape != "" {
			return out, fmt.Errorf("%w: %s: empty body", shared.ErrUnexpectedResponse, req.URL.Path)
		}
		return out, nil
	}

	if !gjson.ValidBytes(body) {
		return out, fmt.Errorf("%w: %s: invalid JSON", shared.ErrUnexpectedResponse, req.URL.Path)
	}
	if shape != "" && !gjson.GetBytes(body, shape).Exists() {
		return out, fmt.Errorf("%w: %s: missing %q", shared.ErrUnexpectedResponse, req.URL.Path, shape)
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %w", shared.ErrUnexpectedResponse, req.URL.Path, err)
	}
	return out, nil
}

// BestMatch picks the most popular artist whose name equals name, ignoring case.
// The first candidate wins ties, so catalog order decides between equals.
func BestMatch(name string, candidates []models.Artist) (models.Artist, bool) {
	matches := lo.Filter(candidates, func(a models.Artist, _ int) bool {
		return strings.EqualFold(a.Name, name)
	})
	if len(matches) == 0 {
		return models.Artist{}, false
	}

	return lo.MaxBy(matches, func(a, best models.Artist) bool {
		return a.Popularity > best.Popularity
	}), true
}
