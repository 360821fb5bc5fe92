package catalog

import (
	"context"

	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/retry"
)

// Retrying decorates an [API] so every call waits out rate limits.
type Retrying struct {
	api API
	r   *retry.Retrier

	search    func(context.Context, string) ([]models.Artist, error)
	topTracks func(context.Context, string) ([]models.Track, error)
	playlists func(context.Context, string) ([]models.Playlist, error)
	addTracks func(context.Context, string, []string) (struct{}, error)
}

// NewRetrying wraps api with r.
func NewRetrying(api API, r *retry.Retrier) *Retrying {
	return &Retrying{
		api:       api,
		r:         r,
		search:    retry.Wrap(r, api.SearchArtists),
		topTracks: retry.Wrap(r, api.TopTracks),
		playlists: retry.Wrap(r, api.UserPlaylists),
		addTracks: retry.Wrap2(r, func(ctx context.Context, id string, uris []string) (struct{}, error) {
			return struct{}{}, api.AddTracks(ctx, id, uris)
		}),
	}
}

func (c *Retrying) Me(ctx context.Context) (models.User, error) {
	return retry.Do(ctx, c.r, c.api.Me)
}

func (c *Retrying) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	return c.search(ctx, query)
}

func (c *Retrying) TopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	return c.topTracks(ctx, artistID)
}

func (c *Retrying) UserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	return c.playlists(ctx, userID)
}

func (c *Retrying) CreatePlaylist(ctx context.Context, userID, name string, opts models.PlaylistOptions) (models.Playlist, error) {
	return retry.Do(ctx, c.r, func(ctx context.Context) (models.Playlist, error) {
		return c.api.CreatePlaylist(ctx, userID, name, opts)
	})
}

func (c *Retrying) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	_, err := c.addTracks(ctx, playlistID, uris)
	return err
}

var _ API = (*Retrying)(nil)
var _ API = (*Client)(nil)
