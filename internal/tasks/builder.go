package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/samber/lo"
)

const (
	// MaxPlaylistTracks is the most tracks the catalog keeps in one playlist.
	MaxPlaylistTracks = 10_000
	// MaxTracksPerRequest is the most URIs accepted by one add-tracks call.
	MaxTracksPerRequest = 100
)

// BuildRequest describes a playlist to materialise from the selected artists.
type BuildRequest struct {
	User            models.User
	Name            string
	Artists         []models.ArtistWithTracks // the selected prefix
	TracksPerArtist int
	Options         models.PlaylistOptions
}

// BuildResult is the outcome of [Builder.Build].
//
// A failed build carries the error text verbatim in Message.
type BuildResult struct {
	Playlist  models.Playlist `json:"playlist"`
	Submitted int             `json:"submitted"`
	Failed    bool            `json:"failed"`
	Message   string          `json:"message,omitempty"`
}

// Builder writes selected tracks to a catalog playlist.
//
// Catalog should already retry rate-limited calls (see [catalog.Retrying]).
type Builder struct {
	Catalog catalog.API
	Logger  *log.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(api catalog.API, logger *log.Logger) *Builder {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Builder{Catalog: api, Logger: logger}
}

// GetOrCreatePlaylist reuses the user's playlist named exactly name, or creates it.
//
// Not atomic: two concurrent callers can both create.
func (b *Builder) GetOrCreatePlaylist(ctx context.Context, user models.User, name string, opts models.PlaylistOptions) (models.Playlist, bool, error) {
	existing, err := b.Catalog.UserPlaylists(ctx, user.ID)
	if err != nil {
		return models.Playlist{}, false, fmt.Errorf("failed to list playlists: %w", err)
	}

	if p, ok := lo.Find(existing, func(p models.Playlist) bool { return p.Name == name }); ok {
		return p, false, nil
	}

	p, err := b.Catalog.CreatePlaylist(ctx, user.ID, name, opts)
	if err != nil {
		return models.Playlist{}, false, fmt.Errorf("failed to create playlist: %w", err)
	}
	return p, true, nil
}

// AddTracks appends tracks in batches, stopping at the playlist ceiling.
// Tracks past the ceiling are dropped. Returns the number submitted.
func (b *Builder) AddTracks(ctx context.Context, playlist models.Playlist, tracks []models.Track, progress chan<- ProgressUpdate) (int, error) {
	tracks = tracks[:min(len(tracks), MaxPlaylistTracks)]
	uris := lo.Map(tracks, func(t models.Track, _ int) string { return t.URI })
	batches := lo.Chunk(uris, MaxTracksPerRequest)

	submitted := 0
	for i, batch := range batches {
		if err := b.Catalog.AddTracks(ctx, playlist.ID, batch); err != nil {
			return submitted, fmt.Errorf("failed to add tracks (batch %d/%d): %w", i+1, len(batches), err)
		}
		submitted += len(batch)
		sendProgress(progress, addTracksUpdate(i+1, len(batches), submitted))
	}
	return submitted, nil
}

// Build finds or creates the playlist and fills it with the capped tracks of
// the selected artists. Errors are reported in the result, never returned.
func (b *Builder) Build(ctx context.Context, req BuildRequest, progress chan<- ProgressUpdate) BuildResult {
	logger := shared.WithLogger(b.Logger, "playlist", req.Name)

	if req.Name == "" {
		return failedBuild(logger, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument))
	}
	if req.User.ID == "" {
		return failedBuild(logger, fmt.Errorf("%w: no user", shared.ErrNotAuthenticated))
	}

	sendProgress(progress, findPlaylistUpdate(req.Name))
	playlist, created, err := b.GetOrCreatePlaylist(ctx, req.User, req.Name, req.Options)
	if err != nil {
		return failedBuild(logger, err)
	}
	sendProgress(progress, playlistReadyUpdate(playlist, created))

	tracks := SelectedTracks(req.Artists, req.TracksPerArtist)
	submitted, err := b.AddTracks(ctx, playlist, tracks, progress)
	if err != nil {
		res := failedBuild(logger, err)
		res.Playlist = playlist
		res.Submitted = submitted
		return res
	}

	logger.Info("playlist built", "id", playlist.ID, "created", created, "tracks", submitted, "artists", len(req.Artists))
	sendProgress(progress, buildDoneUpdate(playlist, submitted))
	return BuildResult{Playlist: playlist, Submitted: submitted}
}

func failedBuild(logger *log.Logger, err error) BuildResult {
	logger.Error("playlist build failed", "err", err)
	return BuildResult{Failed: true, Message: err.Error()}
}
