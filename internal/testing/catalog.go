package testing

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/placelist/internal/models"
)

// FakeCatalog is an in-memory catalog.API. Safe for concurrent use.
//
// Searches return Artists[query]; top tracks return Tracks[artistID]. Errors
// configured per query or artist id are returned instead. When Gate is set,
// SearchArtists blocks until it can receive from Gate or ctx is done.
type FakeCatalog struct {
	mu sync.Mutex

	User      models.User
	Artists   map[string][]models.Artist
	Tracks    map[string][]models.Track
	Playlists []models.Playlist

	SearchErr    map[string]error
	TopTracksErr map[string]error
	PlaylistsErr error
	CreateErr    error
	AddErr       error

	Gate chan struct{}

	searches []string
	batches  [][]string
	created  []string
}

func (f *FakeCatalog) Me(ctx context.Context) (models.User, error) {
	return f.User, nil
}

func (f *FakeCatalog) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if err := f.SearchErr[query]; err != nil {
		return nil, err
	}
	return slices.Clone(f.Artists[query]), nil
}

func (f *FakeCatalog) TopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.TopTracksErr[artistID]; err != nil {
		return nil, err
	}
	return slices.Clone(f.Tracks[artistID]), nil
}

func (f *FakeCatalog) UserPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlaylistsErr != nil {
		return nil, f.PlaylistsErr
	}
	return slices.Clone(f.Playlists), nil
}

func (f *FakeCatalog) CreatePlaylist(ctx context.Context, userID, name string, opts models.PlaylistOptions) (models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return models.Playlist{}, f.CreateErr
	}
	p := models.Playlist{ID: fmt.Sprintf("created-%d", len(f.created)+1), Name: name, OwnerID: userID, Public: opts.Public}
	f.created = append(f.created, name)
	f.Playlists = append(f.Playlists, p)
	return p, nil
}

func (f *FakeCatalog) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	f.batches = append(f.batches, slices.Clone(uris))
	return nil
}

// Searches returns the queries seen so far.
func (f *FakeCatalog) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.searches)
}

// Batches returns the URI batches passed to AddTracks.
func (f *FakeCatalog) Batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.batches)
}

// Created returns the names of playlists created.
func (f *FakeCatalog) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.created)
}

// Artist builds a catalog artist with the given popularity.
func Artist(id, name string, popularity int) models.Artist {
	return models.Artist{ID: id, Name: name, Popularity: popularity}
}

// TracksOf builds n tracks of secs seconds each for artist id.
func TracksOf(id string, n, secs int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{
			ID:         fmt.Sprintf("%s-%d", id, i),
			URI:        fmt.Sprintf("spotify:track:%s-%d", id, i),
			Name:       fmt.Sprintf("%s track %d", id, i),
			DurationMS: secs * 1000,
		}
	}
	return tracks
}

// Names wraps plain names as bare artist names.
func Names(names ...string) []models.BareArtistName {
	out := make([]models.BareArtistName, len(names))
	for i, n := range names {
		out[i] = models.BareArtistName{Name: n}
	}
	return out
}
