// Spotify Web API response records.
//
// Shapes follow https://developer.spotify.com/documentation/web-api/reference/
package catalog

import (
	"github.com/desertthunder/placelist/internal/models"
	"github.com/samber/lo"
)

type followers struct {
	Total int `json:"total"`
}

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Images     []spotifyImage `json:"images"`
	Popularity int            `json:"popularity"`
	Followers  followers      `json:"followers"`
	URI        string         `json:"uri"`
}

type spotifyTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
	URI        string `json:"uri"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Owner        owner        `json:"owner"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type artistSearch struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

type topTracks struct {
	Tracks []spotifyTrack `json:"tracks"`
}

type paginatedPlaylists struct {
	Items []spotifyPlaylist `json:"items"`
	Total int               `json:"total"`
	Next  *string           `json:"next"`
}

type snapshot struct {
	SnapshotID string `json:"snapshot_id"`
}

type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a spotifyArtist) model() models.Artist {
	images := lo.Map(a.Images, func(img spotifyImage, _ int) models.Image {
		return models.Image{URL: img.URL, Width: img.Width, Height: img.Height}
	})
	models.SortImages(images)

	return models.Artist{
		ID:         a.ID,
		Name:       a.Name,
		Genres:     a.Genres,
		Images:     images,
		Popularity: a.Popularity,
		Followers:  models.Followers{Total: a.Followers.Total},
	}
}

func (t spotifyTrack) model() models.Track {
	return models.Track{ID: t.ID, URI: t.URI, Name: t.Name, DurationMS: max(t.DurationMS, 0)}
}

func (p spotifyPlaylist) model() models.Playlist {
	return models.Playlist{
		ID:      p.ID,
		Name:    p.Name,
		URL:     p.ExternalURLs.Spotify,
		OwnerID: p.Owner.ID,
		Public:  p.Public,
	}
}
