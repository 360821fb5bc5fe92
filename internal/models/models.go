package models

import (
	"cmp"
	"slices"
	"time"
)

// Image is an artist picture reference.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Followers holds the follower count of an [Artist].
type Followers struct {
	Total int `json:"total"`
}

// Artist is a catalog artist. Identity is ID.
type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres"`
	Images     []Image   `json:"images"`
	Popularity int       `json:"popularity"`
	Followers  Followers `json:"followers"`
}

// SortImages orders images by descending resolution, the order the catalog documents.
func SortImages(images []Image) {
	slices.SortStableFunc(images, func(a, b Image) int {
		return cmp.Compare(b.Width*b.Height, a.Width*a.Height)
	})
}

// Thumbnail returns the smallest image URL, or "".
func (a Artist) Thumbnail() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[len(a.Images)-1].URL
}

// Track is a playable catalog track. DurationMS is non-negative.
type Track struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
}

// Duration returns the track length.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// ArtistWithTracks pairs an artist with its top tracks, in catalog order.
type ArtistWithTracks struct {
	Artist Artist  `json:"artist"`
	Tracks []Track `json:"tracks"`
}

// Enriched reports whether the artist resolved to at least one track.
func (a ArtistWithTracks) Enriched() bool {
	return len(a.Tracks) > 0
}

// BareArtistName is an artist name from the knowledge graph, before catalog lookup.
//
// GraphURI identifies the graph resource. It is never compared against [Artist.ID].
type BareArtistName struct {
	Name     string `json:"name"`
	GraphURI string `json:"graph_uri,omitempty"`
}

// Playlist is a user playlist in the catalog.
type Playlist struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	OwnerID string `json:"owner_id,omitempty"`
	Public  bool   `json:"public"`
}

// PlaylistOptions are the attributes set when a playlist is created.
type PlaylistOptions struct {
	Description string
	Public      bool
}

// User is the authenticated catalog user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location is a place resolved from a Wikipedia page.
type Location struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Abstract string `json:"abstract,omitempty"`
	Image    string `json:"image,omitempty"`
	Page     string `json:"page"`
}
