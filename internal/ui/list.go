package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/placelist/internal/formatter"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/samber/lo"
)

var _ list.Item = artistItem{}

// artistItem wraps [models.ArtistWithTracks] to implement [list.Item].
type artistItem struct {
	artist          models.ArtistWithTracks
	rank            int
	included        bool
	tracksPerArtist int
}

func (i artistItem) FilterValue() string { return i.artist.Artist.Name }

func (i artistItem) Title() string {
	mark := lo.Ternary(i.included, "●", "○")
	return fmt.Sprintf("%s %3d. %s", mark, i.rank, i.artist.Artist.Name)
}

func (i artistItem) Description() string {
	n := min(len(i.artist.Tracks), i.tracksPerArtist)
	parts := []string{
		fmt.Sprintf("popularity %d", i.artist.Artist.Popularity),
		fmt.Sprintf("%d tracks", n),
		formatter.FormatDuration(tasks.Duration([]models.ArtistWithTracks{i.artist}, i.tracksPerArtist)),
	}
	if len(i.artist.Artist.Genres) > 0 {
		parts = append(parts, strings.Join(i.artist.Artist.Genres[:min(2, len(i.artist.Artist.Genres))], ", "))
	}
	return strings.Join(parts, " • ")
}

func artistItems(artists []models.ArtistWithTracks, cut, tracksPerArtist int) []list.Item {
	return lo.Map(artists, func(a models.ArtistWithTracks, i int) list.Item {
		return artistItem{artist: a, rank: i + 1, included: i <= cut, tracksPerArtist: tracksPerArtist}
	})
}
