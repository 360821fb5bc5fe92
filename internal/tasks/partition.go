package tasks

import (
	"math"
	"time"

	"github.com/desertthunder/placelist/internal/models"
	"github.com/samber/lo"
)

// Partition returns the index of the last artist needed to reach targetHours
// of music, taking at most tracksPerArtist tracks from each artist.
//
// The artist whose tracks cross the target is included. The result is -1 for
// an empty list or a non-positive target, and len(sorted)-1 when the whole list
// falls short of the target.
func Partition(sorted []models.ArtistWithTracks, tracksPerArtist int, targetHours float64) int {
	target := math.Round(targetHours * 3600)

	var secs float64
	i := 0
	for i < len(sorted) && secs < target {
		secs += cappedSeconds(sorted[i].Tracks, tracksPerArtist)
		i++
	}
	return i - 1
}

func cappedSeconds(tracks []models.Track, tracksPerArtist int) float64 {
	return lo.SumBy(capTracks(tracks, tracksPerArtist), func(t models.Track) float64 {
		return float64(t.DurationMS) / 1000
	})
}

func capTracks(tracks []models.Track, n int) []models.Track {
	if n <= 0 {
		return nil
	}
	return tracks[:min(n, len(tracks))]
}

// Selection returns the artists up to and including cut.
func Selection(sorted []models.ArtistWithTracks, cut int) []models.ArtistWithTracks {
	if cut < 0 {
		return nil
	}
	return sorted[:min(cut+1, len(sorted))]
}

// SelectedTracks flattens the first tracksPerArtist tracks of each artist, in catalog order.
func SelectedTracks(artists []models.ArtistWithTracks, tracksPerArtist int) []models.Track {
	var tracks []models.Track
	for _, a := range artists {
		tracks = append(tracks, capTracks(a.Tracks, tracksPerArtist)...)
	}
	return tracks
}

// Duration sums the capped track durations of artists.
func Duration(artists []models.ArtistWithTracks, tracksPerArtist int) time.Duration {
	var total time.Duration
	for _, t := range SelectedTracks(artists, tracksPerArtist) {
		total += t.Duration()
	}
	return total
}
