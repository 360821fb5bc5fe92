package tasks

import (
	"fmt"

	"github.com/desertthunder/placelist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LookupLocation Phase = iota
	DiscoverArtists
	EnrichArtists
	FindPlaylist
	CreatePlaylist
	AddTracks
	BuildDone
)

func (p Phase) String() string {
	switch p {
	case LookupLocation:
		return "lookup_location"
	case DiscoverArtists:
		return "discover_artists"
	case EnrichArtists:
		return "enrich_artists"
	case FindPlaylist:
		return "find_playlist"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case BuildDone:
		return "build_done"
	default:
		return ""
	}
}

// sendProgress delivers update unless the channel is nil or full.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// EnrichUpdate converts a coordinator snapshot into a progress event.
func EnrichUpdate(s Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichArtists,
		Step:    s.Fetched,
		Total:   s.Total,
		Message: fmt.Sprintf("[%d/%d] %d artists with tracks", s.Fetched, s.Total, len(s.Artists)),
		Data:    s,
	}
}

func findPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FindPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking for playlist %q...", name),
	}
}

func playlistReadyUpdate(pl models.Playlist, created bool) ProgressUpdate {
	msg := fmt.Sprintf("Reusing playlist: %s (ID: %s)", pl.Name, pl.ID)
	if created {
		msg = fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID)
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    pl,
	}
}

func addTracksUpdate(step, total, submitted int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %d tracks added", step, total, submitted),
	}
}

func buildDoneUpdate(pl models.Playlist, submitted int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildDone,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ %s: %d tracks", pl.Name, submitted),
		Data:    pl,
	}
}
