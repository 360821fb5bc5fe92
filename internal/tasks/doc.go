// Package tasks turns a list of bare artist names into a playlist.
//
// # Enrichment
//
// A [Worker] resolves a batch of names sequentially and yields one
// [models.EnrichmentResult] per name as soon as it is known.
//
// The [Coordinator] splits the names into batches, runs one worker goroutine per
// batch and merges results into a live list kept in descending popularity
// order, one entry per catalog artist. Callers observe it through
// [Coordinator.Snapshot] and [Coordinator.Subscribe]; they never mutate it.
// [Coordinator.StopLoading] keeps the partial list, [Coordinator.Clear] drops it.
//
// # Selection
//
// [Partition] finds the cut index: the last artist needed to reach a target
// duration when each artist contributes at most N tracks.
//
// # Playlists
//
// [Builder] finds or creates a playlist by name and adds the selected tracks
// in batches of [MaxTracksPerRequest], never more than [MaxPlaylistTracks].
//
// # Progress Reporting
//
// Long operations send [ProgressUpdate] values on optional channels. Sends use
// select with default so a slow reader never blocks the work.
package tasks
