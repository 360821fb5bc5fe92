// Package ui implements the interactive terminal view of an enrichment run using bubbletea's Elm architecture.
//
// The [Model] subscribes to a [tasks.Coordinator] and redraws on every snapshot:
// a progress bar for the lookups, and the live artist list ordered by popularity
// with the artists above the cut marked. The cut is recomputed whenever a
// snapshot arrives or the tracks-per-artist or target-hours settings change.
//
// Keys: s stop loading, c clear, +/- tracks per artist, ]/[ target hours,
// p create the playlist, q quit. Playlist builds run in the background and
// report through the builder's progress channel; a failure is shown inline
// with the catalog's message.
package ui
