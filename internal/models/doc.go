// Package models defines the records that flow between the knowledge graph, the music catalog and the playlist builder.
//
// Catalog records:
//   - [Artist] : a catalog artist with popularity, genres and images
//   - [Track] : a playable track (URI and duration)
//   - [ArtistWithTracks] : an artist paired with its top tracks
//   - [Playlist], [User] : the playlist owner and target
//
// Graph records:
//   - [Location] : a place resolved from a Wikipedia page
//   - [BareArtistName] : an artist name discovered for a location, before catalog lookup
//
// [EnrichmentResult] is the tagged union emitted by enrichment workers.
package models
