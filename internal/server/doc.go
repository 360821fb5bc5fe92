// Package server exposes the enrichment run over HTTP and receives OAuth callbacks.
//
// Routes are served by a chi router carrying request ids, panic recovery and
// request logging:
//
//	GET  /api/state          live list, progress and the cut for the given settings
//	POST /api/locations      resolve a Wikipedia page and start enrichment
//	POST /api/stop           stop loading, keep results
//	POST /api/clear          stop loading, drop results
//	POST /api/playlists      build a playlist from the selected artists
//	GET  /callback           OAuth authorization-code callback
//
// A failed playlist build is not an HTTP error: it is returned with status 200
// and "failed": true so clients can show the catalog's message as-is.
package server
