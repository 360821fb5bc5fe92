// Package repositories persists catalog lookups so repeated runs over the same
// location skip the catalog for names already resolved.
//
// Only catalog responses are stored: which artist a bare name resolved to (or
// that it resolved to nothing) and an artist's top tracks. Run state such as the
// live list, progress and selection is never written.
//
// [LookupRepository] wraps the SQLite tables created by the shared migrations.
// [CachingCatalog] decorates a catalog client with it.
package repositories
