package repositories

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
)

// DefaultMaxAge is how long a cached lookup is trusted.
const DefaultMaxAge = 7 * 24 * time.Hour

// CachingCatalog serves artist searches and top tracks from a [LookupRepository]
// and records what the wrapped catalog returns.
//
// Only the best exact-name match of a search is kept, so a cached search
// returns at most one artist. Cache write failures are logged and ignored.
type CachingCatalog struct {
	catalog.API

	repo   *LookupRepository
	maxAge time.Duration
	logger *log.Logger
}

// NewCachingCatalog wraps api. maxAge <= 0 selects [DefaultMaxAge].
func NewCachingCatalog(api catalog.API, repo *LookupRepository, maxAge time.Duration, logger *log.Logger) *CachingCatalog {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &CachingCatalog{API: api, repo: repo, maxAge: maxAge, logger: logger}
}

func (c *CachingCatalog) fresh(t time.Time) bool {
	return c.repo.now().Sub(t) < c.maxAge
}

// SearchArtists returns the cached match for query, or searches and caches the best match.
func (c *CachingCatalog) SearchArtists(ctx context.Context, query string) ([]models.Artist, error) {
	l, err := c.repo.Get(ctx, query)
	switch {
	case err == nil && c.fresh(l.FetchedAt):
		if !l.Found {
			return []models.Artist{}, nil
		}
		return []models.Artist{l.Artist}, nil
	case err != nil && !errors.Is(err, shared.ErrCacheMiss):
		c.logger.Warn("lookup cache read failed", "name", query, "err", err)
	}

	artists, err := c.API.SearchArtists(ctx, query)
	if err != nil {
		return nil, err
	}

	if best, ok := catalog.BestMatch(query, artists); ok {
		err = c.repo.PutArtist(ctx, query, best)
	} else {
		err = c.repo.PutNotFound(ctx, query)
	}
	if err != nil {
		c.logger.Warn("lookup cache write failed", "name", query, "err", err)
	}
	return artists, nil
}

// TopTracks returns cached tracks for artistID, or fetches and caches them.
func (c *CachingCatalog) TopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	tracks, fetchedAt, err := c.repo.TopTracks(ctx, artistID)
	switch {
	case err == nil && c.fresh(fetchedAt):
		return tracks, nil
	case err != nil && !errors.Is(err, shared.ErrCacheMiss):
		c.logger.Warn("top tracks cache read failed", "artist_id", artistID, "err", err)
	}

	tracks, err = c.API.TopTracks(ctx, artistID)
	if err != nil {
		return nil, err
	}
	if err := c.repo.PutTopTracks(ctx, artistID, tracks); err != nil {
		c.logger.Warn("top tracks cache write failed", "artist_id", artistID, "err", err)
	}
	return tracks, nil
}

var _ catalog.API = (*CachingCatalog)(nil)
