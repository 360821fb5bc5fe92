package repositories

import (
	"database/sql"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/placelist/internal/catalog"
	"github.com/desertthunder/placelist/internal/shared"
)

// Cache bundles an open cache database with its repository.
type Cache struct {
	DB     *sql.DB
	Lookup *LookupRepository
	MaxAge time.Duration
}

// OpenCache opens the configured cache. It returns nil, nil when the cache is disabled.
func OpenCache(cfg shared.CacheConfig) (*Cache, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	db, err := shared.OpenCache(cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{
		DB:     db,
		Lookup: NewLookupRepository(db),
		MaxAge: time.Duration(cfg.MaxAgeHours) * time.Hour,
	}, nil
}

// Wrap returns api decorated with the cache, or api itself when c is nil.
func (c *Cache) Wrap(api catalog.API, logger *log.Logger) catalog.API {
	if c == nil {
		return api
	}
	return NewCachingCatalog(api, c.Lookup, c.MaxAge, logger)
}

// Close closes the database. Safe on a nil Cache.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.DB.Close()
}
