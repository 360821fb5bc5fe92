package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/placelist/internal/repositories"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireCache() (*repositories.Cache, error) {
	cache, err := r.openCache()
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: [cache] path is empty, run 'placelist setup database'", shared.ErrMissingConfig)
	}
	return cache, nil
}

// CacheStats prints the number of cached lookups.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.requireCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	n, err := cache.Lookup.Count(ctx)
	if err != nil {
		return err
	}
	r.writePlain("Cache: %s\n", r.config.Cache.Path)
	r.writePlain("Lookups: %d\n", n)
	r.writePlain("Max age: %v\n", cache.MaxAge)
	return nil
}

// CachePurge deletes lookups older than --older-than, or the configured max age.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.requireCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	age := cache.MaxAge
	if cmd.IsSet("older-than") {
		age = cmd.Duration("older-than")
	}
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidFlag)
	}

	n, err := cache.Lookup.Purge(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	r.logger.Info("cache purged", "removed", n, "older_than", age)
	return r.writePlain("✓ Removed %d lookups older than %v\n", n, age)
}
