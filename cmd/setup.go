package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/placelist/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultCachePath = "placelist.db"

// SetupDatabase creates the config file when missing and initializes the lookup cache.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", r.configPath)
	}

	path := cmd.String("path")
	if path == "" {
		path = r.config.Cache.Path
	}
	if path == "" {
		path = defaultCachePath
	}

	r.logger.Info("initializing database", "path", path)

	cfg := r.config.Cache
	cfg.Path = path
	db, err := shared.OpenCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer db.Close()

	if r.config.Cache.Path != path {
		r.config.Cache.Path = path
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.logger.Info("cache enabled in config", "path", r.configPath)
	}

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Lookup cache ready at %s\n", path)
}
