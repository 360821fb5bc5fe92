// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func pageArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "url", UsageText: "Wikipedia page of the place"}}
}

// setupCommand handles first-run setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file and initialize the lookup cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Cache database path (default: [cache] path or placelist.db)",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles catalog authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Authorize with Spotify in the browser and save the token",
		Action: r.AuthLogin,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the authenticated user",
				Action: r.AuthStatus,
			},
		},
	}
}

// locationCommand resolves a page to a place.
func locationCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "location",
		Aliases:   []string{"loc"},
		Usage:     "Resolve a Wikipedia page to a location",
		Arguments: pageArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Location,
	}
}

// artistsCommand lists the bare names found for a place.
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "artists",
		Usage:     "List the bands from a place",
		Arguments: pageArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Artists,
	}
}

// enrichCommand runs a headless enrichment.
func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "enrich",
		Usage:     "Look up the bands of a place and print them ranked by popularity",
		Arguments: pageArg(),
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tracks-per-artist", Aliases: []string{"t"}, Usage: "Tracks taken from each artist (default: [playlist] tracks_per_artist)"},
			&cli.FloatFlag{Name: "hours", Usage: "Target playlist length (default: [playlist] target_hours)"},
			&cli.IntFlag{Name: "batch-size", Usage: "Names per worker (default: [enrichment] batch_size)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Output format: json, csv, markdown or txt", Value: "txt"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to a file instead of stdout"},
			&cli.BoolFlag{Name: "create", Usage: "Create the playlist from the selected artists"},
			&cli.StringFlag{Name: "name", Usage: "Playlist name (default: location name)"},
		},
		Action: r.Enrich,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive TUI for a place",
		Arguments: pageArg(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Playlist name (default: location name)"},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the control API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the control API",
		Action: r.Serve,
	}
}

// cacheCommand manages the lookup cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and prune the lookup cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the number of cached lookups",
				Action: r.CacheStats,
			},
			{
				Name:  "purge",
				Usage: "Delete cached lookups older than --older-than",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "older-than", Usage: "Age cutoff (default: [cache] max_age_hours)"},
				},
				Action: r.CachePurge,
			},
		},
	}
}
