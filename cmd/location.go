package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Location resolves a Wikipedia page and prints the place.
func (r *Runner) Location(ctx context.Context, cmd *cli.Command) error {
	loc, err := r.graphClient().Lookup(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(loc, true)
	}

	r.writePlainHeader(loc.Name)
	r.writePlain("URI:   %s\n", loc.URI)
	r.writePlain("Page:  %s\n", loc.Page)
	if loc.Image != "" {
		r.writePlain("Image: %s\n", loc.Image)
	}
	if loc.Abstract != "" {
		r.writePlainln("%s", loc.Abstract)
	}
	return nil
}

// Artists prints the bare band names found for a place.
func (r *Runner) Artists(ctx context.Context, cmd *cli.Command) error {
	loc, names, err := r.discover(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(names, true)
	}

	r.writePlain("Found %d bands from %s:\n\n", len(names), loc.Name)
	for i, n := range names {
		r.writePlain("%d. %s\n", i+1, n.Name)
	}
	return nil
}
