package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/placelist/internal/formatter"
	"github.com/desertthunder/placelist/internal/models"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Enrich runs the whole pipeline without a UI: discover the bands, rank them by
// popularity, print the list with its cut and optionally create the playlist.
func (r *Runner) Enrich(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	tpa := r.config.Playlist.TracksPerArtist
	if cmd.IsSet("tracks-per-artist") {
		tpa = cmd.Int("tracks-per-artist")
	}
	hours := r.config.Playlist.TargetHours
	if cmd.IsSet("hours") {
		hours = cmd.Float("hours")
	}
	if tpa <= 0 {
		return fmt.Errorf("%w: tracks-per-artist must be positive", shared.ErrInvalidFlag)
	}
	if hours <= 0 {
		return fmt.Errorf("%w: hours must be positive", shared.ErrInvalidFlag)
	}

	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	loc, names, err := r.discover(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	coord := r.coordinator(token, cmd.Int("batch-size"), cache)
	snap, err := r.runEnrichment(ctx, coord, names)
	if err != nil {
		return err
	}

	export := formatter.NewExport(loc, snap.Artists, tpa, hours)
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteFile(export, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("export written", "path", written, "format", format)
	} else {
		data, err := formatter.Render(export, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if !cmd.Bool("create") {
		return nil
	}

	name := cmd.String("name")
	if name == "" {
		name = loc.Name
	}
	return r.createPlaylist(ctx, token, tasks.BuildRequest{
		Name:            name,
		Artists:         export.Selected(),
		TracksPerArtist: tpa,
		Options:         models.PlaylistOptions{Public: r.config.Playlist.Public, Description: fmt.Sprintf("Bands from %s", loc.Name)},
	})
}

// runEnrichment starts a run and logs progress until it completes or ctx is done.
func (r *Runner) runEnrichment(ctx context.Context, coord *tasks.Coordinator, names []models.BareArtistName) (tasks.Snapshot, error) {
	sub, unsubscribe := coord.Subscribe()
	defer unsubscribe()

	coord.Start(ctx, names)

	done := make(chan error, 1)
	go func() { done <- coord.Wait(ctx) }()

	for {
		select {
		case s := <-sub:
			r.logger.Debug(tasks.EnrichUpdate(s).Message)
		case err := <-done:
			snap := coord.Snapshot()
			if err != nil {
				coord.StopLoading()
				return coord.Snapshot(), fmt.Errorf("enrichment interrupted: %w", err)
			}
			r.logger.Info(humanPrinter.Sprintf("enriched %d names, %d artists with tracks", snap.Fetched, len(snap.Artists)))
			return snap, nil
		}
	}
}

func (r *Runner) createPlaylist(ctx context.Context, token string, req tasks.BuildRequest) error {
	api := r.catalogClient(token)

	user, err := api.Me(ctx)
	if err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w (try 'placelist auth')", err)
		}
		return err
	}
	req.User = user

	progress := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase)
		}
	}()

	res := tasks.NewBuilder(api, r.logger).Build(ctx, req, progress)
	close(progress)

	if res.Failed {
		return fmt.Errorf("%w: playlist not created: %s", shared.ErrAPIRequest, res.Message)
	}

	r.writePlainln("✓ Playlist %s: %d tracks", res.Playlist.Name, res.Submitted)
	if res.Playlist.URL != "" {
		r.writePlain("%s\n", res.Playlist.URL)
	}
	return nil
}
