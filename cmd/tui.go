package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/desertthunder/placelist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for a place.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	loc, names, err := r.discover(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	coord := r.coordinator(token, 0, cache)
	builder := tasks.NewBuilder(r.catalogClient(token), r.logger)

	model := ui.NewModel(ctx, coord, builder, ui.Options{
		Location:        loc,
		Names:           names,
		PlaylistName:    cmd.String("name"),
		TracksPerArtist: r.config.Playlist.TracksPerArtist,
		TargetHours:     r.config.Playlist.TargetHours,
		Public:          r.config.Playlist.Public,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
