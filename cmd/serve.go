package main

import (
	"context"

	"github.com/desertthunder/placelist/internal/server"
	"github.com/desertthunder/placelist/internal/shared"
	"github.com/desertthunder/placelist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the control API until interrupted.
//
// When client credentials are configured the OAuth callback is mounted too, and
// a token obtained through it replaces the one in use for later runs.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		r.logger.Warn("no usable token, enrichment will fail until authorized", "error", err)
	}

	cache, err := r.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	coord := r.coordinator(token, 0, cache)
	api := server.NewAPI(ctx, r.graphClient(), coord, tasks.NewBuilder(r.catalogClient(token), r.logger), r.config.Playlist, r.logger)

	var handlers []server.Handler
	if auth, err := r.authenticator(); err == nil {
		state := shared.GenerateID()
		h := server.NewOAuthHandler(auth, state)
		handlers = append(handlers, h)
		r.logger.Info("authorize at", "url", auth.AuthURL(state))

		go func() {
			select {
			case res := <-h.Result():
				if res.Error() != nil || res.Token == nil {
					r.logger.Error("authorization failed", "error", res.Error())
					return
				}
				r.config.Credentials.Spotify.Update(res.Token)
				r.saveConfig()
				coord.SetToken(res.Token.AccessToken)
				api.SetBuilder(tasks.NewBuilder(r.catalogClient(res.Token.AccessToken), r.logger))
				r.logger.Info("authorized, token updated")
			case <-ctx.Done():
			}
		}()
	}

	router := server.NewRouter(r.logger, handlers...)
	api.Register(router)

	return server.New(r.config.Server.Addr(), router, r.logger).Run(ctx)
}
